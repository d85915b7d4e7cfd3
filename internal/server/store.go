package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/analytics"
	"github.com/jonathan/atlas-maximus/internal/db"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// DBClient is the persistence the API depends on. *db.DB implements it.
type DBClient interface {
	analytics.Store

	Ping(ctx context.Context) error
	Close()

	CreateUser(ctx context.Context, name, email, role, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	CreateTeam(ctx context.Context, name string, createdBy uuid.UUID) (*types.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*types.Team, error)
	AddTeamMember(ctx context.Context, teamID, userID uuid.UUID) error
	IsTeamMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	ListUserTeams(ctx context.Context, userID uuid.UUID) ([]types.Team, error)

	SaveAnalysis(ctx context.Context, a *db.Analysis) (uuid.UUID, error)
	ListInsights(ctx context.Context, teamID uuid.UUID, limit int) ([]types.StoredInsight, error)

	SaveSnapshot(ctx context.Context, s *types.Snapshot) error
	ListSnapshots(ctx context.Context, filters db.SnapshotFilters) ([]types.Snapshot, error)

	InsertDocument(ctx context.Context, doc *types.DocumentRecord) (uuid.UUID, error)
	IncrementDocumentViews(ctx context.Context, id uuid.UUID) error
}

var _ DBClient = (*db.DB)(nil)
