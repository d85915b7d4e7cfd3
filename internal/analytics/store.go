// Package analytics computes metric snapshots, day- and sprint-bucketed trends
// and simple extrapolated predictions over stored activity and team records.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// Scope restricts a store query to a time window and an optional owner.
// A uuid.Nil UserID or TeamID means the query is not scoped by it.
type Scope struct {
	Start  time.Time
	End    time.Time
	UserID uuid.UUID
	TeamID uuid.UUID
}

// HasTeam reports whether the scope names a team.
func (s Scope) HasTeam() bool {
	return s.TeamID != uuid.Nil
}

// HasUser reports whether the scope names a user.
func (s Scope) HasUser() bool {
	return s.UserID != uuid.Nil
}

// Store is the persistence the engine reads from and the tracker appends to.
// List methods return records created within [Start, End] in ascending
// creation order.
type Store interface {
	ListActivities(ctx context.Context, scope Scope) ([]types.ActivityEvent, error)
	ListTeamMetrics(ctx context.Context, scope Scope) ([]types.TeamMetric, error)
	ListRiskScores(ctx context.Context, scope Scope) ([]types.TeamRiskScore, error)
	ListDocuments(ctx context.Context, scope Scope) ([]types.DocumentRecord, error)
	ListQueryLogs(ctx context.Context, scope Scope) ([]types.QueryLog, error)
	CountUsers(ctx context.Context) (int, error)

	InsertActivity(ctx context.Context, event *types.ActivityEvent) error
	InsertQueryLog(ctx context.Context, entry *types.QueryLog) error
}
