package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// CreateTeam creates a team and adds its creator as the first member.
func (db *DB) CreateTeam(ctx context.Context, name string, createdBy uuid.UUID) (*types.Team, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var t types.Team
	err = tx.QueryRow(ctx,
		`INSERT INTO teams (name, created_by) VALUES ($1, $2)
		 RETURNING id, name, created_by, created_at`,
		strings.TrimSpace(name), createdBy,
	).Scan(&t.ID, &t.Name, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`,
		t.ID, createdBy,
	); err != nil {
		return nil, fmt.Errorf("failed to add team owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit team: %w", err)
	}
	return &t, nil
}

// GetTeam retrieves a team by ID. It returns nil, nil when absent.
func (db *DB) GetTeam(ctx context.Context, id uuid.UUID) (*types.Team, error) {
	var t types.Team
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, created_by, created_at FROM teams WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

// AddTeamMember adds a user to a team. Adding an existing member is a no-op.
func (db *DB) AddTeamMember(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

// IsTeamMember reports whether a user belongs to a team.
func (db *DB) IsTeamMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var member bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID,
	).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("failed to check team membership: %w", err)
	}
	return member, nil
}

// ListUserTeams returns the teams a user belongs to, oldest first.
func (db *DB) ListUserTeams(ctx context.Context, userID uuid.UUID) ([]types.Team, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT t.id, t.name, t.created_by, t.created_at
		 FROM teams t JOIN team_members m ON m.team_id = t.id
		 WHERE m.user_id = $1 ORDER BY t.created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := []types.Team{}
	for rows.Next() {
		var t types.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
