package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// SnapshotFilters holds optional filters for listing snapshots
type SnapshotFilters struct {
	Type   types.SnapshotType
	UserID uuid.UUID
	TeamID uuid.UUID
	// NoTeam restricts the list to snapshots without a team. Ignored when
	// TeamID is set.
	NoTeam bool
	Limit  int
}

const defaultSnapshotLimit = 20

// SaveSnapshot persists a snapshot. Saving the same snapshot ID twice is a no-op,
// so snapshots served from cache can be saved again safely.
func (db *DB) SaveSnapshot(ctx context.Context, s *types.Snapshot) error {
	metrics, err := json.Marshal(s.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot metrics: %w", err)
	}
	trends, err := json.Marshal(s.Trends)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot trends: %w", err)
	}
	predictions, err := json.Marshal(s.Predictions)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot predictions: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO analytics_snapshots
		   (id, type, period_start, period_end, user_id, team_id, metrics, trends, predictions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, string(s.Type), s.PeriodStart, s.PeriodEnd,
		nullableUUID(s.UserID), nullableUUID(s.TeamID),
		metrics, trends, predictions, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

const snapshotColumns = `id, type, period_start, period_end, user_id, team_id, metrics, trends, predictions, created_at`

func scanSnapshot(row pgx.Row) (*types.Snapshot, error) {
	var s types.Snapshot
	var snapshotType string
	var userID, teamID *uuid.UUID
	var metrics, trends, predictions []byte

	if err := row.Scan(&s.ID, &snapshotType, &s.PeriodStart, &s.PeriodEnd, &userID, &teamID,
		&metrics, &trends, &predictions, &s.CreatedAt); err != nil {
		return nil, err
	}

	s.Type = types.SnapshotType(snapshotType)
	s.UserID = fromNullableUUID(userID)
	s.TeamID = fromNullableUUID(teamID)
	if err := json.Unmarshal(metrics, &s.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot metrics: %w", err)
	}
	if err := json.Unmarshal(trends, &s.Trends); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot trends: %w", err)
	}
	if err := json.Unmarshal(predictions, &s.Predictions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot predictions: %w", err)
	}
	return &s, nil
}

// ListSnapshots retrieves the most recent snapshots matching filters.
func (db *DB) ListSnapshots(ctx context.Context, filters SnapshotFilters) ([]types.Snapshot, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultSnapshotLimit
	}

	w := &whereBuilder{}
	if filters.Type != "" {
		w.add("type = $%d", string(filters.Type))
	}
	if filters.UserID != uuid.Nil {
		w.add("user_id = $%d", filters.UserID)
	}
	if filters.TeamID != uuid.Nil {
		w.add("team_id = $%d", filters.TeamID)
	} else if filters.NoTeam {
		w.clauses = append(w.clauses, "team_id IS NULL")
	}
	args := append(w.args, filters.Limit)
	query := `SELECT ` + snapshotColumns + ` FROM analytics_snapshots` + w.sql() +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []types.Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}
