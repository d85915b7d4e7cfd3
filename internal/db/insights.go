package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/types"
)

const defaultInsightLimit = 10

// Analysis is everything stored for one analyzed team data bundle.
type Analysis struct {
	TeamID    uuid.UUID
	UserID    uuid.UUID
	Insight   types.CoachingInsight
	Metrics   []types.TeamMetric
	Risks     []types.TeamRiskScore
	Documents []types.DocumentRecord
}

// SaveAnalysis stores an insight together with the bundle's sprint figures
// and document records in one transaction and returns the insight ID.
// Nothing is stored when any write fails.
func (db *DB) SaveAnalysis(ctx context.Context, a *Analysis) (uuid.UUID, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := insertInsight(ctx, tx, a.TeamID, a.UserID, a.Insight)
	if err != nil {
		return uuid.Nil, err
	}
	if err := upsertTeamMetrics(ctx, tx, a.Metrics); err != nil {
		return uuid.Nil, err
	}
	if err := upsertRiskScores(ctx, tx, a.Risks); err != nil {
		return uuid.Nil, err
	}
	for i := range a.Documents {
		if _, err := insertDocument(ctx, tx, &a.Documents[i]); err != nil {
			return uuid.Nil, fmt.Errorf("failed to record document %q: %w", a.Documents[i].Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit analysis: %w", err)
	}
	return id, nil
}

func insertInsight(ctx context.Context, q querier, teamID, userID uuid.UUID, insight types.CoachingInsight) (uuid.UUID, error) {
	raw, err := json.Marshal(insight)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal insight: %w", err)
	}

	var id uuid.UUID
	err = q.QueryRow(ctx,
		`INSERT INTO coaching_insights (team_id, user_id, maturity, insight)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		teamID, userID, string(insight.OverallMaturity), raw,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save insight: %w", err)
	}
	return id, nil
}

// ListInsights returns a team's stored insights, newest first.
func (db *DB) ListInsights(ctx context.Context, teamID uuid.UUID, limit int) ([]types.StoredInsight, error) {
	if limit <= 0 {
		limit = defaultInsightLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, team_id, user_id, insight, created_at
		 FROM coaching_insights WHERE team_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		teamID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	insights := []types.StoredInsight{}
	for rows.Next() {
		var si types.StoredInsight
		var raw []byte
		if err := rows.Scan(&si.ID, &si.TeamID, &si.UserID, &raw, &si.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		if err := json.Unmarshal(raw, &si.Insight); err != nil {
			return nil, fmt.Errorf("failed to unmarshal insight: %w", err)
		}
		insights = append(insights, si)
	}
	return insights, rows.Err()
}
