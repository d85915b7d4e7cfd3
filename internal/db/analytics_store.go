package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/atlas-maximus/internal/analytics"
	"github.com/jonathan/atlas-maximus/internal/types"
)

var _ analytics.Store = (*DB)(nil)

// -----------------------------------------------------------------------------
// Activity events and query logs
// -----------------------------------------------------------------------------

// InsertActivity appends an activity event.
func (db *DB) InsertActivity(ctx context.Context, event *types.ActivityEvent) error {
	var metadata []byte
	if event.Metadata != nil {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal activity metadata: %w", err)
		}
		metadata = raw
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO activity_events (id, user_id, team_id, action, resource, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.UserID, nullableUUID(event.TeamID), event.Action, event.Resource, metadata, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns activity events within scope, oldest first.
func (db *DB) ListActivities(ctx context.Context, scope analytics.Scope) ([]types.ActivityEvent, error) {
	w := windowFilter(scope.Start, scope.End, "user_id", scope.UserID, "team_id", scope.TeamID)
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, team_id, action, resource, metadata, created_at
		 FROM activity_events`+w.sql()+` ORDER BY created_at ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var events []types.ActivityEvent
	for rows.Next() {
		var ev types.ActivityEvent
		var teamID *uuid.UUID
		var metadata []byte
		if err := rows.Scan(&ev.ID, &ev.UserID, &teamID, &ev.Action, &ev.Resource, &metadata, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		ev.TeamID = fromNullableUUID(teamID)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal activity metadata: %w", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// InsertQueryLog appends a query log entry.
func (db *DB) InsertQueryLog(ctx context.Context, entry *types.QueryLog) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO query_logs (id, user_id, team_id, query, response_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.UserID, nullableUUID(entry.TeamID), entry.Query, entry.ResponseTimeMs, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert query log: %w", err)
	}
	return nil
}

// ListQueryLogs returns query log entries within scope, oldest first.
func (db *DB) ListQueryLogs(ctx context.Context, scope analytics.Scope) ([]types.QueryLog, error) {
	w := windowFilter(scope.Start, scope.End, "user_id", scope.UserID, "team_id", scope.TeamID)
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, team_id, query, response_time_ms, created_at
		 FROM query_logs`+w.sql()+` ORDER BY created_at ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}
	defer rows.Close()

	var logs []types.QueryLog
	for rows.Next() {
		var l types.QueryLog
		var teamID *uuid.UUID
		if err := rows.Scan(&l.ID, &l.UserID, &teamID, &l.Query, &l.ResponseTimeMs, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan query log: %w", err)
		}
		l.TeamID = fromNullableUUID(teamID)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// -----------------------------------------------------------------------------
// Team metrics and risk scores
// -----------------------------------------------------------------------------

// upsertTeamMetrics records per-sprint delivery figures, replacing earlier
// values for the same team and sprint.
func upsertTeamMetrics(ctx context.Context, q querier, metrics []types.TeamMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(
			`INSERT INTO team_metrics (team_id, sprint, velocity, completion_rate, created_at)
			 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
			 ON CONFLICT (team_id, sprint) DO UPDATE
			 SET velocity = EXCLUDED.velocity, completion_rate = EXCLUDED.completion_rate`,
			m.TeamID, m.Sprint, m.Velocity, m.CompletionRate, nullableTime(m.CreatedAt),
		)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert team metrics: %w", err)
	}
	return nil
}

// ListTeamMetrics returns team metric records within scope, oldest first.
func (db *DB) ListTeamMetrics(ctx context.Context, scope analytics.Scope) ([]types.TeamMetric, error) {
	w := windowFilter(scope.Start, scope.End, "", uuid.Nil, "team_id", scope.TeamID)
	rows, err := db.pool.Query(ctx,
		`SELECT id, team_id, sprint, velocity, completion_rate, created_at
		 FROM team_metrics`+w.sql()+` ORDER BY created_at ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list team metrics: %w", err)
	}
	defer rows.Close()

	var metrics []types.TeamMetric
	for rows.Next() {
		var m types.TeamMetric
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Sprint, &m.Velocity, &m.CompletionRate, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// upsertRiskScores records per-sprint risk scores, replacing earlier values.
func upsertRiskScores(ctx context.Context, q querier, scores []types.TeamRiskScore) error {
	if len(scores) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range scores {
		batch.Queue(
			`INSERT INTO team_risk_scores (team_id, sprint, risk_score, created_at)
			 VALUES ($1, $2, $3, COALESCE($4, NOW()))
			 ON CONFLICT (team_id, sprint) DO UPDATE SET risk_score = EXCLUDED.risk_score`,
			s.TeamID, s.Sprint, s.RiskScore, nullableTime(s.CreatedAt),
		)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert risk scores: %w", err)
	}
	return nil
}

// ListRiskScores returns risk score records within scope, oldest first.
func (db *DB) ListRiskScores(ctx context.Context, scope analytics.Scope) ([]types.TeamRiskScore, error) {
	w := windowFilter(scope.Start, scope.End, "", uuid.Nil, "team_id", scope.TeamID)
	rows, err := db.pool.Query(ctx,
		`SELECT id, team_id, sprint, risk_score, created_at
		 FROM team_risk_scores`+w.sql()+` ORDER BY created_at ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk scores: %w", err)
	}
	defer rows.Close()

	var scores []types.TeamRiskScore
	for rows.Next() {
		var s types.TeamRiskScore
		if err := rows.Scan(&s.ID, &s.TeamID, &s.Sprint, &s.RiskScore, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan risk score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// -----------------------------------------------------------------------------
// Documents
// -----------------------------------------------------------------------------

// InsertDocument records document metadata and returns its ID.
func (db *DB) InsertDocument(ctx context.Context, doc *types.DocumentRecord) (uuid.UUID, error) {
	return insertDocument(ctx, db.pool, doc)
}

func insertDocument(ctx context.Context, q querier, doc *types.DocumentRecord) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx,
		`INSERT INTO documents (user_id, team_id, name, file_type, created_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		 RETURNING id`,
		doc.UserID, nullableUUID(doc.TeamID), doc.Name, doc.FileType, nullableTime(doc.CreatedAt),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert document: %w", err)
	}
	return id, nil
}

// ErrDocumentNotFound is returned when a document ID does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// IncrementDocumentViews bumps a document's view counter.
func (db *DB) IncrementDocumentViews(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `UPDATE documents SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment document views: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return nil
}

// ListDocuments returns documents created within scope, oldest first.
func (db *DB) ListDocuments(ctx context.Context, scope analytics.Scope) ([]types.DocumentRecord, error) {
	w := windowFilter(scope.Start, scope.End, "user_id", scope.UserID, "team_id", scope.TeamID)
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, team_id, name, file_type, view_count, created_at
		 FROM documents`+w.sql()+` ORDER BY created_at ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []types.DocumentRecord
	for rows.Next() {
		var d types.DocumentRecord
		var teamID *uuid.UUID
		if err := rows.Scan(&d.ID, &d.UserID, &teamID, &d.Name, &d.FileType, &d.ViewCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.TeamID = fromNullableUUID(teamID)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CountUsers returns the number of registered users.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
