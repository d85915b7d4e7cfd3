package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// TrackActivity appends an activity event for a user.
func (e *Engine) TrackActivity(ctx context.Context, userID uuid.UUID, req types.TrackActivityRequest) (*types.ActivityEvent, error) {
	event := &types.ActivityEvent{
		ID:        e.newID(),
		UserID:    userID,
		TeamID:    req.TeamID,
		Action:    strings.TrimSpace(req.Action),
		Resource:  req.Resource,
		Metadata:  req.Metadata,
		CreatedAt: e.now().UTC(),
	}
	if err := e.store.InsertActivity(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return event, nil
}

// TrackQuery appends a query log entry for a user. The query text is stored
// as given so identical questions group together.
func (e *Engine) TrackQuery(ctx context.Context, userID uuid.UUID, req types.TrackQueryRequest) (*types.QueryLog, error) {
	entry := &types.QueryLog{
		ID:             e.newID(),
		UserID:         userID,
		TeamID:         req.TeamID,
		Query:          req.Query,
		ResponseTimeMs: req.ResponseTimeMs,
		CreatedAt:      e.now().UTC(),
	}
	if err := e.store.InsertQueryLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record query: %w", err)
	}
	return entry, nil
}
