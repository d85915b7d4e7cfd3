package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Engine generates analytics snapshots from a Store.
// It is safe for concurrent use when the Store and Cache are.
type Engine struct {
	store Store
	cache Cache
	now   func() time.Time
	newID func() uuid.UUID
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache serves repeated snapshot requests from a cache.
func WithCache(cache Cache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithClock sets the clock used for CreatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator sets the function used for snapshot and event IDs.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// NewEngine creates an engine reading from store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now, newID: uuid.New}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type generator func(*Engine, context.Context, Scope) (snapshotData, error)

var generators = map[types.SnapshotType]generator{
	types.SnapshotUserEngagement:  (*Engine).userEngagement,
	types.SnapshotTeamPerformance: (*Engine).teamPerformance,
	types.SnapshotDocumentUsage:   (*Engine).documentUsage,
	types.SnapshotQueryPatterns:   (*Engine).queryPatterns,
	types.SnapshotRiskTrends:      (*Engine).riskTrends,
	types.SnapshotVelocityTrends:  (*Engine).velocityTrends,
}

// GenerateSnapshot computes the metrics, trends and predictions of one snapshot
// type over scope. Unrecognised types produce a system-wide overview. Store
// errors are returned; persisting the snapshot is left to the caller.
func (e *Engine) GenerateSnapshot(ctx context.Context, snapshotType types.SnapshotType, scope Scope) (*types.Snapshot, error) {
	key := CacheKey(snapshotType, scope)
	if e.cache != nil {
		cached, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			log.Debug().Err(err).Str("key", key).Msg("snapshot cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	gen, ok := generators[snapshotType]
	if !ok {
		gen = (*Engine).systemOverview
	}
	data, err := gen(e, ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s snapshot: %w", snapshotType, err)
	}

	snapshot := &types.Snapshot{
		ID:          e.newID(),
		Type:        snapshotType,
		PeriodStart: scope.Start,
		PeriodEnd:   scope.End,
		UserID:      scope.UserID,
		TeamID:      scope.TeamID,
		Metrics:     data.metrics,
		Trends:      data.trends,
		Predictions: data.predictions,
		CreatedAt:   e.now().UTC(),
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, snapshot); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("snapshot cache write failed")
		}
	}
	return snapshot, nil
}

// GenerateAll generates every recognised snapshot type for scope concurrently.
// The result follows types.AllSnapshotTypes order. The first error cancels the rest.
func (e *Engine) GenerateAll(ctx context.Context, scope Scope) ([]*types.Snapshot, error) {
	g, gCtx := errgroup.WithContext(ctx)

	results := make([]*types.Snapshot, len(types.AllSnapshotTypes))
	var mu sync.Mutex

	for i, snapshotType := range types.AllSnapshotTypes {
		g.Go(func() error {
			snapshot, err := e.GenerateSnapshot(gCtx, snapshotType, scope)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = snapshot
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
