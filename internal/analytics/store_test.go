package analytics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// memStore is an in-memory Store for engine tests.
type memStore struct {
	mu         sync.Mutex
	activities []types.ActivityEvent
	metrics    []types.TeamMetric
	risks      []types.TeamRiskScore
	documents  []types.DocumentRecord
	queries    []types.QueryLog
	users      int
	err        error
}

func inScope(scope Scope, created time.Time, userID, teamID uuid.UUID) bool {
	if created.Before(scope.Start) || created.After(scope.End) {
		return false
	}
	if scope.HasUser() && userID != scope.UserID {
		return false
	}
	if scope.HasTeam() && teamID != scope.TeamID {
		return false
	}
	return true
}

func filter[T any](records []T, keep func(T) bool) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *memStore) ListActivities(_ context.Context, scope Scope) ([]types.ActivityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return filter(s.activities, func(r types.ActivityEvent) bool { return inScope(scope, r.CreatedAt, r.UserID, r.TeamID) }), nil
}

func (s *memStore) ListTeamMetrics(_ context.Context, scope Scope) ([]types.TeamMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return filter(s.metrics, func(r types.TeamMetric) bool { return inScope(scope, r.CreatedAt, scope.UserID, r.TeamID) }), nil
}

func (s *memStore) ListRiskScores(_ context.Context, scope Scope) ([]types.TeamRiskScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return filter(s.risks, func(r types.TeamRiskScore) bool { return inScope(scope, r.CreatedAt, scope.UserID, r.TeamID) }), nil
}

func (s *memStore) ListDocuments(_ context.Context, scope Scope) ([]types.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return filter(s.documents, func(r types.DocumentRecord) bool { return inScope(scope, r.CreatedAt, r.UserID, r.TeamID) }), nil
}

func (s *memStore) ListQueryLogs(_ context.Context, scope Scope) ([]types.QueryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return filter(s.queries, func(r types.QueryLog) bool { return inScope(scope, r.CreatedAt, r.UserID, r.TeamID) }), nil
}

func (s *memStore) CountUsers(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users, s.err
}

func (s *memStore) InsertActivity(_ context.Context, event *types.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.activities = append(s.activities, *event)
	return nil
}

func (s *memStore) InsertQueryLog(_ context.Context, entry *types.QueryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.queries = append(s.queries, *entry)
	return nil
}

// memCache is an in-memory Cache that counts hits.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*types.Snapshot
	hits    int
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*types.Snapshot)}
}

func (c *memCache) Get(_ context.Context, key string) (*types.Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("cache unavailable")
	}
	s, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return s, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, snapshot *types.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = snapshot
	return nil
}
