package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/jonathan/atlas-maximus/internal/analytics"
	"github.com/jonathan/atlas-maximus/internal/llm"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// getBinaryPath returns the path to the atlas binary, skipping when it is not built.
func getBinaryPath(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping CLI binary tests in short mode")
	}
	binaryPath := filepath.Join("..", "..", "bin", "atlas")
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'make build'", binaryPath)
	}
	return binaryPath
}

// atlasCmd prepares the built binary with args and a config-free environment.
func atlasCmd(t *testing.T, args ...string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command(getBinaryPath(t), args...)
	cmd.Env = append(os.Environ(), "DATABASE_URL=", "COACHING_RULES_FILE=")
	return cmd
}

type stubLLM struct {
	text string
	err  error
}

var _ llm.Client = (*stubLLM)(nil)

func (s *stubLLM) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return s.text, s.err
}

func (s *stubLLM) Close() error { return nil }

// memStore is an in-memory analytics.Store that also records saved snapshots.
type memStore struct {
	mu        sync.Mutex
	metrics   []types.TeamMetric
	risks     []types.TeamRiskScore
	events    []types.ActivityEvent
	saved     []*types.Snapshot
	saveError error
}

var _ analytics.Store = (*memStore)(nil)

func within[T any](records []T, keep func(T) bool) []T {
	return slices.DeleteFunc(slices.Clone(records), func(r T) bool { return !keep(r) })
}

func (m *memStore) ListActivities(_ context.Context, scope analytics.Scope) ([]types.ActivityEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return within(m.events, func(e types.ActivityEvent) bool {
		return !e.CreatedAt.Before(scope.Start) && !e.CreatedAt.After(scope.End)
	}), nil
}

func (m *memStore) ListTeamMetrics(_ context.Context, scope analytics.Scope) ([]types.TeamMetric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return within(m.metrics, func(r types.TeamMetric) bool { return r.TeamID == scope.TeamID }), nil
}

func (m *memStore) ListRiskScores(_ context.Context, scope analytics.Scope) ([]types.TeamRiskScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return within(m.risks, func(r types.TeamRiskScore) bool { return r.TeamID == scope.TeamID }), nil
}

func (m *memStore) ListDocuments(context.Context, analytics.Scope) ([]types.DocumentRecord, error) {
	return nil, nil
}

func (m *memStore) ListQueryLogs(context.Context, analytics.Scope) ([]types.QueryLog, error) {
	return nil, nil
}

func (m *memStore) CountUsers(context.Context) (int, error) { return 0, nil }

func (m *memStore) InsertActivity(_ context.Context, event *types.ActivityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *memStore) InsertQueryLog(context.Context, *types.QueryLog) error { return nil }

func (m *memStore) SaveSnapshot(_ context.Context, s *types.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.saved = append(m.saved, s)
	return nil
}
