package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotBody(snapshotType types.SnapshotType, teamID uuid.UUID) map[string]any {
	return map[string]any{
		"type":       snapshotType,
		"start_date": testNow.AddDate(0, -1, 0),
		"end_date":   testNow.Add(time.Hour),
		"team_id":    teamID,
	}
}

func seedSprints(t *testing.T, store *fakeDB, teamID uuid.UUID, velocities ...float64) {
	t.Helper()
	metrics := make([]types.TeamMetric, 0, len(velocities))
	for i, v := range velocities {
		metrics = append(metrics, types.TeamMetric{
			TeamID:         teamID,
			Sprint:         fmt.Sprintf("S%d", i+1),
			Velocity:       v,
			CompletionRate: 80,
			CreatedAt:      testNow.Add(time.Duration(i-len(velocities)) * time.Hour),
		})
	}
	store.seedMetrics(metrics)
}

func TestGenerateSnapshot(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Handler()
	user := register(t, h, "Ada", "ada@example.com")
	team := createTeam(t, h, user.Token, "Platform")
	seedSprints(t, store, team.ID, 10, 12, 14)

	w := do(t, h, http.MethodPost, "/analytics/snapshots", user.Token, snapshotBody(types.SnapshotVelocityTrends, team.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	snapshot := decodeBody[types.Snapshot](t, w)
	assert.Equal(t, types.SnapshotVelocityTrends, snapshot.Type)
	assert.Equal(t, team.ID, snapshot.TeamID)
	assert.Len(t, snapshot.Trends, 3)
	require.Len(t, snapshot.Predictions, 1)
	assert.Equal(t, types.TrendUp, snapshot.Predictions[0].Trend)
	require.Len(t, store.snapshots, 1)
	assert.Equal(t, snapshot.ID, store.snapshots[0].ID)
}

func TestGenerateSnapshot_TeamTypeWithoutTeam(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	user := register(t, h, "Ada", "ada@example.com")

	w := do(t, h, http.MethodPost, "/analytics/snapshots", user.Token, snapshotBody(types.SnapshotRiskTrends, uuid.Nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	snapshot := decodeBody[types.Snapshot](t, w)
	assert.Empty(t, snapshot.Metrics)
	assert.Empty(t, snapshot.Predictions)
}

func TestGenerateSnapshot_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	user := register(t, h, "Ada", "ada@example.com")

	reversed := snapshotBody(types.SnapshotUserEngagement, uuid.Nil)
	reversed["start_date"], reversed["end_date"] = reversed["end_date"], reversed["start_date"]

	for name, body := range map[string]any{
		"missing type":  map[string]any{"start_date": testNow.Add(-time.Hour), "end_date": testNow},
		"missing dates": map[string]any{"type": "user_engagement"},
		"reversed":      reversed,
		"bad json":      "{",
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/analytics/snapshots", user.Token, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGenerateSnapshot_Forbidden(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	owner := register(t, h, "Owner", "owner@example.com")
	outsider := register(t, h, "Outsider", "outsider@example.com")
	team := createTeam(t, h, owner.Token, "Platform")

	w := do(t, h, http.MethodPost, "/analytics/snapshots", outsider.Token, snapshotBody(types.SnapshotTeamPerformance, team.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGenerateSnapshot_StoreError(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Handler()
	user := register(t, h, "Ada", "ada@example.com")
	team := createTeam(t, h, user.Token, "Platform")
	store.failOn["ListTeamMetrics"] = errors.New("db down")

	w := do(t, h, http.MethodPost, "/analytics/snapshots", user.Token, snapshotBody(types.SnapshotTeamPerformance, team.ID))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, store.snapshots)
}

func TestGenerateAllSnapshots(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Handler()
	user := register(t, h, "Ada", "ada@example.com")
	team := createTeam(t, h, user.Token, "Platform")
	seedSprints(t, store, team.ID, 10, 12, 14)

	body := snapshotBody("", team.ID)
	delete(body, "type")
	w := do(t, h, http.MethodPost, "/analytics/snapshots/all", user.Token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeBody[struct {
		Snapshots []types.Snapshot `json:"snapshots"`
		Count     int              `json:"count"`
	}](t, w)
	require.Equal(t, len(types.AllSnapshotTypes), resp.Count)
	for i, snapshotType := range types.AllSnapshotTypes {
		assert.Equal(t, snapshotType, resp.Snapshots[i].Type)
	}
	assert.Len(t, store.snapshots, len(types.AllSnapshotTypes))
}

func TestListSnapshots(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Handler()
	user := register(t, h, "Ada", "ada@example.com")
	outsider := register(t, h, "Outsider", "outsider@example.com")
	team := createTeam(t, h, user.Token, "Platform")

	for _, body := range []map[string]any{
		snapshotBody(types.SnapshotVelocityTrends, team.ID),
		snapshotBody(types.SnapshotRiskTrends, team.ID),
		snapshotBody(types.SnapshotQueryPatterns, uuid.Nil),
	} {
		w := do(t, h, http.MethodPost, "/analytics/snapshots", user.Token, body)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	require.Len(t, store.snapshots, 3)

	type listResponse struct {
		Snapshots []types.Snapshot `json:"snapshots"`
		Count     int              `json:"count"`
	}

	w := do(t, h, http.MethodGet, "/analytics/snapshots?team_id="+team.ID.String(), user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeBody[listResponse](t, w).Count)

	w = do(t, h, http.MethodGet, "/analytics/snapshots?team_id="+team.ID.String()+"&type=risk_trends", user.Token, nil)
	list := decodeBody[listResponse](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, types.SnapshotRiskTrends, list.Snapshots[0].Type)

	w = do(t, h, http.MethodGet, "/analytics/snapshots", outsider.Token, nil)
	list = decodeBody[listResponse](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, types.SnapshotQueryPatterns, list.Snapshots[0].Type)

	w = do(t, h, http.MethodGet, "/analytics/snapshots?team_id="+team.ID.String(), outsider.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodGet, "/analytics/snapshots?team_id=nope", user.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackActivity(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Handler()
	user := register(t, h, "Ada", "ada@example.com")

	w := do(t, h, http.MethodPost, "/analytics/activity", user.Token, map[string]any{
		"action": " document_upload ", "resource": "retro.md", "metadata": map[string]any{"size": 42},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	event := decodeBody[types.ActivityEvent](t, w)
	assert.Equal(t, user.User.ID, event.UserID)
	assert.Equal(t, "document_upload", event.Action)
	assert.Equal(t, testNow, event.CreatedAt)
	require.Len(t, store.activities, 1)

	w = do(t, h, http.MethodPost, "/analytics/activity", user.Token, map[string]any{"resource": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/analytics/activity", user.Token, map[string]any{"action": "x", "team_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrackQuery(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Handler()
	user := register(t, h, "Ada", "ada@example.com")

	w := do(t, h, http.MethodPost, "/analytics/queries", user.Token, map[string]any{
		"query": "How do I run a retro?", "response_time_ms": 250,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decodeBody[types.QueryLog](t, w)
	assert.Equal(t, "How do I run a retro?", entry.Query)
	assert.Equal(t, int64(250), entry.ResponseTimeMs)
	require.Len(t, store.queries, 1)

	w = do(t, h, http.MethodPost, "/analytics/queries", user.Token, map[string]any{"query": "x", "response_time_ms": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
