//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/analytics"
	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL and applies migrations.
// Skipped if the variable is unset or the connection fails.
func setupTestDB(t *testing.T) *DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(db.Close)
	return db
}

func createTestUser(t *testing.T, db *DB) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id, err := db.CreateUser(ctx, "Test Coach", "coach-"+uuid.NewString()+"@example.com", "coach", "hash")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.DeleteUser(context.Background(), id) })
	return id
}

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	email := "Mixed-" + uuid.NewString() + "@Example.com"
	id, err := db.CreateUser(ctx, "  Test User ", email, "", "hash-1")
	require.NoError(t, err)

	u, err := db.GetUser(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Test User", u.Name)
	assert.Equal(t, NormalizeEmail(email), u.Email)
	assert.Equal(t, DefaultRole, u.Role)

	byEmail, err := db.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, id, byEmail.ID)

	exists, err := db.CheckEmailExists(ctx, email)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, db.UpdatePassword(ctx, id, "hash-2"))
	u, err = db.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", u.PasswordHash)

	require.NoError(t, db.DeleteUser(ctx, id))
	u, err = db.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Error(t, db.DeleteUser(ctx, id))
}

func TestTeamMembership(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db)
	other := createTestUser(t, db)

	team, err := db.CreateTeam(ctx, "Platform", owner)
	require.NoError(t, err)

	member, err := db.IsTeamMember(ctx, team.ID, owner)
	require.NoError(t, err)
	assert.True(t, member)

	member, err = db.IsTeamMember(ctx, team.ID, other)
	require.NoError(t, err)
	assert.False(t, member)

	require.NoError(t, db.AddTeamMember(ctx, team.ID, other))
	require.NoError(t, db.AddTeamMember(ctx, team.ID, other))

	teams, err := db.ListUserTeams(ctx, other)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Platform", teams[0].Name)

	got, err := db.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.CreatedBy)
}

func TestAnalyticsStore_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)
	team, err := db.CreateTeam(ctx, "Analytics", user)
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Second)
	_, err = db.SaveAnalysis(ctx, &Analysis{TeamID: team.ID, UserID: user, Metrics: []types.TeamMetric{
		{TeamID: team.ID, Sprint: "Sprint 1", Velocity: 20, CompletionRate: 0.8, CreatedAt: base},
		{TeamID: team.ID, Sprint: "Sprint 2", Velocity: 22, CompletionRate: 0.9, CreatedAt: base.Add(time.Second)},
	}})
	require.NoError(t, err)
	_, err = db.SaveAnalysis(ctx, &Analysis{TeamID: team.ID, UserID: user, Metrics: []types.TeamMetric{
		{TeamID: team.ID, Sprint: "Sprint 2", Velocity: 25, CompletionRate: 1, CreatedAt: base.Add(time.Second)},
	}})
	require.NoError(t, err)

	scope := analytics.Scope{Start: base.Add(-time.Hour), End: base.Add(time.Hour), TeamID: team.ID}
	metrics, err := db.ListTeamMetrics(ctx, scope)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, "Sprint 1", metrics[0].Sprint)
	assert.InDelta(t, 25.0, metrics[1].Velocity, 0.001)

	ev := &types.ActivityEvent{
		ID: uuid.New(), UserID: user, TeamID: team.ID, Action: "login",
		Metadata: map[string]any{"source": "web"}, CreatedAt: base,
	}
	require.NoError(t, db.InsertActivity(ctx, ev))
	events, err := db.ListActivities(ctx, analytics.Scope{Start: scope.Start, End: scope.End, UserID: user})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "web", events[0].Metadata["source"])

	docID, err := db.InsertDocument(ctx, &types.DocumentRecord{UserID: user, TeamID: team.ID, Name: "retro.md", FileType: "md"})
	require.NoError(t, err)
	require.NoError(t, db.IncrementDocumentViews(ctx, docID))
	assert.ErrorIs(t, db.IncrementDocumentViews(ctx, uuid.New()), ErrDocumentNotFound)
	docs, err := db.ListDocuments(ctx, analytics.Scope{TeamID: team.ID})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, docs[0].ViewCount)
}

func TestSnapshotsAndInsights(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)
	team, err := db.CreateTeam(ctx, "Snapshots", user)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	snap := &types.Snapshot{
		ID:          uuid.New(),
		Type:        types.SnapshotVelocityTrends,
		PeriodStart: now.Add(-24 * time.Hour),
		PeriodEnd:   now,
		TeamID:      team.ID,
		Metrics:     map[string]any{"sprint_count": 3},
		Trends:      []types.TrendPoint{},
		Predictions: []types.Prediction{},
		CreatedAt:   now,
	}
	require.NoError(t, db.SaveSnapshot(ctx, snap))
	require.NoError(t, db.SaveSnapshot(ctx, snap))

	list, err := db.ListSnapshots(ctx, SnapshotFilters{TeamID: team.ID, Type: types.SnapshotVelocityTrends})
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, uuid.Nil, got.UserID)
	assert.InDelta(t, 3.0, got.Metrics["sprint_count"], 0.001)

	insight := types.CoachingInsight{OverallMaturity: types.MaturityNorming, FocusAreas: []string{"Risk Management"}}
	_, err = db.SaveAnalysis(ctx, &Analysis{TeamID: team.ID, UserID: user, Insight: insight})
	require.NoError(t, err)
	stored, err := db.ListInsights(ctx, team.ID, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, types.MaturityNorming, stored[0].Insight.OverallMaturity)
}

func TestSaveAnalysis_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)
	team, err := db.CreateTeam(ctx, "Rollback", user)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	_, err = db.SaveAnalysis(ctx, &Analysis{
		TeamID:  team.ID,
		UserID:  user,
		Insight: types.CoachingInsight{OverallMaturity: types.MaturityForming},
		Metrics: []types.TeamMetric{{TeamID: team.ID, Sprint: "Sprint 1", Velocity: 10, CompletionRate: 50, CreatedAt: now}},
		Risks:   []types.TeamRiskScore{{TeamID: team.ID, Sprint: "Sprint 1", RiskScore: 50, CreatedAt: now}},
		// Unknown user violates the documents foreign key.
		Documents: []types.DocumentRecord{{UserID: uuid.New(), TeamID: team.ID, Name: "retro.md", FileType: "md"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retro.md")

	stored, err := db.ListInsights(ctx, team.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, stored)

	scope := analytics.Scope{TeamID: team.ID}
	metrics, err := db.ListTeamMetrics(ctx, scope)
	require.NoError(t, err)
	assert.Empty(t, metrics)
	risks, err := db.ListRiskScores(ctx, scope)
	require.NoError(t, err)
	assert.Empty(t, risks)
}
