package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereBuilder_Empty(t *testing.T) {
	w := &whereBuilder{}
	assert.Equal(t, "", w.sql())
	assert.Empty(t, w.args)
}

func TestWhereBuilder_NumbersPlaceholders(t *testing.T) {
	w := &whereBuilder{}
	w.add("type = $%d", "risk_trends")
	w.add("team_id = $%d", "t1")

	assert.Equal(t, " WHERE type = $1 AND team_id = $2", w.sql())
	assert.Equal(t, []any{"risk_trends", "t1"}, w.args)
}

func TestWindowFilter(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	user := uuid.New()
	team := uuid.New()

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		userCol  string
		user     uuid.UUID
		teamCol  string
		team     uuid.UUID
		wantSQL  string
		wantArgs int
	}{
		{
			name:     "no filters",
			wantSQL:  "",
			wantArgs: 0,
		},
		{
			name:     "window only",
			start:    start,
			end:      end,
			userCol:  "user_id",
			teamCol:  "team_id",
			wantSQL:  " WHERE created_at >= $1 AND created_at <= $2",
			wantArgs: 2,
		},
		{
			name:     "window with owner",
			start:    start,
			end:      end,
			userCol:  "user_id",
			user:     user,
			teamCol:  "team_id",
			team:     team,
			wantSQL:  " WHERE created_at >= $1 AND created_at <= $2 AND user_id = $3 AND team_id = $4",
			wantArgs: 4,
		},
		{
			name:     "user column skipped",
			end:      end,
			user:     user,
			teamCol:  "team_id",
			team:     team,
			wantSQL:  " WHERE created_at <= $1 AND team_id = $2",
			wantArgs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := windowFilter(tt.start, tt.end, tt.userCol, tt.user, tt.teamCol, tt.team)
			assert.Equal(t, tt.wantSQL, w.sql())
			assert.Len(t, w.args, tt.wantArgs)
		})
	}
}

func TestNullableHelpers(t *testing.T) {
	assert.Nil(t, nullableUUID(uuid.Nil))
	id := uuid.New()
	p := nullableUUID(id)
	require.NotNil(t, p)
	assert.Equal(t, id, *p)

	assert.Equal(t, uuid.Nil, fromNullableUUID(nil))
	assert.Equal(t, id, fromNullableUUID(&id))

	assert.Nil(t, nullableTime(time.Time{}))
	now := time.Now()
	require.NotNil(t, nullableTime(now))
	assert.True(t, now.Equal(*nullableTime(now)))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "coach@example.com", NormalizeEmail("  Coach@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestMigrationsEmbedded(t *testing.T) {
	raw, err := migrationFiles.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)

	schema := string(raw)
	for _, table := range []string{
		"users", "teams", "team_members", "activity_events", "query_logs",
		"team_metrics", "team_risk_scores", "documents", "analytics_snapshots", "coaching_insights",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}
