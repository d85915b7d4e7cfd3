package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserRequest_Validate(t *testing.T) {
	valid := func() CreateUserRequest {
		return CreateUserRequest{Name: "Priya Raman", Email: "priya@example.com", Password: "sprint-goal-1"}
	}

	tests := []struct {
		name    string
		mutate  func(*CreateUserRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(*CreateUserRequest) {}},
		{name: "valid with role", mutate: func(r *CreateUserRequest) { r.Role = "scrum_master" }},
		{name: "missing name", mutate: func(r *CreateUserRequest) { r.Name = "" }, wantErr: "required"},
		{name: "bad email", mutate: func(r *CreateUserRequest) { r.Email = "priya" }, wantErr: "email"},
		{name: "short password", mutate: func(r *CreateUserRequest) { r.Password = "short" }, wantErr: "min"},
		{name: "password over bcrypt limit", mutate: func(r *CreateUserRequest) { r.Password = strings.Repeat("x", 73) }, wantErr: "max"},
		{name: "unknown role", mutate: func(r *CreateUserRequest) { r.Role = "owner" }, wantErr: "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, (&LoginRequest{Email: "a@example.com", Password: "x"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "a@example.com"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "nope", Password: "x"}).Validate())
}

func TestUpdatePasswordRequest_Validate(t *testing.T) {
	assert.NoError(t, (&UpdatePasswordRequest{CurrentPassword: "old", NewPassword: "longenough"}).Validate())
	assert.Error(t, (&UpdatePasswordRequest{CurrentPassword: "old", NewPassword: "short"}).Validate())
}

func TestCreateTeamRequest_Validate(t *testing.T) {
	assert.NoError(t, (&CreateTeamRequest{Name: "Payments"}).Validate())
	assert.Error(t, (&CreateTeamRequest{}).Validate())
	assert.Error(t, (&CreateTeamRequest{Name: strings.Repeat("t", 121)}).Validate())
}

func TestSnapshotRequest_Validate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)

	tests := []struct {
		name    string
		req     SnapshotRequest
		wantErr bool
	}{
		{name: "valid", req: SnapshotRequest{Type: SnapshotVelocityTrends, StartDate: start, EndDate: end}},
		{name: "missing type", req: SnapshotRequest{StartDate: start, EndDate: end}, wantErr: true},
		{name: "missing start", req: SnapshotRequest{Type: SnapshotRiskTrends, EndDate: end}, wantErr: true},
		{name: "end before start", req: SnapshotRequest{Type: SnapshotRiskTrends, StartDate: end, EndDate: start}, wantErr: true},
		{name: "unknown type is allowed", req: SnapshotRequest{Type: "overview", StartDate: start, EndDate: end}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrackRequests_Validate(t *testing.T) {
	assert.NoError(t, (&TrackActivityRequest{Action: "upload_document"}).Validate())
	assert.Error(t, (&TrackActivityRequest{}).Validate())
	assert.Error(t, (&TrackActivityRequest{Action: strings.Repeat("a", 101)}).Validate())

	assert.NoError(t, (&TrackQueryRequest{Query: "what is WIP?", ResponseTimeMs: 120}).Validate())
	assert.Error(t, (&TrackQueryRequest{ResponseTimeMs: 120}).Validate())
	assert.Error(t, (&TrackQueryRequest{Query: "q", ResponseTimeMs: -1}).Validate())
}

func TestSnapshot_JSONOmitsEmptyScope(t *testing.T) {
	snap := Snapshot{Type: SnapshotUserEngagement, Metrics: map[string]any{}}

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "team_id")
	assert.NotContains(t, string(raw), "user_id")

	snap.TeamID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	raw, err = json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"team_id":"11111111-1111-1111-1111-111111111111"`)
}

func TestAnalyzeRequest_DecodesEmbeddedTeamData(t *testing.T) {
	body := `{
		"team_id": "22222222-2222-2222-2222-222222222222",
		"narrative": true,
		"jira_issues": [{"key": "ATL-1", "issue_type": "Story", "story_points": 3, "status": "Done", "sprint": "Sprint 1"}],
		"documents": [{"original_name": "retro.md", "extracted_text": "What went well"}]
	}`

	var req AnalyzeRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.True(t, req.Narrative)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", req.TeamID.String())
	require.Len(t, req.JiraIssues, 1)
	assert.Equal(t, 3.0, req.JiraIssues[0].Points())
	require.Len(t, req.Documents, 1)
	assert.Equal(t, "retro.md", req.Documents[0].OriginalName)
}

func TestJiraIssue_Points(t *testing.T) {
	assert.Zero(t, JiraIssue{}.Points())
	v := 5.0
	assert.Equal(t, 5.0, JiraIssue{StoryPoints: &v}.Points())
}
