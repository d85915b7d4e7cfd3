package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/coaching"
	"github.com/jonathan/atlas-maximus/internal/db"
	"github.com/jonathan/atlas-maximus/internal/ingestion"
	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/rs/zerolog/log"
)

// AnalyzeResponse is the body returned by POST /coaching/analyze.
type AnalyzeResponse struct {
	InsightID uuid.UUID             `json:"insight_id,omitzero"`
	Insight   types.CoachingInsight `json:"insight"`
}

// handleAnalyze runs the coaching analyzer over a team data bundle. With a
// team_id the insight and the bundle's sprint figures and documents are stored.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req types.AnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	hasTeam := req.TeamID != uuid.Nil
	if hasTeam {
		if err := s.requireMember(ctx, req.TeamID, userID); err != nil {
			serviceError(w, r, err)
			return
		}
	}

	insight := s.analyzer.Analyze(req.TeamData)
	if req.Narrative {
		insight.Narrative = s.narrate(ctx, insight)
	}

	resp := AnalyzeResponse{Insight: insight}
	var resource string
	if hasTeam {
		id, err := s.db.SaveAnalysis(ctx, s.analysisRecord(req.TeamID, userID, insight, req.TeamData))
		if err != nil {
			serviceError(w, r, err)
			return
		}
		resp.InsightID = id
		resource = id.String()
	}

	s.track(ctx, userID, types.TrackActivityRequest{
		Action:   "coaching_analyze",
		Resource: resource,
		TeamID:   req.TeamID,
		Metadata: map[string]any{
			"observations":     len(insight.Observations),
			"overall_maturity": insight.OverallMaturity,
		},
	})
	writeJSON(w, http.StatusOK, resp)
}

// narrate returns an LLM summary, or "" when narratives are unavailable.
// Failures never affect the insight.
func (s *Server) narrate(ctx context.Context, insight types.CoachingInsight) string {
	if s.narrator == nil {
		log.Debug().Msg("narrative requested but no LLM is configured")
		return ""
	}
	text, err := s.narrator.Narrate(ctx, insight)
	if err != nil {
		log.Warn().Err(err).Msg("coaching narrative failed")
		return ""
	}
	return text
}

// track records an activity event. Tracking failures are logged only.
func (s *Server) track(ctx context.Context, userID uuid.UUID, req types.TrackActivityRequest) {
	if _, err := s.engine.TrackActivity(ctx, userID, req); err != nil {
		log.Warn().Err(err).Str("action", req.Action).Msg("failed to track activity")
	}
}

// analysisRecord collects the insight with the per-sprint delivery figures
// and document metadata derived from the analyzed bundle.
func (s *Server) analysisRecord(teamID, userID uuid.UUID, insight types.CoachingInsight, data types.TeamData) *db.Analysis {
	metrics, risks := sprintRecords(teamID, coaching.SprintStats(data.JiraIssues), s.now())
	docs := make([]types.DocumentRecord, 0, len(data.Documents))
	for _, doc := range data.Documents {
		docs = append(docs, *ingestion.NewMetadata(doc).Record(userID, teamID))
	}
	return &db.Analysis{
		TeamID:    teamID,
		UserID:    userID,
		Insight:   insight,
		Metrics:   metrics,
		Risks:     risks,
		Documents: docs,
	}
}

// sprintRecords converts sprint stats into team metric and risk records.
// Completion is stored as a percentage and risk is the incomplete share.
// Timestamps are one second apart ending at now, so stored order follows
// sprint order.
func sprintRecords(teamID uuid.UUID, stats []coaching.SprintStat, now time.Time) ([]types.TeamMetric, []types.TeamRiskScore) {
	metrics := make([]types.TeamMetric, 0, len(stats))
	risks := make([]types.TeamRiskScore, 0, len(stats))
	start := now.UTC().Add(-time.Duration(len(stats)-1) * time.Second)
	for i, st := range stats {
		at := start.Add(time.Duration(i) * time.Second)
		completion := st.CompletionRate * 100
		metrics = append(metrics, types.TeamMetric{
			TeamID:         teamID,
			Sprint:         st.Sprint,
			Velocity:       st.Velocity,
			CompletionRate: completion,
			CreatedAt:      at,
		})
		risks = append(risks, types.TeamRiskScore{
			TeamID:    teamID,
			Sprint:    st.Sprint,
			RiskScore: 100 - completion,
			CreatedAt: at,
		})
	}
	return metrics, risks
}
