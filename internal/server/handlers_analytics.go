package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/analytics"
	"github.com/jonathan/atlas-maximus/internal/db"
	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/rs/zerolog/log"
)

// snapshotScope validates a snapshot request and checks team access.
func (s *Server) snapshotScope(w http.ResponseWriter, r *http.Request, userID uuid.UUID, req *types.SnapshotRequest) (analytics.Scope, bool) {
	if req.TeamID != uuid.Nil {
		if err := s.requireMember(r.Context(), req.TeamID, userID); err != nil {
			serviceError(w, r, err)
			return analytics.Scope{}, false
		}
	}
	return analytics.Scope{
		Start:  req.StartDate.UTC(),
		End:    req.EndDate.UTC(),
		TeamID: req.TeamID,
	}, true
}

// handleGenerateSnapshot generates and stores one snapshot.
func (s *Server) handleGenerateSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req types.SnapshotRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	scope, ok := s.snapshotScope(w, r, userID, &req)
	if !ok {
		return
	}

	ctx := r.Context()
	snapshot, err := s.engine.GenerateSnapshot(ctx, req.Type, scope)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if err := s.db.SaveSnapshot(ctx, snapshot); err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

// handleGenerateAllSnapshots generates and stores every snapshot type.
func (s *Server) handleGenerateAllSnapshots(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req types.SnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// The type is implied; validate the remaining fields.
	req.Type = types.SnapshotUserEngagement
	if err := s.validator.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	scope, ok := s.snapshotScope(w, r, userID, &req)
	if !ok {
		return
	}

	ctx := r.Context()
	start := time.Now()
	snapshots, err := s.engine.GenerateAll(ctx, scope)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	for _, snapshot := range snapshots {
		if err := s.db.SaveSnapshot(ctx, snapshot); err != nil {
			serviceError(w, r, err)
			return
		}
	}
	log.Debug().Int("count", len(snapshots)).Dur("duration", time.Since(start)).Msg("generated all snapshots")
	writeJSON(w, http.StatusCreated, map[string]any{"snapshots": snapshots, "count": len(snapshots)})
}

// handleListSnapshots lists stored snapshots, newest first. Listing a team's
// snapshots requires membership; without team_id only snapshots that have no
// team are listed.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filters := db.SnapshotFilters{Type: types.SnapshotType(q.Get("type")), NoTeam: true, Limit: limit}
	if raw := q.Get("team_id"); raw != "" {
		teamID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid team_id")
			return
		}
		if err := s.requireMember(r.Context(), teamID, userID); err != nil {
			serviceError(w, r, err)
			return
		}
		filters.TeamID = teamID
	}

	snapshots, err := s.db.ListSnapshots(r.Context(), filters)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots, "count": len(snapshots)})
}

// handleTrackActivity records an activity event for the caller.
func (s *Server) handleTrackActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req types.TrackActivityRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	if req.TeamID != uuid.Nil {
		if err := s.requireMember(r.Context(), req.TeamID, userID); err != nil {
			serviceError(w, r, err)
			return
		}
	}

	event, err := s.engine.TrackActivity(r.Context(), userID, req)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// handleTrackQuery records an assistant query for the caller.
func (s *Server) handleTrackQuery(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req types.TrackQueryRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	if req.TeamID != uuid.Nil {
		if err := s.requireMember(r.Context(), req.TeamID, userID); err != nil {
			serviceError(w, r, err)
			return
		}
	}

	entry, err := s.engine.TrackQuery(r.Context(), userID, req)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
