package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/server/middleware"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// maxListLimit caps ?limit= on list endpoints.
const maxListLimit = 100

// callerID returns the authenticated user or writes a 401.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.UserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a UUID path value or writes a 400.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryLimit parses ?limit=, returning 0 when absent.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return min(limit, maxListLimit), true
}

// requireMember checks that the team exists and userID belongs to it.
func (s *Server) requireMember(ctx context.Context, teamID, userID uuid.UUID) error {
	team, err := s.db.GetTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return &ErrTeamNotFound{TeamID: teamID}
	}
	ok, err := s.db.IsTeamMember(ctx, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to check team membership: %w", err)
	}
	if !ok {
		return &ErrForbidden{TeamID: teamID}
	}
	return nil
}

// handleCreateTeam creates a team with the caller as its first member.
func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req types.CreateTeamRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}

	team, err := s.db.CreateTeam(r.Context(), req.Name, userID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

// handleListTeams lists the caller's teams.
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	teams, err := s.db.ListUserTeams(r.Context(), userID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams, "count": len(teams)})
}

// handleAddMember adds a registered user to a team the caller belongs to.
func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	teamID, ok := pathUUID(w, r, "team_id")
	if !ok {
		return
	}
	var req types.AddTeamMemberRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}

	ctx := r.Context()
	if err := s.requireMember(ctx, teamID, userID); err != nil {
		serviceError(w, r, err)
		return
	}
	member, err := s.userService.Lookup(ctx, req.Email)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if err := s.db.AddTeamMember(ctx, teamID, member.ID); err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"team_id": teamID, "user": member})
}

// handleListInsights lists a team's stored coaching insights, newest first.
func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	teamID, ok := pathUUID(w, r, "team_id")
	if !ok {
		return
	}
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	if err := s.requireMember(r.Context(), teamID, userID); err != nil {
		serviceError(w, r, err)
		return
	}
	insights, err := s.db.ListInsights(r.Context(), teamID, limit)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights, "count": len(insights)})
}
