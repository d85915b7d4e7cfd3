package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/db"
	"github.com/jonathan/atlas-maximus/internal/fetch"
	"github.com/jonathan/atlas-maximus/internal/ingestion"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// FetchDocumentRequest asks the server to fetch a shared document by URL.
type FetchDocumentRequest struct {
	URL    string    `json:"url" validate:"required,url"`
	TeamID uuid.UUID `json:"team_id,omitzero"`
}

// FetchDocumentResponse returns the stored record and the extracted document,
// ready to be included in an analyze request.
type FetchDocumentResponse struct {
	ID       uuid.UUID          `json:"id"`
	Platform fetch.Platform     `json:"platform"`
	Rendered bool               `json:"rendered"`
	Metadata ingestion.Metadata `json:"metadata"`
	Document types.Document     `json:"document"`
}

// documentName derives a display name from a URL path.
func documentName(rawURL string) string {
	name := strings.TrimRight(rawURL, "/")
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}
	return name
}

// handleFetchDocument fetches a URL, extracts its text and records it.
func (s *Server) handleFetchDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req FetchDocumentRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	ctx := r.Context()
	if req.TeamID != uuid.Nil {
		if err := s.requireMember(ctx, req.TeamID, userID); err != nil {
			serviceError(w, r, err)
			return
		}
	}

	result, err := fetch.Document(ctx, req.URL, s.fetchOpts)
	if err != nil {
		var fetchErr *fetch.Error
		if errors.As(err, &fetchErr) {
			writeError(w, http.StatusBadGateway, fetchErr.Error())
			return
		}
		serviceError(w, r, err)
		return
	}

	doc := types.Document{
		OriginalName:  documentName(req.URL),
		ExtractedText: result.Text,
		UploadedAt:    s.now().UTC(),
	}
	meta := ingestion.NewMetadata(doc)
	id, err := s.db.InsertDocument(ctx, meta.Record(userID, req.TeamID))
	if err != nil {
		serviceError(w, r, err)
		return
	}

	s.track(ctx, userID, types.TrackActivityRequest{
		Action:   "document_fetch",
		Resource: id.String(),
		TeamID:   req.TeamID,
		Metadata: map[string]any{"platform": string(result.Platform), "rendered": result.Rendered},
	})
	writeJSON(w, http.StatusCreated, FetchDocumentResponse{
		ID:       id,
		Platform: result.Platform,
		Rendered: result.Rendered,
		Metadata: meta,
		Document: doc,
	})
}

// handleDocumentView counts a view of a stored document.
func (s *Server) handleDocumentView(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	docID, ok := pathUUID(w, r, "document_id")
	if !ok {
		return
	}

	if err := s.db.IncrementDocumentViews(r.Context(), docID); err != nil {
		if errors.Is(err, db.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		serviceError(w, r, err)
		return
	}
	s.track(r.Context(), userID, types.TrackActivityRequest{Action: "document_view", Resource: docID.String()})
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{"document_id": docID, "viewed_at": s.now().UTC().Format(time.RFC3339)})
}
