package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/camille/recipe-importer/internal/store"
	"github.com/camille/recipe-importer/internal/types"
)

// CreateImportRequest represents the request body for POST /imports
type CreateImportRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ImportResponse represents an import record in API responses
type ImportResponse struct {
	ID        string            `json:"id"`
	InputURL  string            `json:"input_url"`
	Status    string            `json:"status"`
	Stage     string            `json:"stage"`
	Progress  int               `json:"progress"`
	RecipeID  string            `json:"recipe_id,omitempty"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func importResponse(rec *types.ImportRecord) ImportResponse {
	resp := ImportResponse{
		ID:        rec.ID.String(),
		InputURL:  rec.InputURL,
		Status:    string(rec.Status),
		Stage:     string(rec.Stage),
		Progress:  rec.Progress,
		Error:     rec.Error,
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
	if rec.RecipeID != nil {
		resp.RecipeID = rec.RecipeID.String()
	}
	return resp
}

// handleCreateImport registers a new import and starts its pipeline in the
// background. The response returns immediately with the queued record; the
// client polls GET /imports/{id} for progress.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	var req CreateImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			if errs[0].Tag() == "required" {
				s.errorResponse(w, http.StatusBadRequest, "url is required")
				return
			}
			s.errorResponse(w, http.StatusBadRequest, "url must be a valid URL")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.db.CreateImport(r.Context(), req.URL, nil)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.orchestrator.Dispatch(rec.ID)

	s.jsonResponse(w, http.StatusAccepted, importResponse(rec))
}

// handleGetImport returns the current state of an import
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id", "import")
	if !ok {
		return
	}

	rec, err := s.db.GetImport(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if rec == nil {
		s.errorResponse(w, http.StatusNotFound, "Import not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, importResponse(rec))
}

// handleListImports returns imports, newest first. Supports ?status= and
// ?limit= query parameters.
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	filters := store.ImportFilters{}

	if status := r.URL.Query().Get("status"); status != "" {
		st := types.ImportStatus(status)
		if !st.Valid() {
			s.errorResponse(w, http.StatusBadRequest, "Invalid status filter: "+status)
			return
		}
		filters.Status = st
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filters.Limit = limit
	}

	recs, err := s.db.ListImports(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	resp := make([]ImportResponse, 0, len(recs))
	for i := range recs {
		resp = append(resp, importResponse(&recs[i]))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"imports": resp})
}

// handleCancelImport cancels an active import. With ?permanent=true the
// record itself is removed, cancelling first if it is still active.
func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id", "import")
	if !ok {
		return
	}

	if r.URL.Query().Get("permanent") == "true" {
		s.deleteImport(w, r, id)
		return
	}

	if err := s.orchestrator.Cancel(r.Context(), id); err != nil {
		s.pipelineError(w, err)
		return
	}

	rec, err := s.db.GetImport(r.Context(), id)
	if err != nil || rec == nil {
		// Cancellation applied; the follow-up read is best effort.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.jsonResponse(w, http.StatusOK, importResponse(rec))
}

func (s *Server) deleteImport(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	rec, err := s.db.GetImport(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if rec == nil {
		s.errorResponse(w, http.StatusNotFound, "Import not found")
		return
	}

	if !rec.Status.Terminal() {
		if err := s.orchestrator.Cancel(r.Context(), id); err != nil {
			s.pipelineError(w, err)
			return
		}
	}

	if err := s.db.DeleteImport(r.Context(), id); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathUUID parses a UUID path segment, writing the error response itself
// when the segment is missing or malformed.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, segment, noun string) (uuid.UUID, bool) {
	idStr := r.PathValue(segment)
	if idStr == "" {
		s.errorResponse(w, http.StatusBadRequest, noun+" ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid "+noun+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
