package server

import (
	"net/http"
	"time"

	"github.com/camille/recipe-importer/internal/types"
)

// RecipeResponse represents a stored recipe in API responses
type RecipeResponse struct {
	ID        string            `json:"id"`
	CreatedAt string            `json:"created_at"`
	Recipe    *types.RecipeData `json:"recipe"`
}

// handleGetRecipe returns a persisted recipe document
func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id", "recipe")
	if !ok {
		return
	}

	stored, err := s.db.GetRecipe(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if stored == nil {
		s.errorResponse(w, http.StatusNotFound, "Recipe not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, RecipeResponse{
		ID:        stored.ID.String(),
		CreatedAt: stored.CreatedAt.Format(time.RFC3339),
		Recipe:    stored.Data,
	})
}
