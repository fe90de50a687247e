package server

import (
	"errors"
	"net/http"

	"github.com/camille/recipe-importer/internal/pipeline"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var notFound *pipeline.NotFoundError
	var conflict *pipeline.ConflictError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// pipelineError writes the response for an orchestrator error. Conflict
// responses carry the record's current status so the client can see what it
// lost the race to.
func (s *Server) pipelineError(w http.ResponseWriter, err error) {
	var conflict *pipeline.ConflictError
	if errors.As(err, &conflict) {
		s.jsonResponse(w, http.StatusConflict, map[string]string{
			"error":  err.Error(),
			"status": string(conflict.Status),
		})
		return
	}
	s.errorResponse(w, HTTPStatus(err), err.Error())
}
