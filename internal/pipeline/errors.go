package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/camille/recipe-importer/internal/types"
)

// NotFoundError indicates no import record exists for the id.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("import not found: %s", e.ID)
}

// ConflictError indicates a cancellation was rejected because the import is
// no longer active. Status carries the record's current status for the
// caller's conflict response.
type ConflictError struct {
	ID     uuid.UUID
	Status types.ImportStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("import %s cannot be cancelled in status %q", e.ID, e.Status)
}
