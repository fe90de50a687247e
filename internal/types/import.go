package types

import (
	"time"

	"github.com/google/uuid"
)

// ImportStatus is the pipeline position of an import. The happy path moves
// strictly forward through the ordered statuses; failed is reachable from
// any non-terminal status.
type ImportStatus string

const (
	// StatusQueued means the import was accepted but processing has not started.
	StatusQueued ImportStatus = "queued"
	// StatusScraping means post metadata is being fetched from the source.
	StatusScraping ImportStatus = "scraping"
	// StatusDownloadingMedia means media assets are being downloaded.
	StatusDownloadingMedia ImportStatus = "downloading_media"
	// StatusUploadingMedia means assets are being uploaded to the AI file service.
	StatusUploadingMedia ImportStatus = "uploading_media"
	// StatusExtracting means the recipe is being extracted and validated.
	StatusExtracting ImportStatus = "extracting"
	// StatusReady is the terminal success status.
	StatusReady ImportStatus = "ready"
	// StatusFailed is the terminal failure status. Cancellation is a failed
	// status with a distinguishable message, not a separate status.
	StatusFailed ImportStatus = "failed"
)

// CancelledMessage is the error message written when a user cancels an
// import. Callers distinguish cancellation from other failures by it.
const CancelledMessage = "cancelled by user"

// statusOrder positions each status on the happy path. failed is not on the
// path and compares as unreachable-forward.
var statusOrder = map[ImportStatus]int{
	StatusQueued:           0,
	StatusScraping:         1,
	StatusDownloadingMedia: 2,
	StatusUploadingMedia:   3,
	StatusExtracting:       4,
	StatusReady:            5,
}

// Terminal reports whether the status permits no further transitions.
func (s ImportStatus) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// Active reports whether an import in this status may still be cancelled.
func (s ImportStatus) Active() bool {
	return !s.Terminal()
}

// Before reports whether s comes strictly earlier on the happy path than
// other. A failed record is never before anything.
func (s ImportStatus) Before(other ImportStatus) bool {
	a, okA := statusOrder[s]
	b, okB := statusOrder[other]
	return okA && okB && a < b
}

// Valid reports whether s is a known status value.
func (s ImportStatus) Valid() bool {
	if s == StatusFailed {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// ImportRecord is the persisted state document for one import. It is owned
// exclusively by the orchestrator; everything else only reads it or requests
// cancellation/deletion.
type ImportRecord struct {
	ID        uuid.UUID         `json:"id"`
	InputURL  string            `json:"input_url"`
	Status    ImportStatus      `json:"status"`
	Stage     ImportStatus      `json:"stage"`
	Progress  int               `json:"progress"`
	RecipeID  *uuid.UUID        `json:"recipe_id,omitempty"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Cancelled reports whether the record failed due to user cancellation.
func (r *ImportRecord) Cancelled() bool {
	return r.Status == StatusFailed && r.Error == CancelledMessage
}
