package gemini

import (
	"fmt"
	"time"
)

// MissingCredentialError indicates no API key was configured. It is raised
// before any network call is made.
type MissingCredentialError struct{}

func (e *MissingCredentialError) Error() string {
	return "gemini API key is not configured"
}

// ProcessingError indicates the remote file service reported a terminal
// failure while processing an uploaded file.
type ProcessingError struct {
	FileName string
	Message  string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("gemini file %s processing failed: %s", e.FileName, e.Message)
}

// PollTimeoutError indicates a file never became active within the
// configured polling bound.
type PollTimeoutError struct {
	FileName string
	Timeout  time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for gemini file %s to become active", e.Timeout, e.FileName)
}

// APICallError represents a failed call to the Gemini API (upload or
// generation).
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gemini API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("gemini API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}
