package extraction

import (
	"fmt"

	"github.com/camille/recipe-importer/internal/recipe"
)

// InvalidJSONError indicates the generation response could not be parsed as
// JSON.
type InvalidJSONError struct {
	Cause error
}

func (e *InvalidJSONError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction returned invalid JSON: %v", e.Cause)
	}
	return "extraction returned invalid JSON"
}

func (e *InvalidJSONError) Unwrap() error {
	return e.Cause
}

// AmbiguousResultError indicates the response contained more than one recipe
// candidate. The client refuses to silently pick one.
type AmbiguousResultError struct {
	Candidates int
}

func (e *AmbiguousResultError) Error() string {
	return fmt.Sprintf("ambiguous extraction result: %d recipe candidates in one response", e.Candidates)
}

// ValidationFailedError indicates the extracted structure did not pass the
// recipe validator. The itemized issues are attached.
type ValidationFailedError struct {
	Issues []recipe.Issue
}

func (e *ValidationFailedError) Error() string {
	return "recipe validation failed: " + recipe.JoinIssues(e.Issues)
}
