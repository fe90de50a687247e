package recipe

import (
	"fmt"
	"strings"
)

// Severity grades a validation issue. Only error-severity issues make a
// recipe invalid; warnings record auto-repairs and soft concerns.
type Severity string

const (
	// SeverityWarning marks a repaired or tolerated problem.
	SeverityWarning Severity = "warning"
	// SeverityError marks a problem that invalidates the recipe.
	SeverityError Severity = "error"
)

// Issue is a single validation finding at a dotted field path.
type Issue struct {
	Path     string   `json:"path"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// issueList collects issues during a validation pass.
type issueList []Issue

func (l *issueList) warn(path, format string, args ...any) {
	*l = append(*l, Issue{Path: path, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

func (l *issueList) fail(path, format string, args ...any) {
	*l = append(*l, Issue{Path: path, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// ErrorMessages returns the messages of all error-severity issues.
func ErrorMessages(issues []Issue) []string {
	var msgs []string
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			msgs = append(msgs, issue.String())
		}
	}
	return msgs
}

// JoinIssues renders issues as a single human-readable message, as written
// onto a failed import record.
func JoinIssues(issues []Issue) string {
	msgs := ErrorMessages(issues)
	if len(msgs) == 0 {
		for _, issue := range issues {
			msgs = append(msgs, issue.String())
		}
	}
	return strings.Join(msgs, "; ")
}
