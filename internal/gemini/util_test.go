package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json untouched", `{"title": "Toast"}`, `{"title": "Toast"}`},
		{"json fence", "```json\n{\"title\": \"Toast\"}\n```", `{"title": "Toast"}`},
		{"bare fence", "```\n{\"title\": \"Toast\"}\n```", `{"title": "Toast"}`},
		{"fence with language id", "```javascript\n{\"title\": \"Toast\"}\n```", `{"title": "Toast"}`},
		{"surrounding whitespace", "  \n```json\n{}\n```\n  ", "{}"},
		{"unterminated fence", "```json\n{\"title\": \"Toast\"}", `{"title": "Toast"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}
