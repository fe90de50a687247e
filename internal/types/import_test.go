package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImportStatus_Terminal(t *testing.T) {
	assert.True(t, StatusReady.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusExtracting.Terminal())
}

func TestImportStatus_Before(t *testing.T) {
	tests := []struct {
		name  string
		a, b  ImportStatus
		wantB bool
	}{
		{"queued before scraping", StatusQueued, StatusScraping, true},
		{"scraping before ready", StatusScraping, StatusReady, true},
		{"not before itself", StatusExtracting, StatusExtracting, false},
		{"later not before earlier", StatusReady, StatusQueued, false},
		{"failed never before", StatusFailed, StatusReady, false},
		{"nothing before failed", StatusQueued, StatusFailed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantB, tt.a.Before(tt.b))
		})
	}
}

func TestImportStatus_Valid(t *testing.T) {
	assert.True(t, StatusQueued.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, ImportStatus("cooking").Valid())
}

func TestImportRecord_Cancelled(t *testing.T) {
	rec := &ImportRecord{Status: StatusFailed, Error: CancelledMessage}
	assert.True(t, rec.Cancelled())

	rec = &ImportRecord{Status: StatusFailed, Error: "HTTP status 404"}
	assert.False(t, rec.Cancelled())

	rec = &ImportRecord{Status: StatusExtracting, Error: CancelledMessage}
	assert.False(t, rec.Cancelled())
}
