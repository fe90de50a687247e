package media

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultSweepMaxAge is how long a temp file may sit before the sweeper
// considers it orphaned. Normal imports delete their files within minutes;
// anything older was left by a crashed or interrupted run.
const DefaultSweepMaxAge = 2 * time.Hour

// Sweeper periodically removes orphaned files from the media temp directory
// so crashed imports cannot grow local disk usage without bound.
type Sweeper struct {
	dir       string
	maxAge    time.Duration
	scheduler *gocron.Scheduler
}

// NewSweeper creates a sweeper for dir. A non-positive maxAge uses
// DefaultSweepMaxAge.
func NewSweeper(dir string, maxAge time.Duration) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultSweepMaxAge
	}
	return &Sweeper{dir: dir, maxAge: maxAge}
}

// Start begins sweeping at the given interval in a background scheduler.
func (s *Sweeper) Start(interval time.Duration) error {
	s.scheduler = gocron.NewScheduler(time.UTC)
	if _, err := s.scheduler.Every(interval).Do(s.Sweep); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop halts the background scheduler.
func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Sweep removes files older than the configured age and returns how many
// were deleted. It is safe to call directly (the server runs one sweep at
// startup for crash recovery).
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("media sweep: cannot read %s: %v", s.dir, err)
		return 0
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("media sweep: failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Printf("media sweep: removed %d orphaned file(s) from %s", removed, s.dir)
	}
	return removed
}
