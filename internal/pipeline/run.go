// Package pipeline provides the import orchestrator: the state machine that
// drives an import from a post URL to a persisted recipe, writing status and
// progress onto the import record after every stage.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/camille/recipe-importer/internal/extraction"
	"github.com/camille/recipe-importer/internal/gemini"
	"github.com/camille/recipe-importer/internal/media"
	"github.com/camille/recipe-importer/internal/scraper"
	"github.com/camille/recipe-importer/internal/types"
)

// Progress bands per stage. Progress is non-decreasing within a run; each
// stage starts at its band floor and finishes at the next stage's floor.
const (
	progressScraping    = 10
	progressScraped     = 20
	progressDownloadEnd = 50
	progressUploadEnd   = 70
	progressExtracting  = 70
	progressExtracted   = 95
)

// Event is a progress update emitted after each stage transition.
type Event struct {
	ImportID uuid.UUID          `json:"import_id"`
	Stage    types.ImportStatus `json:"stage"`
	Progress int                `json:"progress"`
	Message  string             `json:"message"`
}

// Config tunes the orchestrator's resource bounds. Zero values use the
// collaborators' package defaults.
type Config struct {
	DownloadTimeout    time.Duration
	MaxMediaBytes      int64
	FileWaitTimeout    time.Duration
	FilePollInterval   time.Duration
	MaxExtractAttempts int
	OnProgress         func(Event)
}

// Orchestrator coordinates one import through its stages. All collaborators
// are injected; construct one at process start and share it across imports.
type Orchestrator struct {
	imports   ImportStore
	recipes   RecipeStore
	scraper   scraper.Scraper
	media     MediaDownloader
	files     FileService
	extractor Extractor
	cfg       Config
}

// New creates an orchestrator.
func New(imports ImportStore, recipes RecipeStore, sc scraper.Scraper, dl MediaDownloader, files FileService, ex Extractor, cfg Config) *Orchestrator {
	return &Orchestrator{
		imports:   imports,
		recipes:   recipes,
		scraper:   sc,
		media:     dl,
		files:     files,
		extractor: ex,
		cfg:       cfg,
	}
}

// Run drives a single import to a terminal state. A missing record is a
// no-op, not an error, so duplicate triggers are harmless. Every stage
// failure is written onto the record as a failed status; Run only returns an
// error when the record store itself is unreachable.
func (o *Orchestrator) Run(ctx context.Context, id uuid.UUID) error {
	rec, err := o.imports.GetImport(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load import %s: %w", id, err)
	}
	if rec == nil {
		log.Printf("import %s: no record, nothing to do", id)
		return nil
	}
	if rec.Status.Terminal() {
		log.Printf("import %s: already %s, nothing to do", id, rec.Status)
		return nil
	}

	// Stage 1: scraping.
	if ok := o.advance(ctx, id, types.StatusScraping, progressScraping); !ok {
		return nil
	}
	meta, err := o.scraper.Fetch(ctx, rec.InputURL)
	if err != nil {
		o.fail(ctx, id, err)
		return nil
	}
	if meta.Owner.Username != "" {
		_ = o.imports.UpdateMetadata(ctx, id, map[string]string{
			"source_username": meta.Owner.Username,
			"source_platform": string(meta.Platform),
		})
	}
	o.progress(ctx, id, progressScraped)

	// Stage 2: downloading media. Every downloaded temp file is released on
	// every exit path from here on, panics included.
	if ok := o.advance(ctx, id, types.StatusDownloadingMedia, progressScraped); !ok {
		return nil
	}
	var downloads []*media.Download
	defer func() {
		for _, dl := range downloads {
			if err := o.media.Cleanup(dl.Path); err != nil {
				log.Printf("import %s: %v", id, err)
			}
		}
	}()

	for i, mediaURL := range meta.MediaURLs {
		dl, err := o.media.Download(ctx, mediaURL, media.DownloadOptions{
			Timeout:  o.cfg.DownloadTimeout,
			MaxBytes: o.cfg.MaxMediaBytes,
		})
		if err != nil {
			o.fail(ctx, id, err)
			return nil
		}
		downloads = append(downloads, dl)
		o.progress(ctx, id, progressScraped+(progressDownloadEnd-progressScraped)*(i+1)/len(meta.MediaURLs))
	}

	// Stage 3: uploading media and awaiting activation, concurrently per
	// asset.
	if ok := o.advance(ctx, id, types.StatusUploadingMedia, progressDownloadEnd); !ok {
		return nil
	}
	uploaded := make([]*gemini.FileHandle, len(downloads))
	g, gctx := errgroup.WithContext(ctx)
	var done int
	var doneMu sync.Mutex

	for i, dl := range downloads {
		g.Go(func() error {
			handle, err := o.files.Upload(gctx, dl.Path, dl.MIMEType, fmt.Sprintf("import-%s-%d", id, i))
			if err != nil {
				return err
			}
			handle, err = o.files.WaitForFile(gctx, handle.Name, gemini.WaitOptions{
				Timeout:      o.cfg.FileWaitTimeout,
				PollInterval: o.cfg.FilePollInterval,
			})
			if err != nil {
				return err
			}
			uploaded[i] = handle

			doneMu.Lock()
			done++
			p := progressDownloadEnd + (progressUploadEnd-progressDownloadEnd)*done/len(downloads)
			doneMu.Unlock()
			o.progress(gctx, id, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.fail(ctx, id, err)
		return nil
	}

	// Stage 4: extracting.
	if ok := o.advance(ctx, id, types.StatusExtracting, progressExtracting); !ok {
		return nil
	}
	primaryDl, primaryFh := pickPrimary(downloads, uploaded)
	result, err := o.extractor.Extract(ctx, extraction.Input{
		FileURI:  primaryFh.URI,
		MIMEType: primaryDl.MIMEType,
		Caption:  meta.Caption,
		Hashtags: meta.Hashtags,
	}, extraction.Options{MaxAttempts: o.cfg.MaxExtractAttempts})
	if err != nil {
		o.fail(ctx, id, err)
		return nil
	}
	o.progress(ctx, id, progressExtracted)

	recipeID, err := o.recipes.CreateRecipe(ctx, result.Recipe)
	if err != nil {
		o.fail(ctx, id, fmt.Errorf("failed to persist recipe: %w", err))
		return nil
	}

	applied, err := o.imports.MarkReady(ctx, id, recipeID)
	if err != nil {
		return fmt.Errorf("failed to complete import %s: %w", id, err)
	}
	if !applied {
		// The record went terminal while extraction was in flight (user
		// cancellation). The stale success is discarded, not persisted: the
		// orphaned recipe document is removed and the event logged.
		log.Printf("import %s: completed after reaching a terminal state; discarding extracted recipe", id)
		if err := o.recipes.DeleteRecipe(ctx, recipeID); err != nil {
			log.Printf("import %s: failed to remove discarded recipe %s: %v", id, recipeID, err)
		}
		return nil
	}

	o.emit(id, types.StatusReady, 100, "import complete")
	log.Printf("import %s: ready (recipe %s)", id, recipeID)
	return nil
}

// Cancel transitions an active import to failed with the cancellation
// message and zeroed progress. Terminal imports yield a ConflictError
// carrying the current status. In-flight network calls are not aborted;
// their eventual completion is discarded by the guarded writes.
func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) error {
	rec, err := o.imports.GetImport(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return &NotFoundError{ID: id}
	}
	if rec.Status.Terminal() {
		return &ConflictError{ID: id, Status: rec.Status}
	}

	applied, err := o.imports.MarkFailed(ctx, id, types.CancelledMessage, true)
	if err != nil {
		return err
	}
	if !applied {
		// Lost the race against the pipeline reaching a terminal state.
		current, err := o.imports.GetImport(ctx, id)
		if err != nil || current == nil {
			return &ConflictError{ID: id, Status: types.StatusFailed}
		}
		return &ConflictError{ID: id, Status: current.Status}
	}

	o.emit(id, types.StatusFailed, 0, types.CancelledMessage)
	return nil
}

// advance writes a guarded stage transition. A false return means another
// run already advanced the record past this stage, or it went terminal; the
// caller stops without treating it as a failure.
func (o *Orchestrator) advance(ctx context.Context, id uuid.UUID, to types.ImportStatus, progress int) bool {
	applied, err := o.imports.TransitionStage(ctx, id, to, progress)
	if err != nil {
		log.Printf("import %s: failed to enter %s: %v", id, to, err)
		o.fail(ctx, id, err)
		return false
	}
	if !applied {
		log.Printf("import %s: skipping %s, record already advanced or terminal", id, to)
		return false
	}
	o.emit(id, to, progress, "entered "+string(to))
	return true
}

// progress raises the record's progress; terminal records ignore it.
func (o *Orchestrator) progress(ctx context.Context, id uuid.UUID, p int) {
	if err := o.imports.SetProgress(ctx, id, p); err != nil {
		log.Printf("import %s: failed to set progress %d: %v", id, p, err)
	}
}

// fail writes the terminal failure onto the record. Already-terminal
// records (cancelled meanwhile) keep their existing outcome.
func (o *Orchestrator) fail(ctx context.Context, id uuid.UUID, cause error) {
	applied, err := o.imports.MarkFailed(ctx, id, cause.Error(), false)
	if err != nil {
		log.Printf("import %s: failed to record failure %q: %v", id, cause, err)
		return
	}
	if !applied {
		log.Printf("import %s: failure %q after terminal state, keeping existing outcome", id, cause)
		return
	}
	o.emit(id, types.StatusFailed, 0, cause.Error())
	log.Printf("import %s: failed: %v", id, cause)
}

// emit calls the progress callback if configured.
func (o *Orchestrator) emit(id uuid.UUID, stage types.ImportStatus, progress int, message string) {
	if o.cfg.OnProgress != nil {
		o.cfg.OnProgress(Event{ImportID: id, Stage: stage, Progress: progress, Message: message})
	}
}

// pickPrimary selects the asset to extract from: the first video, falling
// back to the first asset. Reels and shorts are single-video posts; image
// carousels extract from their lead image.
func pickPrimary(downloads []*media.Download, uploaded []*gemini.FileHandle) (*media.Download, *gemini.FileHandle) {
	for i, dl := range downloads {
		if dl.MediaType == media.MediaVideo {
			return dl, uploaded[i]
		}
	}
	return downloads[0], uploaded[0]
}
