package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camille/recipe-importer/internal/extraction"
	"github.com/camille/recipe-importer/internal/gemini"
	"github.com/camille/recipe-importer/internal/media"
	"github.com/camille/recipe-importer/internal/scraper"
	"github.com/camille/recipe-importer/internal/types"
)

// memImportStore mimics the guarded writes of the SQL store in memory.
type memImportStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*types.ImportRecord
}

func newMemImportStore() *memImportStore {
	return &memImportStore{records: make(map[uuid.UUID]*types.ImportRecord)}
}

func (m *memImportStore) add(status types.ImportStatus) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.records[id] = &types.ImportRecord{
		ID:       id,
		InputURL: "https://www.instagram.com/reel/ABC/",
		Status:   status,
		Stage:    status,
		Metadata: map[string]string{},
	}
	return id
}

func (m *memImportStore) get(id uuid.UUID) *types.ImportRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		clone := *rec
		return &clone
	}
	return nil
}

func (m *memImportStore) GetImport(_ context.Context, id uuid.UUID) (*types.ImportRecord, error) {
	return m.get(id), nil
}

func (m *memImportStore) TransitionStage(_ context.Context, id uuid.UUID, to types.ImportStatus, progress int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || !rec.Status.Before(to) {
		return false, nil
	}
	rec.Status = to
	rec.Stage = to
	if progress > rec.Progress {
		rec.Progress = progress
	}
	return true, nil
}

func (m *memImportStore) SetProgress(_ context.Context, id uuid.UUID, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.Status.Terminal() {
		return nil
	}
	if progress > rec.Progress {
		rec.Progress = progress
	}
	return nil
}

func (m *memImportStore) MarkFailed(_ context.Context, id uuid.UUID, message string, resetProgress bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.Status.Terminal() {
		return false, nil
	}
	rec.Status = types.StatusFailed
	rec.Error = message
	if resetProgress {
		rec.Progress = 0
	}
	return true, nil
}

func (m *memImportStore) MarkReady(_ context.Context, id, recipeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.Status != types.StatusExtracting {
		return false, nil
	}
	rec.Status = types.StatusReady
	rec.Stage = types.StatusReady
	rec.RecipeID = &recipeID
	rec.Progress = 100
	return true, nil
}

func (m *memImportStore) UpdateMetadata(_ context.Context, id uuid.UUID, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		for k, v := range metadata {
			rec.Metadata[k] = v
		}
	}
	return nil
}

type memRecipeStore struct {
	mu      sync.Mutex
	created map[uuid.UUID]*types.RecipeData
	deleted []uuid.UUID
	err     error
}

func newMemRecipeStore() *memRecipeStore {
	return &memRecipeStore{created: make(map[uuid.UUID]*types.RecipeData)}
}

func (m *memRecipeStore) CreateRecipe(_ context.Context, data *types.RecipeData) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return uuid.Nil, m.err
	}
	id := uuid.New()
	m.created[id] = data
	return id, nil
}

func (m *memRecipeStore) DeleteRecipe(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.created, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type stubScraper struct {
	meta *scraper.PostMetadata
	err  error
}

func (s *stubScraper) Fetch(_ context.Context, _ string) (*scraper.PostMetadata, error) {
	return s.meta, s.err
}

type stubDownloader struct {
	mu       sync.Mutex
	err      error
	failAt   int // 1-based download index that fails; 0 disables
	count    int
	cleaned  []string
	perMedia map[string]media.MediaType
}

func (d *stubDownloader) Download(_ context.Context, url string, _ media.DownloadOptions) (*media.Download, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	if d.err != nil && (d.failAt == 0 || d.count == d.failAt) {
		return nil, d.err
	}
	mediaType := media.MediaImage
	if d.perMedia != nil {
		if t, ok := d.perMedia[url]; ok {
			mediaType = t
		}
	}
	return &media.Download{
		Path:      fmt.Sprintf("/tmp/fake/%d", d.count),
		Size:      1024,
		MIMEType:  "video/mp4",
		MediaType: mediaType,
	}, nil
}

func (d *stubDownloader) Cleanup(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleaned = append(d.cleaned, path)
	return nil
}

type stubFiles struct {
	uploadErr error
	waitErr   error
}

func (f *stubFiles) Upload(_ context.Context, path, mimeType, displayName string) (*gemini.FileHandle, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &gemini.FileHandle{Name: "files/" + displayName, URI: "uri/" + path, MIMEType: mimeType}, nil
}

func (f *stubFiles) WaitForFile(_ context.Context, name string, _ gemini.WaitOptions) (*gemini.FileHandle, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return &gemini.FileHandle{Name: name, URI: "uri/" + name}, nil
}

type stubExtractor struct {
	result *extraction.Result
	err    error
	hook   func() // runs before returning, for mid-extraction races
}

func (e *stubExtractor) Extract(_ context.Context, _ extraction.Input, _ extraction.Options) (*extraction.Result, error) {
	if e.hook != nil {
		e.hook()
	}
	return e.result, e.err
}

func testMeta() *scraper.PostMetadata {
	return &scraper.PostMetadata{
		Caption:   "garlic butter pasta #pasta",
		Hashtags:  []string{"pasta"},
		MediaURLs: []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.mp4"},
		Owner:     scraper.Owner{Username: "chefcamille"},
		Platform:  scraper.PlatformInstagram,
	}
}

func testRecipe() *types.RecipeData {
	return &types.RecipeData{
		Title:       "Garlic Butter Pasta",
		Ingredients: []types.Ingredient{{ID: "pasta", Name: "spaghetti"}},
		Steps:       []types.Step{{Idx: 1, Text: "Cook."}},
	}
}

type fixture struct {
	imports    *memImportStore
	recipes    *memRecipeStore
	scraper    *stubScraper
	downloader *stubDownloader
	files      *stubFiles
	extractor  *stubExtractor
}

func newFixture() *fixture {
	return &fixture{
		imports: newMemImportStore(),
		recipes: newMemRecipeStore(),
		scraper: &stubScraper{meta: testMeta()},
		downloader: &stubDownloader{perMedia: map[string]media.MediaType{
			"https://cdn.example.com/a.jpg": media.MediaImage,
			"https://cdn.example.com/b.mp4": media.MediaVideo,
		}},
		files:     &stubFiles{},
		extractor: &stubExtractor{result: &extraction.Result{Recipe: testRecipe(), Confidence: 0.85}},
	}
}

func (f *fixture) orchestrator(cfg Config) *Orchestrator {
	return New(f.imports, f.recipes, f.scraper, f.downloader, f.files, f.extractor, cfg)
}

func TestRun_HappyPath(t *testing.T) {
	f := newFixture()
	var events []Event
	o := f.orchestrator(Config{OnProgress: func(ev Event) { events = append(events, ev) }})
	id := f.imports.add(types.StatusQueued)

	require.NoError(t, o.Run(context.Background(), id))

	rec := f.imports.get(id)
	assert.Equal(t, types.StatusReady, rec.Status)
	assert.Equal(t, 100, rec.Progress)
	require.NotNil(t, rec.RecipeID)
	assert.Contains(t, f.recipes.created, *rec.RecipeID)
	assert.Equal(t, "chefcamille", rec.Metadata["source_username"])
	assert.Equal(t, "instagram", rec.Metadata["source_platform"])

	// Both temp files released
	assert.Len(t, f.downloader.cleaned, 2)

	// Final event is the completion
	require.NotEmpty(t, events)
	assert.Equal(t, types.StatusReady, events[len(events)-1].Stage)
	assert.Equal(t, 100, events[len(events)-1].Progress)
}

func TestRun_MissingRecordIsNoOp(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(Config{})

	assert.NoError(t, o.Run(context.Background(), uuid.New()))
	assert.Empty(t, f.recipes.created)
}

func TestRun_TerminalRecordIsNoOp(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(Config{})
	id := f.imports.add(types.StatusReady)

	require.NoError(t, o.Run(context.Background(), id))
	assert.Equal(t, 0, f.downloader.count)
}

func TestRun_ScrapeFailure(t *testing.T) {
	f := newFixture()
	f.scraper.err = errors.New("no media found in post page")
	o := f.orchestrator(Config{})
	id := f.imports.add(types.StatusQueued)

	require.NoError(t, o.Run(context.Background(), id))

	rec := f.imports.get(id)
	assert.Equal(t, types.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "no media found")
	assert.Equal(t, 0, f.downloader.count)
}

func TestRun_DownloadFailureCleansUpEarlierAssets(t *testing.T) {
	f := newFixture()
	f.downloader.err = errors.New("stream exceeded cap")
	f.downloader.failAt = 2
	o := f.orchestrator(Config{})
	id := f.imports.add(types.StatusQueued)

	require.NoError(t, o.Run(context.Background(), id))

	rec := f.imports.get(id)
	assert.Equal(t, types.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "stream exceeded cap")

	// The first asset downloaded before the failure is released
	assert.Equal(t, []string{"/tmp/fake/1"}, f.downloader.cleaned)
}

func TestRun_UploadFailure(t *testing.T) {
	f := newFixture()
	f.files.uploadErr = errors.New("file upload failed")
	o := f.orchestrator(Config{})
	id := f.imports.add(types.StatusQueued)

	require.NoError(t, o.Run(context.Background(), id))

	rec := f.imports.get(id)
	assert.Equal(t, types.StatusFailed, rec.Status)
	assert.Len(t, f.downloader.cleaned, 2)
}

func TestRun_ExtractionFailure(t *testing.T) {
	f := newFixture()
	f.extractor.result = nil
	f.extractor.err = &extraction.AmbiguousResultError{Candidates: 2}
	o := f.orchestrator(Config{})
	id := f.imports.add(types.StatusQueued)

	require.NoError(t, o.Run(context.Background(), id))

	rec := f.imports.get(id)
	assert.Equal(t, types.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "ambiguous extraction result")
	assert.Empty(t, f.recipes.created)
}

func TestRun_CancelDuringExtractionDiscardsRecipe(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(Config{})
	id := f.imports.add(types.StatusQueued)

	// The user cancels while the extraction call is in flight.
	f.extractor.hook = func() {
		require.NoError(t, o.Cancel(context.Background(), id))
	}

	require.NoError(t, o.Run(context.Background(), id))

	rec := f.imports.get(id)
	assert.Equal(t, types.StatusFailed, rec.Status)
	assert.Equal(t, types.CancelledMessage, rec.Error)
	assert.Equal(t, 0, rec.Progress)
	assert.Nil(t, rec.RecipeID)

	// The stale success was discarded, not persisted
	assert.Empty(t, f.recipes.created)
	assert.Len(t, f.recipes.deleted, 1)
}

func TestRun_FailureAfterCancelKeepsCancellationMessage(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(Config{})
	id := f.imports.add(types.StatusQueued)

	f.extractor.hook = func() {
		require.NoError(t, o.Cancel(context.Background(), id))
	}
	f.extractor.result = nil
	f.extractor.err = errors.New("generation request failed")

	require.NoError(t, o.Run(context.Background(), id))

	rec := f.imports.get(id)
	assert.Equal(t, types.CancelledMessage, rec.Error, "a late failure must not overwrite the cancellation")
}

func TestCancel(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(Config{})

	t.Run("active import", func(t *testing.T) {
		id := f.imports.add(types.StatusDownloadingMedia)
		require.NoError(t, o.Cancel(context.Background(), id))

		rec := f.imports.get(id)
		assert.True(t, rec.Cancelled())
		assert.Equal(t, 0, rec.Progress)
	})

	t.Run("missing import", func(t *testing.T) {
		err := o.Cancel(context.Background(), uuid.New())
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("terminal import", func(t *testing.T) {
		id := f.imports.add(types.StatusReady)
		err := o.Cancel(context.Background(), id)

		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, types.StatusReady, conflict.Status)
	})
}

func TestDispatch_RecoversPanic(t *testing.T) {
	f := newFixture()
	f.extractor.hook = func() { panic("boom") }
	o := f.orchestrator(Config{})
	id := f.imports.add(types.StatusQueued)

	o.Dispatch(id)

	require.Eventually(t, func() bool {
		rec := f.imports.get(id)
		return rec != nil && rec.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	rec := f.imports.get(id)
	assert.Equal(t, types.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "internal error: boom")
}

func TestDispatch_WritesRunError(t *testing.T) {
	f := newFixture()
	f.scraper.err = errors.New("HTTP status 500")
	o := f.orchestrator(Config{})
	id := f.imports.add(types.StatusQueued)

	o.Dispatch(id)

	require.Eventually(t, func() bool {
		rec := f.imports.get(id)
		return rec != nil && rec.Status == types.StatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	assert.Contains(t, f.imports.get(id).Error, "HTTP status 500")
}

func TestPickPrimary(t *testing.T) {
	downloads := []*media.Download{
		{Path: "a", MediaType: media.MediaImage},
		{Path: "b", MediaType: media.MediaVideo},
	}
	handles := []*gemini.FileHandle{{Name: "a"}, {Name: "b"}}

	dl, fh := pickPrimary(downloads, handles)
	assert.Equal(t, "b", dl.Path)
	assert.Equal(t, "b", fh.Name)

	dl, fh = pickPrimary(downloads[:1], handles[:1])
	assert.Equal(t, "a", dl.Path)
	assert.Equal(t, "a", fh.Name)
}
