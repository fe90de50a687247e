package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/camille/recipe-importer/internal/extraction"
	"github.com/camille/recipe-importer/internal/gemini"
	"github.com/camille/recipe-importer/internal/media"
	"github.com/camille/recipe-importer/internal/types"
)

// ImportStore is the orchestrator's view of the import record store. All
// writes are guarded: they apply only when the record's current status
// permits them, so a stale completion can never overwrite a terminal record.
// *store.DB satisfies it.
type ImportStore interface {
	GetImport(ctx context.Context, id uuid.UUID) (*types.ImportRecord, error)
	TransitionStage(ctx context.Context, id uuid.UUID, to types.ImportStatus, progress int) (bool, error)
	SetProgress(ctx context.Context, id uuid.UUID, progress int) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string, resetProgress bool) (bool, error)
	MarkReady(ctx context.Context, id, recipeID uuid.UUID) (bool, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string) error
}

// RecipeStore persists recipe documents. *store.DB satisfies it.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, data *types.RecipeData) (uuid.UUID, error)
	DeleteRecipe(ctx context.Context, id uuid.UUID) error
}

// MediaDownloader acquires and releases local media files. *media.Downloader
// satisfies it.
type MediaDownloader interface {
	Download(ctx context.Context, url string, opts media.DownloadOptions) (*media.Download, error)
	Cleanup(path string) error
}

// FileService uploads media to the AI file service and waits for activation.
// *gemini.Client satisfies it.
type FileService interface {
	Upload(ctx context.Context, path, mimeType, displayName string) (*gemini.FileHandle, error)
	WaitForFile(ctx context.Context, name string, opts gemini.WaitOptions) (*gemini.FileHandle, error)
}

// Extractor turns an active uploaded file into a validated recipe.
// *extraction.Service satisfies it.
type Extractor interface {
	Extract(ctx context.Context, in extraction.Input, opts extraction.Options) (*extraction.Result, error)
}
