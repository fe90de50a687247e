package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/camille/recipe-importer/internal/types"
)

const importColumns = `id, input_url, status, stage, progress, recipe_id, error, metadata, created_at, updated_at`

// CreateImport inserts a new queued import record for the given URL and
// returns it.
func (db *DB) CreateImport(ctx context.Context, inputURL string, metadata map[string]string) (*types.ImportRecord, error) {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO imports (input_url, status, stage, progress, metadata)
		 VALUES ($1, $2, $2, 0, $3)
		 RETURNING `+importColumns,
		inputURL, types.StatusQueued, metaJSON,
	)
	rec, err := scanImport(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create import: %w", err)
	}
	return rec, nil
}

// GetImport retrieves an import record by id. Returns nil when no record
// exists.
func (db *DB) GetImport(ctx context.Context, id uuid.UUID) (*types.ImportRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+importColumns+` FROM imports WHERE id = $1`, id)
	rec, err := scanImport(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get import: %w", err)
	}
	return rec, nil
}

// TransitionStage advances a record to the given status when its current
// status is strictly earlier on the happy path. Terminal and
// already-advanced records are left untouched; the return value reports
// whether the write applied. Progress never decreases.
func (db *DB) TransitionStage(ctx context.Context, id uuid.UUID, to types.ImportStatus, progress int) (bool, error) {
	earlier := statusesBefore(to)
	if len(earlier) == 0 {
		return false, fmt.Errorf("no valid transition into status %q", to)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE imports
		 SET status = $2, stage = $2, progress = GREATEST(progress, $3), updated_at = NOW()
		 WHERE id = $1 AND status = ANY($4)`,
		id, to, progress, earlier,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition import %s to %s: %w", id, to, err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetProgress raises the progress of an active record. Lower values and
// terminal records are no-ops.
func (db *DB) SetProgress(ctx context.Context, id uuid.UUID, progress int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE imports
		 SET progress = GREATEST(progress, $2), updated_at = NOW()
		 WHERE id = $1 AND status NOT IN ($3, $4)`,
		id, progress, types.StatusReady, types.StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to set progress for import %s: %w", id, err)
	}
	return nil
}

// MarkFailed writes the terminal failure state onto an active record. The
// return value reports whether the write applied (false when the record was
// already terminal). Progress is reset when resetProgress is set, as
// cancellation requires.
func (db *DB) MarkFailed(ctx context.Context, id uuid.UUID, message string, resetProgress bool) (bool, error) {
	query := `UPDATE imports
		 SET status = $2, stage = $2, error = $3, updated_at = NOW()
		 WHERE id = $1 AND status NOT IN ($4, $5)`
	if resetProgress {
		query = `UPDATE imports
		 SET status = $2, stage = $2, error = $3, progress = 0, updated_at = NOW()
		 WHERE id = $1 AND status NOT IN ($4, $5)`
	}

	tag, err := db.pool.Exec(ctx, query,
		id, types.StatusFailed, message, types.StatusReady, types.StatusFailed)
	if err != nil {
		return false, fmt.Errorf("failed to mark import %s failed: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkReady completes an import: terminal success with the recipe id and
// full progress. Only an extracting record can complete, so a stale success
// can never overwrite a cancelled or failed outcome.
func (db *DB) MarkReady(ctx context.Context, id, recipeID uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE imports
		 SET status = $2, stage = $2, recipe_id = $3, progress = 100, error = NULL, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, types.StatusReady, recipeID, types.StatusExtracting,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark import %s ready: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateMetadata merges source metadata (e.g. owner username) onto a record.
func (db *DB) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`UPDATE imports
		 SET metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb, updated_at = NOW()
		 WHERE id = $1`,
		id, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update metadata for import %s: %w", id, err)
	}
	return nil
}

// DeleteImport removes a record unconditionally.
func (db *DB) DeleteImport(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM imports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete import: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import not found: %s", id)
	}
	return nil
}

// ImportFilters holds optional filters for listing imports.
type ImportFilters struct {
	Status types.ImportStatus
	Limit  int
}

// ListImports retrieves recent imports, newest first.
func (db *DB) ListImports(ctx context.Context, filters ImportFilters) ([]types.ImportRecord, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + importColumns + ` FROM imports WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var records []types.ImportRecord
	for rows.Next() {
		rec, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		records = append(records, *rec)
	}
	return records, nil
}

// statusesBefore returns the statuses strictly earlier than to on the happy
// path, for the guarded-transition WHERE clause.
func statusesBefore(to types.ImportStatus) []string {
	order := []types.ImportStatus{
		types.StatusQueued,
		types.StatusScraping,
		types.StatusDownloadingMedia,
		types.StatusUploadingMedia,
		types.StatusExtracting,
		types.StatusReady,
	}
	var earlier []string
	for _, s := range order {
		if s == to {
			break
		}
		earlier = append(earlier, string(s))
	}
	return earlier
}

// scanImport reads one import row.
func scanImport(row pgx.Row) (*types.ImportRecord, error) {
	var rec types.ImportRecord
	var recipeID *uuid.UUID
	var errMsg *string
	var metaJSON []byte

	err := row.Scan(&rec.ID, &rec.InputURL, &rec.Status, &rec.Stage, &rec.Progress,
		&recipeID, &errMsg, &metaJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.RecipeID = recipeID
	if errMsg != nil {
		rec.Error = *errMsg
	}
	if metaJSON != nil {
		_ = json.Unmarshal(metaJSON, &rec.Metadata)
	}
	return &rec, nil
}
