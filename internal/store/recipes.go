package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/camille/recipe-importer/internal/types"
)

// StoredRecipe is a persisted recipe document. Documents are immutable after
// creation; edits happen through variants, outside this service.
type StoredRecipe struct {
	ID        uuid.UUID         `json:"id"`
	Data      *types.RecipeData `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
}

// CreateRecipe persists a validated recipe document and returns its id.
func (db *DB) CreateRecipe(ctx context.Context, data *types.RecipeData) (uuid.UUID, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal recipe: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO recipes (content) VALUES ($1) RETURNING id`,
		content,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	return id, nil
}

// GetRecipe retrieves a recipe document by id. Returns nil when no document
// exists.
func (db *DB) GetRecipe(ctx context.Context, id uuid.UUID) (*StoredRecipe, error) {
	var rec StoredRecipe
	var content []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, content, created_at FROM recipes WHERE id = $1`, id,
	).Scan(&rec.ID, &content, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	rec.Data = &types.RecipeData{}
	if err := json.Unmarshal(content, rec.Data); err != nil {
		return nil, fmt.Errorf("failed to decode recipe %s: %w", id, err)
	}
	return &rec, nil
}

// DeleteRecipe removes a recipe document.
func (db *DB) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recipe not found: %s", id)
	}
	return nil
}
