package observability

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/camille/recipe-importer/internal/recipe"
	"github.com/camille/recipe-importer/internal/types"
)

func TestPrintImportRecord(t *testing.T) {
	var sb strings.Builder
	p := NewPrinter(&sb)

	recipeID := uuid.New()
	p.PrintImportRecord(&types.ImportRecord{
		ID:       uuid.New(),
		Status:   types.StatusReady,
		Progress: 100,
		RecipeID: &recipeID,
	})

	out := sb.String()
	assert.Contains(t, out, "IMPORT")
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "100%")
}

func TestPrintImportRecord_Nil(t *testing.T) {
	var sb strings.Builder
	NewPrinter(&sb).PrintImportRecord(nil)
	assert.Empty(t, sb.String())
}

func TestPrintRecipe(t *testing.T) {
	var sb strings.Builder
	p := NewPrinter(&sb)

	confidence := 0.85
	p.PrintRecipe(&types.RecipeData{
		Title:      "Garlic Butter Pasta",
		Servings:   &types.Servings{Value: 4},
		Confidence: &confidence,
		Ingredients: []types.Ingredient{
			{ID: "pasta", Name: "spaghetti", Quantity: 200, Unit: "g"},
		},
		Steps: []types.Step{{Idx: 1, Text: "Cook."}},
	})

	out := sb.String()
	assert.Contains(t, out, "Garlic Butter Pasta")
	assert.Contains(t, out, "spaghetti")
	assert.Contains(t, out, "0.85")
}

func TestPrintIssues(t *testing.T) {
	var sb strings.Builder
	p := NewPrinter(&sb)

	p.PrintIssues([]recipe.Issue{
		{Path: "ingredients.1.id", Severity: recipe.SeverityWarning, Message: "missing id"},
		{Path: "steps", Severity: recipe.SeverityError, Message: "at least one step is required"},
	})

	out := sb.String()
	assert.Contains(t, out, "[warn ]")
	assert.Contains(t, out, "[error]")

	sb.Reset()
	p.PrintIssues(nil)
	assert.Empty(t, sb.String())
}
