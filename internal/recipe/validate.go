// Package recipe validates and normalizes extracted recipe structures into
// the canonical form persisted by the import pipeline. Raw AI output never
// crosses this boundary unvalidated.
package recipe

import (
	"encoding/json"
	"fmt"

	"github.com/camille/recipe-importer/internal/types"
)

// SyntheticIDPrefix is the deterministic prefix for ingredient ids assigned
// during auto-repair.
const SyntheticIDPrefix = "ing-"

// DefaultConfidence is used when the extraction carried no confidence score.
const DefaultConfidence = 0.5

// Result is the outcome of a validation pass. Recipe is set only when the
// input was valid (possibly after auto-repair).
type Result struct {
	Valid      bool
	Recipe     *types.RecipeData
	Confidence float64
	Issues     []Issue
}

// ValidateRaw validates a raw JSON document: first a structural gate against
// the embedded schema, then the semantic checks and normalization of
// Validate.
func ValidateRaw(raw []byte) *Result {
	if issues := checkSchema(raw); len(issues) > 0 {
		return &Result{Valid: false, Confidence: DefaultConfidence, Issues: issues}
	}

	var data types.RecipeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return &Result{
			Valid:      false,
			Confidence: DefaultConfidence,
			Issues: []Issue{{Path: "(root)", Severity: SeverityError,
				Message: fmt.Sprintf("cannot decode recipe document: %v", err)}},
		}
	}

	return Validate(&data)
}

// Validate checks and normalizes a structured recipe in place. Repairs
// (synthetic ingredient ids, reassigned step indexes, dropped dangling
// ingredient references) are recorded as warnings and never invalidate the
// recipe on their own; only error-severity issues flip Valid to false.
func Validate(data *types.RecipeData) *Result {
	var issues issueList

	if data.Title == "" {
		issues.fail("title", "title must not be empty")
	}
	if len(data.Ingredients) == 0 {
		issues.fail("ingredients", "at least one ingredient is required")
	}
	if len(data.Steps) == 0 {
		issues.fail("steps", "at least one step is required")
	}

	normalizeIngredients(data, &issues)
	normalizeSteps(data, &issues)

	confidence := DefaultConfidence
	if data.Confidence != nil {
		confidence = *data.Confidence
		switch {
		case confidence < 0:
			issues.warn("confidence", "confidence %v below range, clamped to 0", confidence)
			confidence = 0
		case confidence > 1:
			issues.warn("confidence", "confidence %v above range, clamped to 1", confidence)
			confidence = 1
		}
		data.Confidence = &confidence
	}

	result := &Result{
		Valid:      true,
		Confidence: confidence,
		Issues:     issues,
	}
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			result.Valid = false
			break
		}
	}
	if result.Valid {
		result.Recipe = data
	}
	return result
}

// normalizeIngredients assigns synthetic ids to ingredients that lack one
// and rejects empty names and duplicate ids.
func normalizeIngredients(data *types.RecipeData, issues *issueList) {
	seen := make(map[string]bool, len(data.Ingredients))
	for i := range data.Ingredients {
		ing := &data.Ingredients[i]

		if ing.Name == "" {
			issues.fail(fmt.Sprintf("ingredients.%d.name", i), "ingredient name must not be empty")
		}

		if ing.ID == "" {
			ing.ID = syntheticID(seen, i)
			issues.warn(fmt.Sprintf("ingredients.%d.id", i), "missing id, assigned %q", ing.ID)
		} else if seen[ing.ID] {
			issues.fail(fmt.Sprintf("ingredients.%d.id", i), "duplicate ingredient id %q", ing.ID)
			continue
		}
		seen[ing.ID] = true
	}
}

// syntheticID returns the first unused ing-<n> id starting from the
// ingredient's 1-based position.
func syntheticID(seen map[string]bool, index int) string {
	for n := index + 1; ; n++ {
		id := fmt.Sprintf("%s%d", SyntheticIDPrefix, n)
		if !seen[id] {
			return id
		}
	}
}

// normalizeSteps enforces unique 1-based step indexes and resolves
// ingredient references. References to undefined ingredient ids are dropped
// with a warning rather than failing the recipe: after validation every
// remaining reference resolves.
func normalizeSteps(data *types.RecipeData, issues *issueList) {
	known := make(map[string]bool, len(data.Ingredients))
	for _, ing := range data.Ingredients {
		known[ing.ID] = true
	}

	seenIdx := make(map[int]bool, len(data.Steps))
	for i := range data.Steps {
		step := &data.Steps[i]

		if step.Text == "" {
			issues.fail(fmt.Sprintf("steps.%d.text", i), "step text must not be empty")
		}

		if step.Idx <= 0 || seenIdx[step.Idx] {
			reassigned := i + 1
			for seenIdx[reassigned] {
				reassigned++
			}
			issues.warn(fmt.Sprintf("steps.%d.idx", i), "invalid or duplicate idx %d, reassigned to %d", step.Idx, reassigned)
			step.Idx = reassigned
		}
		seenIdx[step.Idx] = true

		if len(step.UsedIngredients) == 0 {
			continue
		}
		kept := step.UsedIngredients[:0]
		for j, ref := range step.UsedIngredients {
			if known[ref] {
				kept = append(kept, ref)
				continue
			}
			issues.warn(fmt.Sprintf("steps.%d.used_ingredients.%d", i, j), "reference to undefined ingredient %q dropped", ref)
		}
		step.UsedIngredients = kept
	}
}
