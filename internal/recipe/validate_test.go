package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camille/recipe-importer/internal/types"
)

func validRecipe() *types.RecipeData {
	return &types.RecipeData{
		Title: "Garlic Butter Pasta",
		Ingredients: []types.Ingredient{
			{ID: "pasta", Name: "spaghetti", Quantity: 200, Unit: "g"},
			{ID: "garlic", Name: "garlic", Quantity: 3, Unit: "cloves"},
		},
		Steps: []types.Step{
			{Idx: 1, Text: "Boil the pasta.", UsedIngredients: []string{"pasta"}},
			{Idx: 2, Text: "Fry the garlic and toss.", UsedIngredients: []string{"garlic", "pasta"}},
		},
	}
}

func TestValidate_ValidRecipe(t *testing.T) {
	result := Validate(validRecipe())

	assert.True(t, result.Valid)
	require.NotNil(t, result.Recipe)
	assert.Empty(t, result.Issues)
	assert.Equal(t, DefaultConfidence, result.Confidence)
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	result := Validate(&types.RecipeData{})

	assert.False(t, result.Valid)
	assert.Nil(t, result.Recipe)

	paths := make(map[string]bool)
	for _, issue := range result.Issues {
		assert.Equal(t, SeverityError, issue.Severity)
		paths[issue.Path] = true
	}
	assert.True(t, paths["title"])
	assert.True(t, paths["ingredients"])
	assert.True(t, paths["steps"])
}

func TestValidate_SyntheticIngredientID(t *testing.T) {
	data := validRecipe()
	data.Ingredients[1].ID = ""
	data.Steps[1].UsedIngredients = []string{"pasta"}

	result := Validate(data)

	assert.True(t, result.Valid, "a repaired id is a warning, not a failure")
	assert.Equal(t, SyntheticIDPrefix+"2", result.Recipe.Ingredients[1].ID)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, SeverityWarning, result.Issues[0].Severity)
	assert.Equal(t, "ingredients.1.id", result.Issues[0].Path)
}

func TestValidate_SyntheticIDSkipsTaken(t *testing.T) {
	data := validRecipe()
	data.Ingredients[0].ID = "ing-2"
	data.Ingredients[1].ID = ""
	data.Steps[0].UsedIngredients = nil
	data.Steps[1].UsedIngredients = nil

	result := Validate(data)

	assert.True(t, result.Valid)
	assert.Equal(t, "ing-3", result.Recipe.Ingredients[1].ID)
}

func TestValidate_DuplicateIngredientID(t *testing.T) {
	data := validRecipe()
	data.Ingredients[1].ID = "pasta"

	result := Validate(data)

	assert.False(t, result.Valid)
}

func TestValidate_EmptyIngredientName(t *testing.T) {
	data := validRecipe()
	data.Ingredients[0].Name = ""

	result := Validate(data)

	assert.False(t, result.Valid)
}

func TestValidate_StepIndexReassigned(t *testing.T) {
	data := validRecipe()
	data.Steps[0].Idx = 0
	data.Steps[1].Idx = 1

	result := Validate(data)

	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.Recipe.Steps[0].Idx)
	assert.Equal(t, 2, result.Recipe.Steps[1].Idx)
}

func TestValidate_DanglingReferenceDropped(t *testing.T) {
	data := validRecipe()
	data.Steps[0].UsedIngredients = []string{"pasta", "truffle"}

	result := Validate(data)

	assert.True(t, result.Valid)
	assert.Equal(t, []string{"pasta"}, result.Recipe.Steps[0].UsedIngredients)

	var warned bool
	for _, issue := range result.Issues {
		if issue.Severity == SeverityWarning && issue.Path == "steps.0.used_ingredients.1" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestValidate_ConfidenceClamped(t *testing.T) {
	data := validRecipe()
	over := 1.4
	data.Confidence = &over

	result := Validate(data)

	assert.True(t, result.Valid)
	assert.Equal(t, 1.0, result.Confidence)

	data = validRecipe()
	under := -0.2
	data.Confidence = &under

	result = Validate(data)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestValidateRaw_SchemaRejectsMissingTitle(t *testing.T) {
	raw := []byte(`{"ingredients": [{"name": "salt"}], "steps": [{"text": "season"}]}`)

	result := ValidateRaw(raw)

	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Issues)
}

func TestValidateRaw_ValidDocument(t *testing.T) {
	raw := []byte(`{
		"title": "Toast",
		"confidence": 0.9,
		"ingredients": [{"id": "bread", "name": "bread", "quantity": 2, "unit": "slices"}],
		"steps": [{"idx": 1, "text": "Toast the bread.", "used_ingredients": ["bread"]}]
	}`)

	result := ValidateRaw(raw)

	require.True(t, result.Valid)
	assert.Equal(t, "Toast", result.Recipe.Title)
	assert.Equal(t, 0.9, result.Confidence)
}

func TestValidateRaw_MalformedJSON(t *testing.T) {
	result := ValidateRaw([]byte(`{"title": `))

	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Issues)
}
