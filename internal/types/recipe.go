// Package types defines the shared data structures exchanged between the
// import pipeline stages and the persistence layer.
package types

// Servings describes how many portions a recipe yields.
type Servings struct {
	Value int    `json:"value"`
	Note  string `json:"note,omitempty"`
}

// Macros holds per-serving macronutrient estimates.
type Macros struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
}

// Ingredient is a single recipe ingredient. ID is unique within a recipe and
// is what steps reference via UsedIngredients.
type Ingredient struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Preparation string  `json:"preparation,omitempty"`
	Section     string  `json:"section,omitempty"`
	Optional    bool    `json:"optional,omitempty"`
	ChefsNote   string  `json:"chefs_note,omitempty"`
}

// Step is a single instruction. Idx is 1-based and defines display order.
type Step struct {
	Idx              int      `json:"idx"`
	Text             string   `json:"text"`
	UsedIngredients  []string `json:"used_ingredients,omitempty"`
	Section          string   `json:"section,omitempty"`
	EstimatedTimeMin int      `json:"estimated_time_min,omitempty"`
	ChefsNote        string   `json:"chefs_note,omitempty"`
}

// RecipeData is the canonical recipe document produced by a successful
// import. It is immutable after creation; edits happen through variants,
// which live outside this service.
type RecipeData struct {
	Title            string       `json:"title"`
	Servings         *Servings    `json:"servings,omitempty"`
	PrepTimeMin      int          `json:"prep_time_min,omitempty"`
	CookTimeMin      int          `json:"cook_time_min,omitempty"`
	TotalTimeMin     int          `json:"total_time_min,omitempty"`
	Difficulty       string       `json:"difficulty,omitempty"`
	Cuisine          string       `json:"cuisine,omitempty"`
	MacrosPerServing *Macros      `json:"macros_per_serving,omitempty"`
	Confidence       *float64     `json:"confidence,omitempty"`
	Assumptions      []string     `json:"assumptions,omitempty"`
	Ingredients      []Ingredient `json:"ingredients"`
	Steps            []Step       `json:"steps"`
}

// IngredientByID returns the ingredient with the given id, or nil.
func (r *RecipeData) IngredientByID(id string) *Ingredient {
	for i := range r.Ingredients {
		if r.Ingredients[i].ID == id {
			return &r.Ingredients[i]
		}
	}
	return nil
}
