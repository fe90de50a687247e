package recipe

import (
	_ "embed"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var recipeSchema string

// checkSchema validates raw JSON against the embedded recipe schema and
// converts violations into error-severity issues with dotted field paths.
// A broken schema or unloadable document is reported at the root path.
func checkSchema(raw []byte) []Issue {
	schemaLoader := gojsonschema.NewStringLoader(recipeSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return []Issue{{Path: "(root)", Severity: SeverityError,
			Message: "schema validation failed: " + err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	issues := make([]Issue, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		issues = append(issues, Issue{Path: field, Severity: SeverityError, Message: desc.Description()})
	}
	return issues
}
