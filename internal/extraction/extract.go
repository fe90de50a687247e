// Package extraction turns an uploaded media file plus post context into a
// validated recipe via the generative AI service, with bounded retries.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/camille/recipe-importer/internal/gemini"
	"github.com/camille/recipe-importer/internal/prompts"
	"github.com/camille/recipe-importer/internal/recipe"
	"github.com/camille/recipe-importer/internal/types"
)

// DefaultMaxAttempts bounds independent extraction attempts.
const DefaultMaxAttempts = 3

// Generator is the generation surface the extractor needs. *gemini.Client
// satisfies it.
type Generator interface {
	GenerateRecipeJSON(ctx context.Context, in gemini.GenerateInput) (string, error)
}

// Input references an active uploaded file plus the post context that helps
// the model ground its extraction.
type Input struct {
	FileURI  string
	MIMEType string
	Caption  string
	Hashtags []string
}

// Options configures an extraction run.
type Options struct {
	MaxAttempts int
}

// Result is a successfully extracted and validated recipe. Issues carries
// the validator's warnings (auto-repairs and soft concerns).
type Result struct {
	Recipe     *types.RecipeData
	Confidence float64
	Issues     []recipe.Issue
}

// Service performs recipe extraction against a Generator.
type Service struct {
	gen Generator
}

// NewService creates an extraction service.
func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// Extract requests a JSON-shaped recipe extraction for the uploaded file.
// Attempts are independent and stateless, up to MaxAttempts. Transport
// failures and unparsable JSON are retried; an ambiguous multi-candidate
// response and a failed structural validation are verdicts about the
// content and end the run immediately.
func (s *Service) Extract(ctx context.Context, in Input, opts Options) (*Result, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	prompt := buildPrompt(in)

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := s.gen.GenerateRecipeJSON(ctx, gemini.GenerateInput{
			FileURI:  in.FileURI,
			MIMEType: in.MIMEType,
			Prompt:   prompt,
		})
		if err != nil {
			log.Printf("extraction attempt %d/%d failed: %v", attempt, opts.MaxAttempts, err)
			lastErr = err
			continue
		}

		candidate, err := selectCandidate(text)
		if err != nil {
			var ambiguous *AmbiguousResultError
			if errors.As(err, &ambiguous) {
				return nil, err
			}
			log.Printf("extraction attempt %d/%d returned invalid JSON: %v", attempt, opts.MaxAttempts, err)
			lastErr = err
			continue
		}

		vres := recipe.ValidateRaw(candidate)
		if !vres.Valid {
			return nil, &ValidationFailedError{Issues: vres.Issues}
		}

		return &Result{
			Recipe:     vres.Recipe,
			Confidence: vres.Confidence,
			Issues:     vres.Issues,
		}, nil
	}

	return nil, lastErr
}

// buildPrompt renders the embedded extraction template with post context.
func buildPrompt(in Input) string {
	caption := in.Caption
	if caption == "" {
		caption = "(no caption)"
	}
	hashtags := "(none)"
	if len(in.Hashtags) > 0 {
		hashtags = strings.Join(in.Hashtags, ", ")
	}

	template := prompts.MustGet("extraction.json", "extract-recipe")
	return prompts.Format(template, map[string]string{
		"Caption":  caption,
		"Hashtags": hashtags,
	})
}

// selectCandidate parses the response text and returns the single recipe
// candidate it contains. A top-level array or a "recipes" wrapper with more
// than one element is an ambiguity, never silently resolved.
func selectCandidate(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
		switch len(arr) {
		case 0:
			return nil, &InvalidJSONError{Cause: errors.New("empty candidate array")}
		case 1:
			return arr[0], nil
		default:
			return nil, &AmbiguousResultError{Candidates: len(arr)}
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, &InvalidJSONError{Cause: err}
	}

	if raw, ok := obj["recipes"]; ok {
		var nested []json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			switch len(nested) {
			case 0:
				return nil, &InvalidJSONError{Cause: errors.New("empty recipes array")}
			case 1:
				return nested[0], nil
			default:
				return nil, &AmbiguousResultError{Candidates: len(nested)}
			}
		}
	}

	return json.RawMessage(trimmed), nil
}
