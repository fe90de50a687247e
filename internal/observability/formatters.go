// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/camille/recipe-importer/internal/recipe"
	"github.com/camille/recipe-importer/internal/scraper"
	"github.com/camille/recipe-importer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPostMetadata outputs a summary of the scraped post.
func (p *Printer) PrintPostMetadata(meta *scraper.PostMetadata) {
	if meta == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Platform: %s\n", meta.Platform))
	if meta.Owner.Username != "" {
		sb.WriteString(fmt.Sprintf("Owner:    %s\n", meta.Owner.Username))
	}
	sb.WriteString(fmt.Sprintf("Assets:   %d\n", len(meta.MediaURLs)))

	if meta.Caption != "" {
		caption := meta.Caption
		if len(caption) > 120 {
			caption = caption[:117] + "..."
		}
		sb.WriteString("\nCaption:\n")
		for _, line := range strings.Split(caption, "\n") {
			sb.WriteString(fmt.Sprintf("  %s\n", line))
		}
	}

	if len(meta.Hashtags) > 0 {
		count := min(len(meta.Hashtags), maxItemsToShow)
		sb.WriteString(fmt.Sprintf("\nHashtags: #%s", strings.Join(meta.Hashtags[:count], " #")))
		if len(meta.Hashtags) > count {
			sb.WriteString(fmt.Sprintf(" ... and %d more", len(meta.Hashtags)-count))
		}
		sb.WriteString("\n")
	}

	p.printBox("SCRAPED POST", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintImportRecord outputs the current state of an import record.
func (p *Printer) PrintImportRecord(rec *types.ImportRecord) {
	if rec == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ID:       %s\n", rec.ID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", rec.Status))
	sb.WriteString(fmt.Sprintf("Progress: %d%%\n", rec.Progress))
	if rec.RecipeID != nil {
		sb.WriteString(fmt.Sprintf("Recipe:   %s\n", rec.RecipeID))
	}
	if rec.Error != "" {
		sb.WriteString(fmt.Sprintf("Error:    %s\n", rec.Error))
	}

	p.printBox("IMPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecipe outputs a human-readable summary of an extracted recipe.
func (p *Printer) PrintRecipe(r *types.RecipeData) {
	if r == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Title:       %s\n", r.Title))
	if r.Servings != nil {
		sb.WriteString(fmt.Sprintf("Servings:    %d", r.Servings.Value))
		if r.Servings.Note != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", r.Servings.Note))
		}
		sb.WriteString("\n")
	}
	if r.Confidence != nil {
		sb.WriteString(fmt.Sprintf("Confidence:  %.2f\n", *r.Confidence))
	}
	sb.WriteString("\n")

	if len(r.Ingredients) > 0 {
		sb.WriteString(fmt.Sprintf("Ingredients (%d):\n", len(r.Ingredients)))
		count := min(len(r.Ingredients), maxItemsToShow)
		for i := 0; i < count; i++ {
			ing := r.Ingredients[i]
			sb.WriteString(fmt.Sprintf("  • %s", ing.Name))
			if ing.Quantity > 0 {
				sb.WriteString(fmt.Sprintf(" (%g %s)", ing.Quantity, ing.Unit))
			}
			sb.WriteString("\n")
		}
		if len(r.Ingredients) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Ingredients)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Steps: %d", len(r.Steps)))

	p.printBox("EXTRACTED RECIPE", sb.String())
}

// PrintIssues outputs validation issues with severity markers.
func (p *Printer) PrintIssues(issues []recipe.Issue) {
	if len(issues) == 0 {
		return
	}

	var sb strings.Builder
	for _, issue := range issues {
		marker := "warn "
		if issue.Severity == recipe.SeverityError {
			marker = "error"
		}
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", marker, issue.Path, issue.Message))
	}

	p.printBox("VALIDATION ISSUES", strings.TrimSuffix(sb.String(), "\n"))
}
