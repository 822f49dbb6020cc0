// Package analyze scores listing records, preferring a language model and
// degrading to a local heuristic when the model cannot produce valid output.
package analyze

import (
	"fmt"
	"strings"

	"github.com/mkarwowski/adscout/internal/scrape"
)

// BuildPrompt renders the analysis request for one listing. The prompt is
// deterministic for a given record so model responses stay comparable across
// retries.
func BuildPrompt(rec scrape.ListingRecord) string {
	var b strings.Builder

	b.WriteString("You are an assistant evaluating a classified ad listing.\n")
	b.WriteString("Respond with a single JSON object and nothing else, using exactly these keys:\n")
	b.WriteString(`{"summary": string, "selling_points": [string], "score": integer 0-100, "reasoning": string, "missing_fields": [string]}`)
	b.WriteString("\n\nListing:\n")

	fmt.Fprintf(&b, "Title: %s\n", orNone(rec.Title))
	if rec.Price != nil {
		fmt.Fprintf(&b, "Price: %.2f %s\n", *rec.Price, orNone(rec.Currency))
	} else {
		b.WriteString("Price: none\n")
	}
	fmt.Fprintf(&b, "Location: %s\n", orNone(rec.Location))
	fmt.Fprintf(&b, "Posted: %s\n", orNone(rec.PostedDate))

	fmt.Fprintf(&b, "Images (%d total):\n", len(rec.Images))
	for i, img := range rec.Images {
		if i == maxPromptImages {
			break
		}
		fmt.Fprintf(&b, "  - %s\n", img)
	}

	desc := rec.Description
	if len(desc) > maxPromptDescription {
		desc = desc[:maxPromptDescription] + "..."
	}
	fmt.Fprintf(&b, "Description: %s\n", orNone(desc))

	return b.String()
}

const (
	maxPromptImages      = 5
	maxPromptDescription = 1500
)

// BuildCorrectionPrompt asks the model to fix a rejected response. The
// rejected text is embedded verbatim so the model can see what it produced.
func BuildCorrectionPrompt(rec scrape.ListingRecord, rejected, problem string) string {
	var b strings.Builder
	b.WriteString(BuildPrompt(rec))
	b.WriteString("\nYour previous response was rejected: ")
	b.WriteString(problem)
	b.WriteString("\nPrevious response:\n")
	b.WriteString(rejected)
	b.WriteString("\nRespond again with only the JSON object, no commentary, no code fences.\n")
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
