package analyze

import (
	"fmt"
	"strings"

	"github.com/mkarwowski/adscout/internal/scrape"
)

// Fallback scores a record locally when the model channel is exhausted. The
// heuristic starts from a neutral 50 and rewards completeness: a concrete
// price, a substantive description, photos and a location each move the
// score, and absent fields are reported in MissingFields.
func Fallback(rec scrape.ListingRecord) Analysis {
	score := 50
	var points []string
	var missing []string

	if rec.Price != nil {
		score += 10
		points = append(points, fmt.Sprintf("priced at %.2f %s", *rec.Price, rec.Currency))
	} else {
		score -= 10
		missing = append(missing, "price")
	}

	if len(rec.Description) >= 20 {
		score += 10
		points = append(points, "detailed description")
	} else {
		score -= 15
		missing = append(missing, "description")
	}

	if n := len(rec.Images); n > 0 {
		bonus := 5 * n
		if bonus > 20 {
			bonus = 20
		}
		score += bonus
		points = append(points, fmt.Sprintf("%d photos", n))
	} else {
		score -= 20
		missing = append(missing, "images")
	}

	// Location never moves the score; it only adds color when present.
	if rec.Location != "" {
		points = append(points, "located in "+rec.Location)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	if len(points) > 3 {
		points = points[:3]
	}
	if len(points) == 0 {
		points = []string{"listing available"}
	}
	if missing == nil {
		missing = []string{}
	}

	reasoning := "heuristic completeness score, missing fields: none"
	if len(missing) > 0 {
		reasoning = "heuristic completeness score, missing fields: " + strings.Join(missing, ", ")
	}

	summary := rec.Title
	if summary == "" {
		summary = "Listing at " + rec.URL
	}

	return Analysis{
		Summary:       summary,
		SellingPoints: points,
		Score:         score,
		Reasoning:     reasoning,
		MissingFields: missing,
		IsFallback:    true,
	}
}

// SimpleScore is the model-independent completeness score attached to every
// delivered record, fallback or not.
func SimpleScore(rec scrape.ListingRecord) int {
	score := 50
	if rec.Price != nil {
		score += 10
	}
	if len(rec.Description) > 50 {
		score += 15
	}
	if n := len(rec.Images); n > 0 {
		bonus := 5 * n
		if bonus > 25 {
			bonus = 25
		}
		score += bonus
	}
	if rec.Location != "" {
		score += 5
	}
	if rec.PostedDate != "" {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}
