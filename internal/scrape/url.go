package scrape

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildSearchURL renders the search URL for a query and 1-based page number.
// Queries are slugged the way the target site expects: trimmed, lowercased,
// spaces replaced with hyphens, the rest percent-escaped. Page 1 carries no
// page parameter so the canonical first-page URL is produced.
func BuildSearchURL(template, query string, page int) string {
	slug := strings.ToLower(strings.TrimSpace(query))
	slug = strings.Join(strings.Fields(slug), "-")
	u := fmt.Sprintf(template, url.PathEscape(slug))
	if page > 1 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += fmt.Sprintf("%spage=%d", sep, page)
	}
	return u
}
