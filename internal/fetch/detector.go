// Package fetch renders pages for the crawl engine. A cheap plain-HTTP probe
// runs first; pages that clearly need a browser are promoted to the headless
// renderer.
package fetch

import "strings"

// jsShellMarkers identify probe responses that are JavaScript application
// shells rather than server-rendered content.
var jsShellMarkers = []string{
	"you need to enable javascript",
	"please enable javascript",
	"włącz obsługę javascript",
	"javascript is disabled",
}

// NeedsJS reports whether a probe response must be re-fetched with the
// headless renderer, and why. A body below minBytes is treated as a shell
// even without an explicit marker.
func NeedsJS(body []byte, minBytes int) (bool, string) {
	if len(body) < minBytes {
		return true, "body_too_small"
	}
	lower := strings.ToLower(string(body))
	for _, marker := range jsShellMarkers {
		if strings.Contains(lower, marker) {
			return true, "marker:" + marker
		}
	}
	return false, ""
}
