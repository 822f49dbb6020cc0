// Package pipeline connects the crawl engine to analysis and delivery,
// processing records strictly one at a time in crawl order.
package pipeline

import (
	"time"

	"github.com/mkarwowski/adscout/internal/analyze"
	"github.com/mkarwowski/adscout/internal/scrape"
)

// ProcessorVersion is stamped into every envelope so downstream consumers
// can tell which pipeline build produced a record.
const ProcessorVersion = "0.3.0"

// Envelope is the payload delivered to the webhook: the scraped record, its
// analysis and processing metadata.
type Envelope struct {
	scrape.ListingRecord

	AIAnalysis    analyze.Analysis `json:"ai_analysis"`
	FallbackScore int              `json:"fallback_score"`
	LocalImages   []string         `json:"local_images,omitempty"`
	Metadata      Metadata         `json:"metadata"`
}

// Metadata describes the processing context of one envelope.
type Metadata struct {
	ScrapedAt        time.Time `json:"scraped_at"`
	Source           string    `json:"source"`
	SearchQuery      string    `json:"search_query"`
	ProcessorVersion string    `json:"processor_version"`
	SessionID        string    `json:"session_id"`
}
