// Package scrape defines the core types and the crawl engine for the
// listings pipeline.
package scrape

import (
	"context"
	"time"
)

// ListingRecord is one scraped item. URL is the unique key and always
// present; every other field may be empty, representing partial extraction
// rather than failure. Records are immutable once emitted.
type ListingRecord struct {
	URL         string    `json:"url"`
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Price       *float64  `json:"price"`
	Currency    string    `json:"currency,omitempty"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Location    string    `json:"location"`
	PostedDate  string    `json:"date"`
	SearchQuery string    `json:"search_query"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// Page is a rendered page snapshot returned by a PageFetcher.
type Page struct {
	URL          string
	FinalURL     string
	StatusCode   int
	Body         []byte
	UsedHeadless bool
	Duration     time.Duration
}

// PageFetcher fetches a rendered page and captures screenshots. The concrete
// rendering engine is an external collaborator behind this interface.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
	Screenshot(ctx context.Context, rawURL, path string) error
}

// RobotsPolicy reports whether a URL may be fetched.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// Pacer suspends the caller until the next request is polite to issue.
type Pacer interface {
	Wait(ctx context.Context) error
}

// ReviewSink records URLs that were diverted to manual review. Implementations
// must never fail in a way that aborts the crawl.
type ReviewSink interface {
	Record(url, reason, screenshotPath string)
}

// Emit receives each extracted record, strictly in crawl order. A non-nil
// error stops the crawl session (cancellation), not the single record.
type Emit func(ctx context.Context, rec ListingRecord) error
