package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/config"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	priceCharsRe = regexp.MustCompile(`[^0-9.,]`)
	adIDRe       = regexp.MustCompile(`ID([A-Za-z0-9]+)`)
)

// currencyMarkers maps textual currency hints to ISO codes. Order matters:
// the local currency is checked first because listing prices routinely mix
// "zł" with stray ASCII.
var currencyMarkers = []struct {
	marker string
	code   string
}{
	{"zł", "PLN"},
	{"pln", "PLN"},
	{"€", "EUR"},
	{"eur", "EUR"},
	{"$", "USD"},
	{"usd", "USD"},
	{"£", "GBP"},
	{"gbp", "GBP"},
}

// CleanText collapses all whitespace runs to single spaces and trims the ends.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// ParsePrice extracts a numeric amount from a raw price string. Everything
// but digits, dots and commas is stripped, then a decimal comma is normalized
// to a dot. Non-numeric prices ("Za darmo", "Zamienię") yield nil rather
// than zero so free listings stay distinguishable from 0.00.
func ParsePrice(raw string) *float64 {
	cleaned := priceCharsRe.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Currency returns the ISO code hinted at in a raw price string, or "" when
// no known marker is present.
func Currency(raw string) string {
	lower := strings.ToLower(raw)
	for _, m := range currencyMarkers {
		if strings.Contains(lower, m.marker) {
			return m.code
		}
	}
	return ""
}

// ExtractIDFromURL pulls the site's ad identifier out of a listing URL
// (".../nazwa-ogloszenia-IDabc123.html" -> "abc123"). Returns "" when the
// URL carries no identifier.
func ExtractIDFromURL(rawURL string) string {
	m := adIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// Extractor turns fetched HTML into listing records using configured CSS
// selectors. Extraction is field tolerant: a selector that matches nothing
// leaves its field empty instead of failing the record.
type Extractor struct {
	sel config.SelectorsConfig
	log *zap.Logger
	now func() time.Time
}

// NewExtractor builds an Extractor around the configured selector set.
func NewExtractor(sel config.SelectorsConfig, log *zap.Logger) *Extractor {
	return &Extractor{sel: sel, log: log, now: time.Now}
}

// ListingLinks collects the listing detail URLs present on a search results
// page, absolutized against baseURL, deduplicated in document order.
func (e *Extractor) ListingLinks(p Page, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("parse search page %s: %w", p.URL, err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %s: %w", baseURL, err)
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find(e.sel.ListingLinks).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links, nil
}

// Listing extracts one record from an ad detail page.
func (e *Extractor) Listing(p Page, query string) (ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return ListingRecord{}, fmt.Errorf("parse listing page %s: %w", p.URL, err)
	}

	rec := ListingRecord{
		URL:         p.URL,
		ID:          ExtractIDFromURL(p.URL),
		SearchQuery: query,
		ScrapedAt:   e.now().UTC(),
	}

	rec.Title = CleanText(doc.Find(e.sel.Title).First().Text())

	priceText := CleanText(doc.Find(e.sel.Price).First().Text())
	if priceText != "" {
		rec.Price = ParsePrice(priceText)
		rec.Currency = Currency(priceText)
	}

	rec.Description = CleanText(doc.Find(e.sel.Description).First().Text())

	if locDate := CleanText(doc.Find(e.sel.LocationDate).First().Text()); locDate != "" {
		parts := strings.Split(locDate, " - ")
		rec.Location = strings.TrimSpace(parts[0])
		if len(parts) > 1 {
			rec.PostedDate = strings.TrimSpace(parts[len(parts)-1])
		}
	}

	const maxImages = 10
	seen := make(map[string]struct{})
	doc.Find(e.sel.Images).Each(func(_ int, s *goquery.Selection) {
		if len(rec.Images) >= maxImages {
			return
		}
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		if !strings.HasPrefix(src, "http") {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		rec.Images = append(rec.Images, src)
	})

	if rec.Title == "" && rec.Description == "" {
		e.log.Warn("extraction found no usable fields",
			zap.String("url", p.URL), zap.Int("body_bytes", len(p.Body)))
	}

	return rec, nil
}
