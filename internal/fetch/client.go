package fetch

import (
	"context"

	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/metrics"
	"github.com/mkarwowski/adscout/internal/scrape"
)

type pageGetter interface {
	Fetch(ctx context.Context, rawURL string) (scrape.Page, error)
}

type pageRenderer interface {
	pageGetter
	Screenshot(ctx context.Context, rawURL, path string) error
}

// Client is the PageFetcher handed to the crawl engine. It probes with plain
// HTTP first and promotes to the headless renderer when the probe fails or
// returns a JavaScript shell. Block pages (403/429) are returned as-is so
// the challenge detector sees them instead of the renderer retrying into a
// harder block.
type Client struct {
	prober   pageGetter
	renderer pageRenderer
	minBytes int
	log      *zap.Logger
}

// NewClient combines a prober and a renderer into one fetcher.
func NewClient(prober *Prober, renderer *Renderer, minBytes int, log *zap.Logger) *Client {
	return &Client{prober: prober, renderer: renderer, minBytes: minBytes, log: log}
}

// Fetch implements scrape.PageFetcher.
func (c *Client) Fetch(ctx context.Context, rawURL string) (scrape.Page, error) {
	page, err := c.prober.Fetch(ctx, rawURL)
	if err == nil {
		if page.StatusCode == 403 || page.StatusCode == 429 {
			return page, nil
		}
		needs, reason := NeedsJS(page.Body, c.minBytes)
		if !needs {
			return page, nil
		}
		c.log.Info("promoting fetch to headless renderer",
			zap.String("url", rawURL), zap.String("reason", reason))
	} else {
		c.log.Info("probe failed, promoting to headless renderer",
			zap.String("url", rawURL), zap.Error(err))
	}

	metrics.HeadlessPromotions.Inc()
	return c.renderer.Fetch(ctx, rawURL)
}

// Screenshot implements scrape.PageFetcher. Screenshots always go through
// the renderer.
func (c *Client) Screenshot(ctx context.Context, rawURL, path string) error {
	return c.renderer.Screenshot(ctx, rawURL, path)
}
