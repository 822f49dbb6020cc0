package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/scrape"
)

// Prober performs the cheap plain-HTTP fetch that runs before any headless
// rendering. Block statuses (403/429) are returned as pages, not errors, so
// the challenge detector can see them.
type Prober struct {
	userAgent string
	timeout   time.Duration
	log       *zap.Logger
}

// NewProber builds a Prober.
func NewProber(userAgent string, timeout time.Duration, log *zap.Logger) *Prober {
	return &Prober{userAgent: userAgent, timeout: timeout, log: log}
}

// Fetch retrieves rawURL without JavaScript execution.
func (p *Prober) Fetch(ctx context.Context, rawURL string) (scrape.Page, error) {
	if err := ctx.Err(); err != nil {
		return scrape.Page{}, err
	}

	start := time.Now()
	page := scrape.Page{URL: rawURL}

	// A collector per fetch: they are cheap and it sidesteps colly's
	// revisit bookkeeping.
	c := colly.NewCollector(
		colly.UserAgent(p.userAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(p.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "pl-PL,pl;q=0.9,en;q=0.8")
	})

	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		page.Body = r.Body
		page.StatusCode = r.StatusCode
		page.FinalURL = r.Request.URL.String()
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil {
			page.Body = r.Body
			page.StatusCode = r.StatusCode
		}
	})

	if err := c.Visit(rawURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	page.Duration = time.Since(start)

	if fetchErr != nil {
		// Block pages are meaningful content for the challenge detector.
		if page.StatusCode == 403 || page.StatusCode == 429 {
			p.log.Debug("probe received block status",
				zap.String("url", rawURL), zap.Int("status", page.StatusCode))
			return page, nil
		}
		return scrape.Page{}, fmt.Errorf("probe %s: %w", rawURL, fetchErr)
	}

	return page, nil
}
