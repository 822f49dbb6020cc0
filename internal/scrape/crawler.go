package scrape

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/config"
	"github.com/mkarwowski/adscout/internal/metrics"
	"github.com/mkarwowski/adscout/internal/retry"
)

// Crawler walks paginated search results and emits one ListingRecord per ad
// detail page, strictly in crawl order. Every page fetch goes through the
// pacer and the robots gate; challenged pages are diverted to the review
// sink and never parsed.
type Crawler struct {
	cfg       config.CrawlerConfig
	fetcher   PageFetcher
	robots    RobotsPolicy
	pacer     Pacer
	review    ReviewSink
	extractor *Extractor
	log       *zap.Logger

	// seen spans the whole session so ads appearing under several queries
	// are emitted once.
	seen map[string]struct{}
}

// NewCrawler wires a Crawler from its collaborators.
func NewCrawler(
	cfg config.CrawlerConfig,
	fetcher PageFetcher,
	robots RobotsPolicy,
	pacer Pacer,
	review ReviewSink,
	extractor *Extractor,
	log *zap.Logger,
) *Crawler {
	return &Crawler{
		cfg:       cfg,
		fetcher:   fetcher,
		robots:    robots,
		pacer:     pacer,
		review:    review,
		extractor: extractor,
		log:       log,
		seen:      make(map[string]struct{}),
	}
}

// Run crawls every configured query in order. A query that fails is logged
// and the session moves on; only context cancellation or an emit error stops
// the run.
func (c *Crawler) Run(ctx context.Context, emit Emit) error {
	for _, query := range c.cfg.Queries {
		n, err := c.CrawlQuery(ctx, query, emit)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.log.Error("query crawl failed", zap.String("query", query), zap.Error(err))
			continue
		}
		c.log.Info("query crawl finished", zap.String("query", query), zap.Int("listings", n))
	}
	return nil
}

// CrawlQuery pages through search results for one query until MaxAdsPerQuery
// records are emitted or the results run out. It returns the number of
// records emitted.
func (c *Crawler) CrawlQuery(ctx context.Context, query string, emit Emit) (int, error) {
	collected := 0
	for page := 1; collected < c.cfg.MaxAdsPerQuery; page++ {
		searchURL := BuildSearchURL(c.cfg.SearchURLTemplate, query, page)

		if !c.robots.Allowed(ctx, searchURL) {
			c.log.Warn("search URL disallowed by robots.txt, stopping query",
				zap.String("url", searchURL))
			return collected, nil
		}

		if err := c.pacer.Wait(ctx); err != nil {
			return collected, err
		}

		p, err := c.fetcher.Fetch(ctx, searchURL)
		if err != nil {
			return collected, fmt.Errorf("fetch search page %d for %q: %w", page, query, err)
		}
		metrics.PagesFetched.WithLabelValues("search").Inc()

		if challenged, reason := IsChallenge(p); challenged {
			c.divert(ctx, searchURL, reason)
			return collected, nil
		}

		links, err := c.extractor.ListingLinks(p, c.cfg.BaseURL)
		if err != nil {
			return collected, err
		}
		if len(links) == 0 {
			c.log.Info("no more results", zap.String("query", query), zap.Int("page", page))
			return collected, nil
		}

		c.log.Info("search page scanned",
			zap.String("query", query), zap.Int("page", page), zap.Int("links", len(links)))

		// A page where every link was already seen means pagination has
		// wrapped around; stop rather than loop.
		newLinks := 0
		for _, link := range links {
			if collected >= c.cfg.MaxAdsPerQuery {
				break
			}
			if _, dup := c.seen[link]; dup {
				continue
			}
			c.seen[link] = struct{}{}
			newLinks++

			emitted, err := c.visit(ctx, link, query, emit)
			if err != nil {
				return collected, err
			}
			if !emitted {
				continue
			}
			collected++

			if c.cfg.RecordDelay > 0 && collected < c.cfg.MaxAdsPerQuery {
				if err := retry.SleepFor(ctx, c.cfg.RecordDelay); err != nil {
					return collected, err
				}
			}
		}
		if newLinks == 0 {
			c.log.Info("no new listings", zap.String("query", query), zap.Int("page", page))
			return collected, nil
		}
	}
	return collected, nil
}

// visit fetches one ad detail page and emits its record. A false return with
// nil error means the link was skipped (disallowed, challenged or broken)
// and the crawl should continue.
func (c *Crawler) visit(ctx context.Context, link, query string, emit Emit) (bool, error) {
	if !c.robots.Allowed(ctx, link) {
		return false, nil
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return false, err
	}

	p, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		c.log.Warn("listing fetch failed, skipping", zap.String("url", link), zap.Error(err))
		return false, nil
	}
	metrics.PagesFetched.WithLabelValues("detail").Inc()

	if challenged, reason := IsChallenge(p); challenged {
		c.divert(ctx, link, reason)
		return false, nil
	}

	rec, err := c.extractor.Listing(p, query)
	if err != nil {
		c.log.Warn("listing extraction failed, skipping", zap.String("url", link), zap.Error(err))
		return false, nil
	}
	metrics.ListingsScraped.Inc()

	if err := emit(ctx, rec); err != nil {
		return false, fmt.Errorf("emit %s: %w", link, err)
	}
	return true, nil
}

// divert captures a screenshot of a challenged URL and records it for manual
// review. Screenshot failures degrade to an entry without an image.
func (c *Crawler) divert(ctx context.Context, url, reason string) {
	shot := ""
	if c.cfg.ScreenshotDir != "" {
		name := fmt.Sprintf("challenge_%s.png", time.Now().UTC().Format("20060102_150405.000"))
		path := filepath.Join(c.cfg.ScreenshotDir, name)
		if err := c.fetcher.Screenshot(ctx, url, path); err != nil {
			c.log.Warn("challenge screenshot failed", zap.String("url", url), zap.Error(err))
		} else {
			shot = path
		}
	}
	c.review.Record(url, reason, shot)
}
