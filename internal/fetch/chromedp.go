package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mkarwowski/adscout/internal/scrape"
)

// Renderer fetches pages through a headless Chrome instance. One browser
// process is shared for the whole session; each fetch runs in a fresh tab.
// A per-domain token bucket caps how hard the browser itself can hit the
// site, independent of the session pacer.
type Renderer struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	limiter  *rate.Limiter
	ua       string
	log      *zap.Logger
}

// NewRenderer starts the shared browser allocator. Close must be called to
// tear the browser down.
func NewRenderer(userAgent string, timeout time.Duration, domainQPS float64, log *zap.Logger) *Renderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	if domainQPS <= 0 {
		domainQPS = 1
	}
	return &Renderer{
		allocCtx: allocCtx,
		cancel:   cancel,
		timeout:  timeout,
		limiter:  rate.NewLimiter(rate.Limit(domainQPS), 1),
		ua:       userAgent,
		log:      log,
	}
}

// Close shuts the shared browser down.
func (r *Renderer) Close() { r.cancel() }

// Fetch renders rawURL in a fresh tab and returns the post-JavaScript DOM.
func (r *Renderer) Fetch(ctx context.Context, rawURL string) (scrape.Page, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return scrape.Page{}, fmt.Errorf("render limiter: %w", err)
	}

	start := time.Now()
	tabCtx, cancelTab := r.newTab(ctx)
	defer cancelTab()

	var html, finalURL string
	err := chromedp.Run(tabCtx,
		emulation.SetUserAgentOverride(r.ua),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return scrape.Page{}, fmt.Errorf("render %s: %w", rawURL, err)
	}

	dur := time.Since(start)
	r.log.Debug("page rendered",
		zap.String("url", rawURL), zap.Duration("took", dur), zap.Int("bytes", len(html)))

	return scrape.Page{
		URL:          rawURL,
		FinalURL:     finalURL,
		StatusCode:   200,
		Body:         []byte(html),
		UsedHeadless: true,
		Duration:     dur,
	}, nil
}

// Screenshot renders rawURL and writes a full-page capture to path.
func (r *Renderer) Screenshot(ctx context.Context, rawURL, path string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("render limiter: %w", err)
	}

	tabCtx, cancelTab := r.newTab(ctx)
	defer cancelTab()

	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 80),
	)
	if err != nil {
		return fmt.Errorf("screenshot %s: %w", rawURL, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// newTab opens a fresh tab bounded by the render timeout and tied to the
// caller's context for cancellation.
func (r *Renderer) newTab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, cancelTab := chromedp.NewContext(r.allocCtx)
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	stop := context.AfterFunc(ctx, cancelTab)
	return tabCtx, func() {
		stop()
		cancelTimeout()
		cancelTab()
	}
}
