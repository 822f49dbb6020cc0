package scrape

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsGate enforces robots.txt rules for the crawl target. The rules file
// is fetched once, on first use. Fetch or parse failures leave the gate open:
// an unreachable robots.txt must not stall the session, only an explicit
// disallow blocks a URL.
type RobotsGate struct {
	robotsURL string
	agent     string
	respect   bool
	client    *http.Client
	log       *zap.Logger

	once  sync.Once
	group *robotstxt.Group
}

// NewRobotsGate builds a gate for the robots.txt at robotsURL, matched against
// the given user agent. When respect is false the gate always allows.
func NewRobotsGate(robotsURL, agent string, respect bool, log *zap.Logger) *RobotsGate {
	return &RobotsGate{
		robotsURL: robotsURL,
		agent:     agent,
		respect:   respect,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

// Allowed reports whether rawURL may be fetched.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) bool {
	if !g.respect {
		return true
	}

	g.once.Do(func() { g.load(ctx) })

	if g.group == nil {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		g.log.Warn("unparseable URL at robots gate", zap.String("url", rawURL), zap.Error(err))
		return true
	}

	path := u.Path
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	allowed := g.group.Test(path)
	if !allowed {
		g.log.Info("robots.txt disallows URL", zap.String("url", rawURL))
	}
	return allowed
}

func (g *RobotsGate) load(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.robotsURL, nil)
	if err != nil {
		g.log.Warn("building robots.txt request failed, gate stays open", zap.Error(err))
		return
	}
	req.Header.Set("User-Agent", g.agent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("fetching robots.txt failed, gate stays open",
			zap.String("url", g.robotsURL), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		g.log.Warn("reading robots.txt failed, gate stays open", zap.Error(err))
		return
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		g.log.Warn("parsing robots.txt failed, gate stays open", zap.Error(err))
		return
	}

	g.group = data.FindGroup(g.agent)
	g.log.Info("robots.txt loaded", zap.String("url", g.robotsURL), zap.Int("status", resp.StatusCode))
}
