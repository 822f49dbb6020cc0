package scrape

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/config"
	"github.com/mkarwowski/adscout/internal/retry"
)

// Limiter paces outbound page requests for one crawl session. Every fetch
// waits a jittered delay in [min, max]; on top of that a hard floor of
// 60s/callsPerMinute since the previous request is enforced, whichever is
// longer. One Limiter is shared by all fetch paths so the floor holds across
// the whole session.
type Limiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	interval time.Duration

	mu       sync.Mutex
	lastCall time.Time

	rng *rand.Rand
	log *zap.Logger
}

// NewLimiter builds a Limiter from the rate section of the configuration.
func NewLimiter(cfg config.RateConfig, log *zap.Logger) *Limiter {
	return &Limiter{
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		interval: time.Duration(float64(time.Minute) / float64(cfg.CallsPerMinute)),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log,
	}
}

// Wait blocks until the next request is polite to issue. It returns only the
// context error; the limiter itself cannot fail.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	delay := l.minDelay
	if span := l.maxDelay - l.minDelay; span > 0 {
		delay += time.Duration(l.rng.Int63n(int64(span) + 1))
	}
	if !l.lastCall.IsZero() {
		if floor := l.interval - time.Since(l.lastCall); floor > delay {
			delay = floor
		}
	}
	l.mu.Unlock()

	if delay > 0 {
		l.log.Debug("pacing request", zap.Duration("delay", delay))
		if err := retry.SleepFor(ctx, delay); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.lastCall = time.Now()
	l.mu.Unlock()
	return nil
}
