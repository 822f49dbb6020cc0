// Package retry implements the bounded retry policy shared by the analysis
// and delivery protocols.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded retry budget with exponential backoff.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Backoff returns the wait duration before the given attempt (0-based for
// the first retry). The delay doubles each attempt, capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Sleep suspends the caller for the backoff of the given attempt, returning
// early with the context error on cancellation.
func (p Policy) Sleep(ctx context.Context, attempt int) error {
	return SleepFor(ctx, p.Backoff(attempt))
}

// SleepFor suspends the caller for delay, honoring ctx cancellation.
func SleepFor(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry sleep: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Do runs fn up to MaxAttempts times, sleeping the backoff between attempts.
// It returns nil on the first success, or the last error once the budget is
// exhausted.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry canceled: %w", err)
		}
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt < p.MaxAttempts-1 {
			if err := p.Sleep(ctx, attempt); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("exhausted %d attempts: %w", p.MaxAttempts, lastErr)
}
