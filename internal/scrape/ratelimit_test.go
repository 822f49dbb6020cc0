package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/config"
)

func TestLimiter_JitterWindow(t *testing.T) {
	t.Parallel()

	l := NewLimiter(config.RateConfig{
		CallsPerMinute: 6000, // 10ms floor, below the jitter window
		MinDelay:       10 * time.Millisecond,
		MaxDelay:       30 * time.Millisecond,
	}, zap.NewNop())

	for i := 0; i < 3; i++ {
		start := time.Now()
		require.NoError(t, l.Wait(context.Background()))
		elapsed := time.Since(start)
		require.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
		require.Less(t, elapsed, 500*time.Millisecond)
	}
}

func TestLimiter_FloorBetweenCalls(t *testing.T) {
	t.Parallel()

	l := NewLimiter(config.RateConfig{
		CallsPerMinute: 600, // 100ms between calls
		MinDelay:       time.Millisecond,
		MaxDelay:       time.Millisecond,
	}, zap.NewNop())

	require.NoError(t, l.Wait(context.Background()))
	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiter_Cancellation(t *testing.T) {
	t.Parallel()

	l := NewLimiter(config.RateConfig{
		CallsPerMinute: 1,
		MinDelay:       time.Minute,
		MaxDelay:       time.Minute,
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
