// Package ratelimit throttles outbound recognition calls.
//
// The orchestrator calls Gate.Wait after every image, so swapping a
// FixedDelay for a TokenBucket changes the pacing policy without touching
// the loop.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate suspends the caller until the next call is permitted.
type Gate interface {
	// Wait blocks until the next call may proceed, or returns ctx.Err()
	// if the context ends first.
	Wait(ctx context.Context) error
}

// FixedDelay pauses for the same duration on every Wait.
type FixedDelay struct {
	Delay time.Duration

	// sleep is injectable for testing.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFixedDelay returns a gate that sleeps d on every Wait. A zero or
// negative delay never blocks.
func NewFixedDelay(d time.Duration) *FixedDelay {
	return &FixedDelay{Delay: d, sleep: Sleep}
}

// Wait implements Gate.
func (g *FixedDelay) Wait(ctx context.Context) error {
	if g.Delay <= 0 {
		return ctx.Err()
	}
	sleep := g.sleep
	if sleep == nil {
		sleep = Sleep
	}
	return sleep(ctx, g.Delay)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// TokenBucket permits one call per interval with a configurable burst.
// Unlike FixedDelay it does not add the interval to slow calls, which makes
// it the gate to use once calls overlap.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket returns a gate that allows burst calls immediately and then
// one call every interval. A non-positive interval disables limiting.
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TokenBucket{limiter: rate.NewLimiter(limit, burst)}
}

// Wait implements Gate.
func (g *TokenBucket) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Unlimited is a Gate that never blocks.
type Unlimited struct{}

// Wait implements Gate.
func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
