package oracle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces the oracle's stated request window locally, so the
// client throttles itself instead of relying on the server's 429s.
// Wraps golang.org/x/time/rate, refreshed from each /status response's
// reported window so the budget tracks the server's own bookkeeping.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter builds a limiter allowing amount requests per window,
// with a burst equal to amount (the oracle's window is a fixed bucket,
// not a smoothed rate).
func NewLimiter(amount int, window time.Duration) *Limiter {
	if amount < 1 {
		amount = 1
	}
	every := window / time.Duration(amount)
	return &Limiter{limiter: rate.NewLimiter(rate.Every(every), amount)}
}

// Wait blocks until a request may proceed, or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Adjust reconfigures the limiter from a fresh Status reading.
func (l *Limiter) Adjust(amount int, window time.Duration) {
	if amount < 1 {
		amount = 1
	}
	every := window / time.Duration(amount)
	l.limiter.SetLimit(rate.Every(every))
	l.limiter.SetBurst(amount)
}
