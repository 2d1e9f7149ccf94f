// Package ratelimit provides the shared request gates and retry policy
// used against rate-limited upstreams. One Limiter instance is constructed
// per upstream at startup and injected into every component that calls it.
package ratelimit

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// ErrRetriesExhausted indicates a transient failure persisted through the
// full backoff schedule. It is scoped to the single operation that
// triggered it, never to the whole crawl.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Limiter enforces a minimum interval between requests to one upstream.
// It is safe for concurrent use; goroutines sharing an instance serialize
// so that successive grants are at least the interval apart.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter granting one request per minInterval.
func NewLimiter(minInterval time.Duration) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until a request slot is available or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Backoff is the retry policy for transient upstream failures (HTTP 429
// and 503). Attempts are counted explicitly by the caller; exceeding
// MaxAttempts must surface ErrRetriesExhausted rather than looping on.
type Backoff struct {
	MaxAttempts int
	Cap         time.Duration // upper bound on the exponential delay
	Jitter      time.Duration // random addition in [0, Jitter)
}

// MetadataBackoff is the default policy for the metadata endpoint.
func MetadataBackoff() Backoff {
	return Backoff{MaxAttempts: 6, Cap: 60 * time.Second, Jitter: 1500 * time.Millisecond}
}

// DownloadBackoff is the default policy for archive downloads.
func DownloadBackoff() Backoff {
	return Backoff{MaxAttempts: 5, Cap: 60 * time.Second, Jitter: 1500 * time.Millisecond}
}

// Delay returns the sleep duration before retrying the given zero-based
// attempt: min(Cap, 2^attempt seconds) plus jitter.
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Cap
	// Shift overflows past attempt 62; the cap applies long before that.
	if attempt < 30 {
		if exp := time.Duration(1<<uint(attempt)) * time.Second; exp < b.Cap {
			d = exp
		}
	}
	if b.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(b.Jitter)))
	}
	return d
}

// Sleep waits Delay(attempt), honoring context cancellation.
func (b Backoff) Sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(b.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
