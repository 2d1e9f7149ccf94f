package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLimiterSpacesConcurrentAcquisitions(t *testing.T) {
	const (
		n        = 5
		interval = 20 * time.Millisecond
	)
	limiter := NewLimiter(interval)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(context.Background()); err != nil {
				t.Errorf("Wait: %v", err)
			}
		}()
	}
	wg.Wait()

	// N serialized grants span at least (N-1) intervals.
	if span := time.Since(start); span < (n-1)*interval {
		t.Errorf("span %v shorter than %v", span, (n-1)*interval)
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	limiter := NewLimiter(time.Hour)
	// First grant is immediate, second would wait an hour.
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("expected error from canceled Wait")
	}
}

func TestBackoffDelaysNonDecreasingUpToCap(t *testing.T) {
	b := Backoff{MaxAttempts: 8, Cap: 8 * time.Second}

	prev := time.Duration(0)
	for attempt := 0; attempt < b.MaxAttempts; attempt++ {
		d := b.Delay(attempt)
		if d < prev {
			t.Errorf("attempt %d: delay %v decreased from %v", attempt, d, prev)
		}
		if d > b.Cap {
			t.Errorf("attempt %d: delay %v exceeds cap %v", attempt, d, b.Cap)
		}
		prev = d
	}
}

func TestBackoffDelayBoundedByCapPlusJitter(t *testing.T) {
	b := Backoff{MaxAttempts: 6, Cap: 2 * time.Second, Jitter: 500 * time.Millisecond}

	for attempt := 0; attempt < 40; attempt++ {
		d := b.Delay(attempt)
		if d > b.Cap+b.Jitter {
			t.Errorf("attempt %d: delay %v exceeds cap+jitter %v", attempt, d, b.Cap+b.Jitter)
		}
		if d < 0 {
			t.Errorf("attempt %d: negative delay %v", attempt, d)
		}
	}
}

func TestBackoffSleepCancellation(t *testing.T) {
	b := Backoff{MaxAttempts: 3, Cap: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Sleep(ctx, 5); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on canceled context: got %v, want context.Canceled", err)
	}
}

func TestBackoffSleepShortDelay(t *testing.T) {
	b := Backoff{MaxAttempts: 3, Cap: time.Millisecond}
	if err := b.Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep: %v", err)
	}
}
