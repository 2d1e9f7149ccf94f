package crawl

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWorkers is the default pool size. It should be tuned against the
// limiter intervals: throughput against any one upstream is bounded by
// pool_size / min_interval regardless of how many workers exist.
const DefaultWorkers = 6

// Processor runs the pipeline for one paper. *Pipeline satisfies it.
type Processor interface {
	Process(ctx context.Context, baseID string) Result
}

// Recorder persists per-paper results. The manifest store satisfies it.
type Recorder interface {
	Record(r Result) error
}

// Summary reports a whole crawl.
type Summary struct {
	Total     int
	Succeeded int
	NoSource  int
	Failed    int
	Elapsed   time.Duration
	Results   []Result
}

// Driver fans the pipeline out over a fixed-size worker pool. Papers are
// independent units of work; completion order is whatever the workers
// produce, and per-paper failures are collected, never re-raised.
type Driver struct {
	Pipeline     Processor
	Workers      int
	SleepBetween time.Duration
	Recorder     Recorder // optional
	Log          zerolog.Logger
}

// Run processes every identifier and returns the summary. Results are
// positionally aligned with ids.
func (d *Driver) Run(ctx context.Context, ids []string) Summary {
	workers := d.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	total := len(ids)
	start := time.Now()
	d.Log.Info().Int("papers", total).Int("workers", workers).Msg("starting crawl")

	results := make([]Result, total)
	var completed atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for i, id := range ids {
		wg.Add(1)
		go func(idx int, baseID string) {
			defer wg.Done()
			sem <- struct{}{}        // acquire semaphore
			defer func() { <-sem }() // release semaphore

			r := d.Pipeline.Process(ctx, baseID)
			results[idx] = r
			done := completed.Add(1)

			evt := d.Log.Info()
			if r.Err != nil {
				evt = d.Log.Error().Err(r.Err)
			}
			evt.Str("id", baseID).
				Int64("done", done).
				Int("total", total).
				Str("status", r.Status()).
				Dur("took", r.Duration).
				Dur("elapsed", time.Since(start)).
				Msg("paper completed")

			if d.Recorder != nil {
				if err := d.Recorder.Record(r); err != nil {
					d.Log.Warn().Str("id", baseID).Err(err).Msg("recording result failed")
				}
			}
			if d.SleepBetween > 0 {
				d.pause(ctx)
			}
		}(i, id)
	}
	wg.Wait()

	sum := Summary{Total: total, Elapsed: time.Since(start), Results: results}
	for _, r := range results {
		switch r.Status() {
		case "ok":
			sum.Succeeded++
		case "no_source":
			sum.NoSource++
		default:
			sum.Failed++
		}
	}
	d.Log.Info().
		Int("papers", sum.Total).
		Int("ok", sum.Succeeded).
		Int("no_source", sum.NoSource).
		Int("failed", sum.Failed).
		Dur("elapsed", sum.Elapsed).
		Msg("crawl finished")
	return sum
}

func (d *Driver) pause(ctx context.Context) {
	timer := time.NewTimer(d.SleepBetween)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
