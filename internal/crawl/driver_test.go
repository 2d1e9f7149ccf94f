package crawl

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

// fakeProcessor maps identifiers to canned results and tracks how many
// workers are inside Process at once.
type fakeProcessor struct {
	results    map[string]Result
	inFlight   atomic.Int64
	maxFlight  atomic.Int64
	totalCalls atomic.Int64
}

func (f *fakeProcessor) Process(_ context.Context, baseID string) Result {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxFlight.Load()
		if cur <= max || f.maxFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	f.totalCalls.Add(1)

	if r, ok := f.results[baseID]; ok {
		return r
	}
	return Result{ArxivID: baseID, Fetched: 1}
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []Result
	err     error
}

func (f *fakeRecorder) Record(r Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return f.err
}

func TestRunProcessesAllPapers(t *testing.T) {
	ids := []string{"2404.00001", "2404.00002", "2404.00003", "2404.00004", "2404.00005"}
	proc := &fakeProcessor{}
	d := &Driver{Pipeline: proc, Workers: 3, Log: zerolog.Nop()}

	sum := d.Run(context.Background(), ids)

	if proc.totalCalls.Load() != int64(len(ids)) {
		t.Errorf("processed %d papers, want %d", proc.totalCalls.Load(), len(ids))
	}
	if sum.Total != len(ids) || sum.Succeeded != len(ids) {
		t.Errorf("summary = %+v, want all %d succeeded", sum, len(ids))
	}
	if got := proc.maxFlight.Load(); got > 3 {
		t.Errorf("observed %d concurrent workers, want at most 3", got)
	}
	for i, id := range ids {
		if sum.Results[i].ArxivID != id {
			t.Errorf("Results[%d].ArxivID = %q, want %q", i, sum.Results[i].ArxivID, id)
		}
	}
}

func TestRunClassifiesOutcomes(t *testing.T) {
	proc := &fakeProcessor{results: map[string]Result{
		"a": {ArxivID: "a", Fetched: 1},
		"b": {ArxivID: "b", Fetched: 0},
		"c": {ArxivID: "c", Err: errors.New("boom")},
	}}
	d := &Driver{Pipeline: proc, Workers: 2, Log: zerolog.Nop()}

	sum := d.Run(context.Background(), []string{"a", "b", "c"})

	if sum.Succeeded != 1 || sum.NoSource != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want 1/1/1", sum)
	}
}

func TestRunInvokesRecorder(t *testing.T) {
	proc := &fakeProcessor{}
	rec := &fakeRecorder{}
	d := &Driver{Pipeline: proc, Workers: 2, Recorder: rec, Log: zerolog.Nop()}

	ids := []string{"a", "b", "c"}
	d.Run(context.Background(), ids)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.records) != len(ids) {
		t.Errorf("recorded %d results, want %d", len(rec.records), len(ids))
	}
}

func TestRunRecorderFailureDoesNotAbort(t *testing.T) {
	proc := &fakeProcessor{}
	rec := &fakeRecorder{err: errors.New("disk full")}
	d := &Driver{Pipeline: proc, Workers: 1, Recorder: rec, Log: zerolog.Nop()}

	sum := d.Run(context.Background(), []string{"a", "b"})
	if sum.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2 despite recorder errors", sum.Succeeded)
	}
}

func TestRunEmptyInput(t *testing.T) {
	d := &Driver{Pipeline: &fakeProcessor{}, Log: zerolog.Nop()}
	sum := d.Run(context.Background(), nil)
	if sum.Total != 0 || len(sum.Results) != 0 {
		t.Errorf("summary = %+v, want empty", sum)
	}
}

func TestRunDefaultsWorkerCount(t *testing.T) {
	proc := &fakeProcessor{}
	d := &Driver{Pipeline: proc, Log: zerolog.Nop()}
	sum := d.Run(context.Background(), []string{"a"})
	if sum.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", sum.Succeeded)
	}
}
