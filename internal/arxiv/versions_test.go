package arxiv

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"
)

func TestDiscoverVersionsStopsAtFirstFailure(t *testing.T) {
	srv := newFeedServer(t, map[string]testEntry{
		"1706.03762v1": {id: "1706.03762v1", title: "T", published: "2017-06-12T00:00:00Z"},
		"1706.03762v2": {id: "1706.03762v2", title: "T", published: "2017-06-30T00:00:00Z"},
		// v3 resolves to an empty feed (not found).
	}, nil)

	c := newTestClient(t, srv.URL)
	got := c.DiscoverVersions(context.Background(), "1706.03762", false)
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("DiscoverVersions = %v, want [1 2]", got)
	}
}

func TestDiscoverVersionsAssumesV1WhenAllProbesFail(t *testing.T) {
	srv := newFeedServer(t, nil, nil)

	c := newTestClient(t, srv.URL)
	got := c.DiscoverVersions(context.Background(), "9999.99999", false)
	if !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("DiscoverVersions = %v, want [1]", got)
	}
}

func TestDiscoverVersionsV1Only(t *testing.T) {
	var hits atomic.Int64
	srv := newFeedServer(t, nil, &hits)

	c := newTestClient(t, srv.URL)
	got := c.DiscoverVersions(context.Background(), "1706.03762", true)
	if !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("DiscoverVersions = %v, want [1]", got)
	}
	if hits.Load() != 0 {
		t.Errorf("v1-only mode made %d network calls, want 0", hits.Load())
	}
}
