package s2

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hoangnd/texcrawl/internal/ratelimit"
)

const referencesBody = `{
  "paperId": "0b1eb35a",
  "references": [
    {
      "paperId": "abc123",
      "title": "Neural Machine Translation",
      "authors": [{"authorId": "1", "name": "D. Bahdanau"}, {"authorId": "2", "name": "Y. Bengio"}],
      "externalIds": {"ArXiv": "1409.0473", "DOI": "10.1/x"}
    },
    {
      "paperId": "def456",
      "title": "Some Book Without ArXiv",
      "authors": [{"authorId": "3", "name": "A. Author"}],
      "externalIds": {"DOI": "10.2/y"}
    },
    {
      "paperId": "ghi789",
      "title": "Layer Normalization",
      "authors": [],
      "externalIds": {"ArXiv": "1607.06450"}
    }
  ]
}`

func newTestS2(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]ClientOption{WithBaseURL(srv.URL)}, opts...)
	return NewClient(ratelimit.NewLimiter(time.Microsecond), opts...)
}

func TestReferencesFiltersToArxivIDs(t *testing.T) {
	c := newTestS2(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paper/arXiv:1706.03762" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, referencesBody)
	})

	stubs, err := c.References(context.Background(), "1706.03762")
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if len(stubs) != 2 {
		t.Fatalf("got %d stubs, want 2 (non-arXiv reference dropped)", len(stubs))
	}
	if stubs[0].ArxivID != "1409.0473" || stubs[0].S2ID != "abc123" {
		t.Errorf("stubs[0] = %+v", stubs[0])
	}
	if len(stubs[0].Authors) != 2 || stubs[0].Authors[0] != "D. Bahdanau" {
		t.Errorf("stubs[0].Authors = %v", stubs[0].Authors)
	}
	if stubs[1].ArxivID != "1607.06450" {
		t.Errorf("stubs[1] = %+v", stubs[1])
	}
}

func TestReferencesSendsAPIKey(t *testing.T) {
	var gotKey string
	c := newTestS2(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		fmt.Fprint(w, `{"paperId": "x", "references": []}`)
	}, WithAPIKey("secret"))

	if _, err := c.References(context.Background(), "1706.03762"); err != nil {
		t.Fatalf("References: %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("x-api-key = %q, want secret", gotKey)
	}
}

func TestReferencesNotFound(t *testing.T) {
	c := newTestS2(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.References(context.Background(), "9999.99999")
	if !IsNotFound(err) {
		t.Fatalf("want not-found, got %v", err)
	}
}

func TestReferencesRateLimited(t *testing.T) {
	c := newTestS2(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.References(context.Background(), "1706.03762")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
}

func TestReferencesServerError(t *testing.T) {
	c := newTestS2(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.References(context.Background(), "1706.03762")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("want APIError(502), got %v", err)
	}
}

func TestReferencesEmptyList(t *testing.T) {
	c := newTestS2(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"paperId": "x", "references": []}`)
	})

	stubs, err := c.References(context.Background(), "1706.03762")
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if len(stubs) != 0 {
		t.Errorf("got %d stubs, want 0", len(stubs))
	}
}
