package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hoangnd/texcrawl/internal/ratelimit"
)

const (
	// DefaultBaseURL is the arXiv export API query endpoint.
	DefaultBaseURL = "https://export.arxiv.org/api/query"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultCacheSize bounds the per-identifier memo cache.
	DefaultCacheSize = 4096

	// DefaultUserAgent identifies the crawler to arXiv.
	DefaultUserAgent = "texcrawl/1.0"
)

// Client resolves paper metadata through the arXiv export API. Lookups are
// serialized behind a shared rate limiter, retried with backoff on
// transient failures, and memoized per exact identifier string in a
// bounded LRU cache. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	backoff    ratelimit.Backoff
	baseURL    string
	userAgent  string
	cache      *lru.Cache[string, *Paper]
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom endpoint (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff sets the retry policy for transient failures.
func WithBackoff(b ratelimit.Backoff) ClientOption {
	return func(c *Client) { c.backoff = b }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a metadata client gated by the given limiter.
func NewClient(limiter *ratelimit.Limiter, cacheSize int, opts ...ClientOption) (*Client, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *Paper](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating metadata cache: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    limiter,
		backoff:    ratelimit.MetadataBackoff(),
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		cache:      cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Resolve fetches the record for an identifier (with or without version).
// Repeated lookups of the same identifier string return the cached result
// without a network call. Not-found propagates immediately; 429/503 are
// retried with backoff up to the policy's attempt cap.
func (c *Client) Resolve(ctx context.Context, arxivID string) (*Paper, error) {
	if p, ok := c.cache.Get(arxivID); ok {
		return p, nil
	}

	for attempt := 0; attempt < c.backoff.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		p, err := c.fetchEntry(ctx, arxivID)
		if err == nil {
			// A concurrent lookup of the same key may have raced us here;
			// Add overwrites, which keeps the cache consistent either way.
			c.cache.Add(arxivID, p)
			return p, nil
		}
		if IsTransient(err) {
			if serr := c.backoff.Sleep(ctx, attempt); serr != nil {
				return nil, serr
			}
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("resolving %s: %w", arxivID, ratelimit.ErrRetriesExhausted)
}

// fetchEntry performs one export API query for a single identifier.
func (c *Client) fetchEntry(ctx context.Context, arxivID string) (*Paper, error) {
	q := url.Values{}
	q.Set("id_list", arxivID)
	q.Set("max_results", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, ArxivID: arxivID}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrInvalidResponse, err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, arxivID)
	}

	entry := feed.Entries[0]
	// Unknown identifiers come back as a feed-level error entry rather
	// than an empty feed.
	if strings.Contains(entry.ID, "/api/errors") || entry.Published == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, arxivID)
	}

	p, err := entry.toPaper()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return p, nil
}

// CacheLen reports the number of memoized records (for diagnostics).
func (c *Client) CacheLen() int {
	return c.cache.Len()
}
