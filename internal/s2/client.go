package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hoangnd/texcrawl/internal/ratelimit"
)

const (
	// DefaultBaseURL is the Semantic Scholar Graph API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultDelay is the fixed inter-request delay. The graph endpoint is
	// treated as lower-risk than arXiv: a fixed gate, no exponential
	// backoff.
	DefaultDelay = 1200 * time.Millisecond

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 60 * time.Second

	// apiKeyHeader carries the optional Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// referenceFields is requested for every references lookup.
	referenceFields = "references,references.externalIds,references.title,references.authors,references.paperId"
)

// Client is a rate-limited client for the Semantic Scholar Graph API.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	baseURL    string
	apiKey     string
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a Graph API client gated by the given limiter.
// S2_API_KEY is read from the environment when no key option is given.
func NewClient(limiter *ratelimit.Limiter, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    limiter,
		baseURL:    DefaultBaseURL,
		userAgent:  "texcrawl/1.0",
	}
	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// References queries the citation graph for the paper's reference list and
// returns the subset that carries an arXiv identifier. One request per
// paper, behind the fixed-delay gate.
func (c *Client) References(ctx context.Context, baseID string) ([]ReferenceStub, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/paper/arXiv:%s?fields=%s", c.baseURL, baseID, referenceFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, baseID)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, baseID)
	case resp.StatusCode != http.StatusOK:
		return nil, &APIError{StatusCode: resp.StatusCode, PaperID: baseID}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrInvalidResponse, err)
	}

	var paper graphPaper
	if err := json.Unmarshal(body, &paper); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	stubs := make([]ReferenceStub, 0, len(paper.References))
	for _, ref := range paper.References {
		if ref.ExternalIDs.ArXiv == "" {
			continue
		}
		authors := make([]string, 0, len(ref.Authors))
		for _, a := range ref.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}
		stubs = append(stubs, ReferenceStub{
			ArxivID: ref.ExternalIDs.ArXiv,
			Title:   ref.Title,
			Authors: authors,
			S2ID:    ref.PaperID,
		})
	}
	return stubs, nil
}
