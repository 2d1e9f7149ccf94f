package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoangnd/texcrawl/internal/arxiv"
	"github.com/hoangnd/texcrawl/internal/ratelimit"
)

const (
	// DefaultPrimaryBaseURL serves raw source archives by versioned id.
	DefaultPrimaryBaseURL = "https://arxiv.org/e-print"

	// DefaultFallbackBaseURL is the export mirror used after the paper has
	// been confirmed through the metadata API.
	DefaultFallbackBaseURL = "https://export.arxiv.org/e-print"

	// DefaultTimeout is the per-download HTTP timeout.
	DefaultTimeout = 120 * time.Second
)

// Download failure classes internal to the fetcher.
var (
	errHTMLBody  = errors.New("response body is an HTML error page")
	errEmptyBody = errors.New("empty response body")
)

// Resolver confirms a paper through the metadata API before the fallback
// download path is taken. The arxiv client satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, arxivID string) (*arxiv.Paper, error)
}

// Fetcher obtains source archives, trying the primary direct endpoint
// first and falling back to the metadata-API-mediated path. Each endpoint
// is gated by its own rate limiter; transient statuses are retried with
// bounded backoff.
type Fetcher struct {
	httpClient      *http.Client
	resolver        Resolver
	primaryLimiter  *ratelimit.Limiter
	fallbackLimiter *ratelimit.Limiter
	backoff         ratelimit.Backoff
	primaryBase     string
	fallbackBase    string
	userAgent       string
	log             zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURLs overrides the primary and fallback endpoints (for testing).
func WithBaseURLs(primary, fallback string) Option {
	return func(f *Fetcher) {
		f.primaryBase = primary
		f.fallbackBase = fallback
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = hc }
}

// WithBackoff sets the retry policy for transient download failures.
func WithBackoff(b ratelimit.Backoff) Option {
	return func(f *Fetcher) { f.backoff = b }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithLogger sets the fetcher's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

// NewFetcher creates a source fetcher. primaryLimiter gates the direct
// archive endpoint; fallbackLimiter gates the metadata-mediated path and
// should be the same instance the metadata client uses.
func NewFetcher(resolver Resolver, primaryLimiter, fallbackLimiter *ratelimit.Limiter, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		resolver:        resolver,
		primaryLimiter:  primaryLimiter,
		fallbackLimiter: fallbackLimiter,
		backoff:         ratelimit.DownloadBackoff(),
		primaryBase:     DefaultPrimaryBaseURL,
		fallbackBase:    DefaultFallbackBaseURL,
		userAgent:       "texcrawl/1.0",
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the source archive for a versioned identifier into
// destDir/filename. On success the file is a validated archive; on
// failure no file (valid or partial) is left behind. Failure of both
// paths is a skippable condition for the caller, not an error.
func (f *Fetcher) Fetch(ctx context.Context, idWithVersion, destDir, filename string) bool {
	dest := filepath.Join(destDir, filename)

	if f.tryEndpoint(ctx, f.primaryBase, f.primaryLimiter, idWithVersion, dest) {
		return true
	}

	// Fallback: confirm the paper through the metadata API (cached,
	// rate-limited), then pull the source sub-resource from the mirror.
	if _, err := f.resolver.Resolve(ctx, idWithVersion); err != nil {
		f.log.Warn().Str("id", idWithVersion).Err(err).Msg("fallback resolution failed")
		removeIfExists(dest)
		return false
	}
	if f.tryEndpoint(ctx, f.fallbackBase, f.fallbackLimiter, idWithVersion, dest) {
		return true
	}

	removeIfExists(dest)
	return false
}

// tryEndpoint downloads from one endpoint with bounded retries, then
// validates the result. Any invalid outcome removes the file.
func (f *Fetcher) tryEndpoint(ctx context.Context, base string, gate *ratelimit.Limiter, id, dest string) bool {
	for attempt := 0; attempt < f.backoff.MaxAttempts; attempt++ {
		if err := gate.Wait(ctx); err != nil {
			return false
		}

		status, err := f.download(ctx, base+"/"+id, dest)
		if err == nil {
			if IsValidArchive(dest) {
				return true
			}
			f.log.Warn().Str("id", id).Str("url", base).Msg("downloaded file is not a valid archive")
			removeIfExists(dest)
			return false
		}

		if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
			f.log.Warn().Str("id", id).Int("status", status).Int("attempt", attempt+1).
				Msg("transient download failure, backing off")
			if serr := f.backoff.Sleep(ctx, attempt); serr != nil {
				return false
			}
			continue
		}

		f.log.Warn().Str("id", id).Str("url", base).Err(err).Msg("download failed")
		break
	}
	removeIfExists(dest)
	return false
}

// download streams the response body to dest. The first 1KB is retained
// in memory and classified before anything else: a non-2xx status, an
// empty body, or HTML markers fail the download without leaving a file.
// The body is written as received and never re-read or seeked.
func (f *Fetcher) download(ctx context.Context, url, dest string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	prefix := make([]byte, sniffLen)
	n, err := io.ReadFull(resp.Body, prefix)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("reading body: %w", err)
	}
	if n == 0 {
		return 0, errEmptyBody
	}
	if looksLikeHTML(prefix[:n]) {
		return 0, errHTMLBody
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := out.Write(prefix[:n]); err != nil {
		out.Close()
		os.Remove(dest)
		return 0, fmt.Errorf("writing %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return 0, fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return 0, fmt.Errorf("closing %s: %w", dest, err)
	}
	return resp.StatusCode, nil
}

func removeIfExists(path string) {
	if _, err := os.Stat(path); err == nil {
		os.Remove(path)
	}
}
