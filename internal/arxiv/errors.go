package arxiv

import (
	"errors"
	"fmt"
)

// Common errors returned by the arXiv client.
var (
	// ErrNotFound indicates the identifier does not exist upstream.
	// It is never retried and propagates immediately.
	ErrNotFound = errors.New("arXiv ID not found")

	// ErrInvalidResponse indicates an unparseable API response.
	ErrInvalidResponse = errors.New("invalid response from arXiv API")

	// ErrNetworkError indicates a connectivity problem.
	ErrNetworkError = errors.New("network error communicating with arXiv")
)

// APIError represents a non-2xx response from the arXiv export API.
type APIError struct {
	StatusCode int
	ArxivID    string
}

func (e *APIError) Error() string {
	if e.ArxivID != "" {
		return fmt.Sprintf("arXiv API error (status %d) for %s", e.StatusCode, e.ArxivID)
	}
	return fmt.Sprintf("arXiv API error (status %d)", e.StatusCode)
}

// Transient reports whether the failure should be retried with backoff.
func (e *APIError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode == 503
}

// IsNotFound returns true if the error indicates a missing identifier.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient returns true for rate-limit and service-unavailable errors.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Transient()
}
