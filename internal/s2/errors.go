package s2

import (
	"errors"
	"fmt"
)

// Common errors returned by the Semantic Scholar client.
var (
	// ErrNotFound indicates the paper is not in the citation graph.
	ErrNotFound = errors.New("not found in Semantic Scholar")

	// ErrRateLimited indicates the API rejected the request with 429.
	ErrRateLimited = errors.New("Semantic Scholar rate limit exceeded")

	// ErrInvalidResponse indicates an unparseable API response.
	ErrInvalidResponse = errors.New("invalid response from Semantic Scholar")

	// ErrNetworkError indicates a connectivity problem.
	ErrNetworkError = errors.New("network error communicating with Semantic Scholar")
)

// APIError represents a non-2xx response from the Graph API.
type APIError struct {
	StatusCode int
	PaperID    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Semantic Scholar API error (status %d) for %s", e.StatusCode, e.PaperID)
}

// IsNotFound returns true if the error indicates a missing paper.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
