package arxiv

import (
	"context"
	"fmt"

	"github.com/hoangnd/texcrawl/internal/ident"
)

// DateLayout is the serialization format for all dates in output files.
const DateLayout = "2006-01-02"

// PaperMeta is the per-paper record serialized to metadata.json.
// Field names are stable output contract; submission_date always equals
// revised_dates[0].
type PaperMeta struct {
	Title          string   `json:"paper_title"`
	Authors        []string `json:"authors"`
	Venue          *string  `json:"publication_venue"`
	SubmissionDate string   `json:"submission_date"`
	RevisedDates   []string `json:"revised_dates"`
}

// BuildMetadata composes the paper record: title, authors and venue come
// from the first discovered version, and each version contributes its own
// published date (one resolution per version, each memoized). A resolution
// failure here is the paper's primary metadata failing and propagates to
// the caller.
func (c *Client) BuildMetadata(ctx context.Context, baseID string, versions []int) (*PaperMeta, error) {
	if len(versions) == 0 {
		versions = []int{1}
	}

	first, err := c.Resolve(ctx, ident.WithVersion(baseID, versions[0]))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ident.WithVersion(baseID, versions[0]), err)
	}

	meta := &PaperMeta{
		Title:   first.Title,
		Authors: append([]string(nil), first.Authors...),
	}
	if meta.Authors == nil {
		meta.Authors = []string{}
	}
	if v := first.Venue(); v != "" {
		meta.Venue = &v
	}

	meta.RevisedDates = make([]string, 0, len(versions))
	for _, v := range versions {
		p, err := c.Resolve(ctx, ident.WithVersion(baseID, v))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", ident.WithVersion(baseID, v), err)
		}
		meta.RevisedDates = append(meta.RevisedDates, p.Published.Format(DateLayout))
	}
	meta.SubmissionDate = meta.RevisedDates[0]

	return meta, nil
}
