package s2

import (
	"context"

	"github.com/hoangnd/texcrawl/internal/arxiv"
	"github.com/hoangnd/texcrawl/internal/ident"
)

// Resolver is the metadata lookup used to date references. The arXiv
// client satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, arxivID string) (*arxiv.Paper, error)
}

// Enrich resolves each reference's v1 submission date through the
// metadata resolver and returns the records keyed by the reference's
// canonical folder key. Enrichment is best-effort: references whose date
// cannot be resolved are dropped silently, and two references deriving
// the same key overwrite last-write-wins.
func Enrich(ctx context.Context, resolver Resolver, stubs []ReferenceStub) map[string]ReferenceRecord {
	out := make(map[string]ReferenceRecord, len(stubs))
	for _, stub := range stubs {
		base := ident.StripVersion(stub.ArxivID)
		p, err := resolver.Resolve(ctx, ident.WithVersion(base, 1))
		if err != nil {
			continue
		}
		authors := stub.Authors
		if authors == nil {
			authors = []string{}
		}
		out[ident.CanonicalKey(base)] = ReferenceRecord{
			Title:          stub.Title,
			Authors:        authors,
			SubmissionDate: p.Published.Format(arxiv.DateLayout),
			S2ID:           stub.S2ID,
		}
	}
	return out
}
