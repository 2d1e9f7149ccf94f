// Package s2 provides a client for the Semantic Scholar Graph API, used to
// resolve the references of a paper that carry arXiv identifiers.
package s2

// ReferenceStub is one reference as returned by the citation graph, before
// date enrichment. Only references with an arXiv external identifier are
// kept; anything else has no place in the identifier-keyed output.
type ReferenceStub struct {
	ArxivID string
	Title   string
	Authors []string
	S2ID    string // Semantic Scholar paper id
}

// ReferenceRecord is the enriched record serialized into references.json,
// keyed by the reference's own canonical folder key.
type ReferenceRecord struct {
	Title          string   `json:"paper_title"`
	Authors        []string `json:"authors"`
	SubmissionDate string   `json:"submission_date"`
	S2ID           string   `json:"semantic_scholar_id"`
}

// Wire types for the Graph API paper endpoint.
type graphPaper struct {
	PaperID    string     `json:"paperId"`
	References []graphRef `json:"references"`
}

type graphRef struct {
	PaperID     string           `json:"paperId"`
	Title       string           `json:"title"`
	Authors     []graphAuthor    `json:"authors"`
	ExternalIDs graphExternalIDs `json:"externalIds"`
}

type graphAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type graphExternalIDs struct {
	ArXiv string `json:"ArXiv"`
	DOI   string `json:"DOI"`
}
