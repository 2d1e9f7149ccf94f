// Package arxiv provides a rate-limited, caching client for the arXiv
// export API (Atom), plus version discovery and metadata building on top
// of it.
package arxiv

import (
	"encoding/xml"
	"strings"
	"time"
)

// Paper is the resolved bibliographic record for one versioned identifier.
type Paper struct {
	ID         string // versioned identifier, e.g. "1706.03762v5"
	Title      string
	Authors    []string // insertion order = author order
	Published  time.Time
	Updated    time.Time
	JournalRef string
	Comment    string
	DOI        string
	Categories []string
	AbsURL     string
}

// Venue returns the best available publication venue: the journal
// reference when present, else the author comment, else empty.
func (p *Paper) Venue() string {
	if p.JournalRef != "" {
		return p.JournalRef
	}
	return p.Comment
}

// atomFeed mirrors the export API response. Namespaced arXiv extension
// elements (journal_ref, comment, doi) match by local name.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Authors    []atomAuthor   `xml:"author"`
	JournalRef string         `xml:"journal_ref"`
	Comment    string         `xml:"comment"`
	DOI        string         `xml:"doi"`
	Categories []atomCategory `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// toPaper converts an Atom entry to a Paper. Entry IDs look like
// "http://arxiv.org/abs/1706.03762v5".
func (e *atomEntry) toPaper() (*Paper, error) {
	p := &Paper{
		Title:      strings.Join(strings.Fields(e.Title), " "),
		JournalRef: strings.TrimSpace(e.JournalRef),
		Comment:    strings.TrimSpace(e.Comment),
		DOI:        strings.TrimSpace(e.DOI),
		AbsURL:     e.ID,
	}

	if i := strings.Index(e.ID, "/abs/"); i >= 0 {
		p.ID = e.ID[i+len("/abs/"):]
	}

	p.Authors = make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			p.Categories = append(p.Categories, c.Term)
		}
	}

	var err error
	if p.Published, err = time.Parse(time.RFC3339, e.Published); err != nil {
		return nil, err
	}
	if e.Updated != "" {
		// Updated is best-effort; some records omit it.
		p.Updated, _ = time.Parse(time.RFC3339, e.Updated)
	}
	return p, nil
}
