package crawl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoangnd/texcrawl/internal/arxiv"
	"github.com/hoangnd/texcrawl/internal/fetch"
	"github.com/hoangnd/texcrawl/internal/ident"
	"github.com/hoangnd/texcrawl/internal/s2"
)

// MetadataSource discovers versions and builds the paper record. The
// arxiv client satisfies it.
type MetadataSource interface {
	DiscoverVersions(ctx context.Context, baseID string, v1Only bool) []int
	BuildMetadata(ctx context.Context, baseID string, versions []int) (*arxiv.PaperMeta, error)
	Resolve(ctx context.Context, arxivID string) (*arxiv.Paper, error)
}

// SourceFetcher obtains one version's archive. fetch.Fetcher satisfies it.
type SourceFetcher interface {
	Fetch(ctx context.Context, idWithVersion, destDir, filename string) bool
}

// ReferenceSource queries the citation graph. The s2 client satisfies it.
type ReferenceSource interface {
	References(ctx context.Context, baseID string) ([]s2.ReferenceStub, error)
}

// Result is the per-paper outcome reported to the driver.
type Result struct {
	ArxivID  string
	Key      string
	Versions []int
	Fetched  int // versions with a validated, extracted archive
	TexFiles int
	BibFiles int
	Refs     int
	Err      error // set only for per-paper failures (primary metadata)
	Duration time.Duration
}

// Status classifies the result for reporting.
func (r Result) Status() string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Fetched == 0:
		return "no_source"
	default:
		return "ok"
	}
}

// Pipeline processes one paper end to end. A version's failure never
// fails the paper; only a failure of the paper's own metadata resolution
// does, and even then the pipeline reaches its terminal state (staging
// cleaned up, result reported).
type Pipeline struct {
	Meta     MetadataSource
	Fetcher  SourceFetcher
	Refs     ReferenceSource
	Root     string
	V1Only   bool
	SkipRefs bool
	Log      zerolog.Logger
}

// Process runs the full state machine for one base identifier.
func (p *Pipeline) Process(ctx context.Context, baseID string) Result {
	start := time.Now()
	res := Result{ArxivID: baseID, Key: ident.CanonicalKey(baseID)}
	defer func() { res.Duration = time.Since(start) }()

	layout := NewLayout(p.Root, baseID)
	if err := layout.Create(); err != nil {
		res.Err = err
		return res
	}
	defer p.cleanup(layout)

	res.Versions = p.Meta.DiscoverVersions(ctx, baseID, p.V1Only)

	for _, v := range res.Versions {
		idv := ident.WithVersion(baseID, v)
		name := layout.ArchiveName(v)

		if !p.Fetcher.Fetch(ctx, idv, layout.StagingDir, name) {
			p.Log.Warn().Str("id", idv).Msg("no source for version")
			continue
		}

		archivePath := filepath.Join(layout.StagingDir, name)
		stats, err := fetch.ExtractTexBib(archivePath, layout.VersionDir(v))
		if err != nil {
			p.Log.Warn().Str("id", idv).Err(err).Msg("extraction failed, skipping version")
			os.Remove(archivePath)
			continue
		}
		res.Fetched++
		res.TexFiles += stats.CountsByExt[".tex"]
		res.BibFiles += stats.CountsByExt[".bib"]
	}

	if res.Fetched == 0 {
		p.Log.Info().Str("id", baseID).Msg("no TeX sources available, continuing with metadata")
	}

	meta, err := p.Meta.BuildMetadata(ctx, baseID, res.Versions)
	if err != nil {
		res.Err = fmt.Errorf("building metadata for %s: %w", baseID, err)
		return res
	}
	if err := WriteJSON(layout.MetadataPath(), meta); err != nil {
		res.Err = err
		return res
	}

	refs := p.resolveReferences(ctx, baseID)
	res.Refs = len(refs)
	if err := WriteJSON(layout.ReferencesPath(), refs); err != nil {
		res.Err = err
	}
	return res
}

// resolveReferences is best-effort: any failure yields an empty map, and
// the references file is written either way.
func (p *Pipeline) resolveReferences(ctx context.Context, baseID string) map[string]s2.ReferenceRecord {
	if p.SkipRefs {
		return map[string]s2.ReferenceRecord{}
	}
	stubs, err := p.Refs.References(ctx, baseID)
	if err != nil {
		p.Log.Warn().Str("id", baseID).Err(err).Msg("reference lookup failed")
		return map[string]s2.ReferenceRecord{}
	}
	return s2.Enrich(ctx, p.Meta, stubs)
}

// cleanup removes the staging directory. Best-effort: failure is logged,
// never escalated.
func (p *Pipeline) cleanup(l Layout) {
	if err := os.RemoveAll(l.StagingDir); err != nil {
		p.Log.Warn().Str("dir", l.StagingDir).Err(err).Msg("could not remove staging directory")
	}
}
