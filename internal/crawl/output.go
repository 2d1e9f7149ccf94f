// Package crawl composes version discovery, source fetching, metadata
// building, and reference resolution into a per-paper pipeline, and fans
// that pipeline out over a worker pool.
package crawl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hoangnd/texcrawl/internal/ident"
)

// Layout computes the on-disk locations for one paper's output.
//
//	<root>/<key>/metadata.json
//	<root>/<key>/references.json
//	<root>/<key>/tex/<key>vN/      extracted sources, one dir per version
//	<root>/<key>/_tmp/             staging, removed when the paper is done
type Layout struct {
	Key        string
	PaperDir   string
	TexRoot    string
	StagingDir string
}

// NewLayout derives the layout for a base identifier under root.
func NewLayout(root, baseID string) Layout {
	key := ident.CanonicalKey(baseID)
	paperDir := filepath.Join(root, key)
	return Layout{
		Key:        key,
		PaperDir:   paperDir,
		TexRoot:    filepath.Join(paperDir, "tex"),
		StagingDir: filepath.Join(paperDir, "_tmp"),
	}
}

// Create makes the paper, tex, and staging directories.
func (l Layout) Create() error {
	for _, dir := range []string{l.PaperDir, l.TexRoot, l.StagingDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// MetadataPath is the location of the paper's metadata file.
func (l Layout) MetadataPath() string {
	return filepath.Join(l.PaperDir, "metadata.json")
}

// ReferencesPath is the location of the paper's references file.
func (l Layout) ReferencesPath() string {
	return filepath.Join(l.PaperDir, "references.json")
}

// VersionDir is where one version's extracted sources go.
func (l Layout) VersionDir(version int) string {
	return filepath.Join(l.TexRoot, fmt.Sprintf("%sv%d", l.Key, version))
}

// ArchiveName is the staging filename for one version's archive.
func (l Layout) ArchiveName(version int) string {
	return fmt.Sprintf("%sv%d.tar.gz", l.Key, version)
}

// WriteJSON serializes v to path with stable 4-space indentation,
// overwriting any previous file.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
