package fetch

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidArchive indicates the archive could not be opened or walked.
// An archive that opens fine but contains no source files is not an error.
var ErrInvalidArchive = errors.New("invalid archive")

// NoExtKey is the extension-count bucket for members without an extension.
const NoExtKey = "<no_ext>"

// sourceExts are the member extensions copied out of an archive.
var sourceExts = map[string]bool{
	".tex": true,
	".bib": true,
}

// Stats summarizes one archive extraction.
type Stats struct {
	TotalFiles  int            // regular-file members seen
	Extracted   int            // members copied to the output directory
	CountsByExt map[string]int // lowercased extension -> member count
}

// ExtractTexBib copies the .tex and .bib members of an archive into
// outDir, flattening any directory structure the archive specifies: only
// the base filename is kept, so a hostile member name can never escape
// outDir. Member data is streamed, never buffered whole.
func ExtractTexBib(archivePath, outDir string) (*Stats, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer f.Close()

	tr, closeFn, err := newTarReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer closeFn()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", outDir, err)
	}

	stats := &Stats{CountsByExt: make(map[string]int)}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading members: %v", ErrInvalidArchive, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		base := filepath.Base(strings.ReplaceAll(hdr.Name, "\x00", ""))
		if base == "" || base == "." || base == string(filepath.Separator) {
			continue
		}
		stats.TotalFiles++

		ext := strings.ToLower(filepath.Ext(base))
		if ext == "" {
			ext = NoExtKey
		}
		stats.CountsByExt[ext]++

		if !sourceExts[ext] {
			continue
		}
		if err := copyMember(tr, filepath.Join(outDir, base)); err != nil {
			return nil, err
		}
		stats.Extracted++
	}
	return stats, nil
}

func copyMember(tr *tar.Reader, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, tr); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("%w: extracting %s: %v", ErrInvalidArchive, filepath.Base(dest), err)
	}
	return out.Close()
}
