// Package fetch obtains, validates, and extracts arXiv source archives.
package fetch

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"os"
)

// htmlMarkers flag error pages served with a 200 status instead of
// archive bytes.
var htmlMarkers = [][]byte{
	[]byte("<html"),
	[]byte("<!doctype html"),
}

// sniffLen is how much of a body or file prefix is inspected.
const sniffLen = 1024

// looksLikeHTML reports whether a body prefix is an HTML document.
func looksLikeHTML(prefix []byte) bool {
	lower := bytes.ToLower(prefix)
	for _, m := range htmlMarkers {
		if bytes.Contains(lower, m) {
			return true
		}
	}
	return false
}

// IsValidArchive reports whether path holds a usable tar archive (plain or
// gzip-compressed). A missing file, an empty file, an HTML error page, or
// any structural error while enumerating members all reduce to false;
// nothing escapes as an error.
func IsValidArchive(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	prefix := make([]byte, sniffLen)
	n, err := f.Read(prefix)
	if err != nil && err != io.EOF {
		return false
	}
	if n == 0 {
		return false
	}
	if looksLikeHTML(prefix[:n]) {
		return false
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return tarReadable(f)
}

// tarReadable enumerates every member of the stream, reading member data
// so that truncation anywhere in the archive is caught.
func tarReadable(r io.Reader) bool {
	tr, closeFn, err := newTarReader(r)
	if err != nil {
		return false
	}
	defer closeFn()

	for {
		_, err := tr.Next()
		if err == io.EOF {
			return true
		}
		if err != nil {
			return false
		}
		if _, err := io.Copy(io.Discard, tr); err != nil {
			return false
		}
	}
}

// newTarReader wraps r in a tar reader, transparently handling gzip. The
// returned close function releases the gzip reader when one was opened.
func newTarReader(r io.Reader) (*tar.Reader, func(), error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err == nil && head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(gz), func() { gz.Close() }, nil
	}
	return tar.NewReader(br), func() {}, nil
}
