package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

// tarBytes builds an uncompressed tar archive from name -> content.
// Order of names is preserved via the names slice.
func tarBytes(t *testing.T, names []string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range names {
		content := files[name]
		hdr := &tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing header %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("writing member %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestIsValidArchive(t *testing.T) {
	dir := t.TempDir()
	plainTar := tarBytes(t, []string{"main.tex"}, map[string]string{"main.tex": `\documentclass{article}`})
	gzTar := gzipBytes(t, plainTar)

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"plain tar", plainTar, true},
		{"gzipped tar", gzTar, true},
		{"empty file", nil, false},
		{"garbage", []byte("definitely not a tar archive, just text"), false},
		{"html error page", []byte("<html><body>404 Not Found</body></html>"), false},
		{"doctype error page", []byte("<!DOCTYPE HTML PUBLIC>...."), false},
		{"html prefix with tar tail", append([]byte("<HTML>"), plainTar...), false},
		{"truncated gzip", gzTar[:len(gzTar)/2], false},
		{"truncated tar", plainTar[:100], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "candidate-"+tt.name, tt.data)
			if got := IsValidArchive(path); got != tt.want {
				t.Errorf("IsValidArchive = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidArchiveMissingFile(t *testing.T) {
	if IsValidArchive(filepath.Join(t.TempDir(), "nope.tar.gz")) {
		t.Error("IsValidArchive should be false for a missing file")
	}
}
