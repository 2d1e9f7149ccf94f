package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "texcrawl.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ArxivInterval() != 3500*time.Millisecond {
		t.Errorf("ArxivInterval = %v", cfg.ArxivInterval())
	}
	if cfg.S2Delay() != 1200*time.Millisecond {
		t.Errorf("S2Delay = %v", cfg.S2Delay())
	}
	if cfg.Workers != 6 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
arxiv_interval_sec: 1.0
workers: 12
user_agent: "mycrawler/2.0"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ArxivInterval() != time.Second {
		t.Errorf("ArxivInterval = %v, want 1s", cfg.ArxivInterval())
	}
	if cfg.Workers != 12 {
		t.Errorf("Workers = %d, want 12", cfg.Workers)
	}
	if cfg.UserAgent != "mycrawler/2.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	// Untouched keys keep their defaults.
	if cfg.S2Delay() != 1200*time.Millisecond {
		t.Errorf("S2Delay = %v, want default", cfg.S2Delay())
	}
	if cfg.MetadataRetries != 6 {
		t.Errorf("MetadataRetries = %d, want default", cfg.MetadataRetries)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load should fail for a missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "workers: [not a number\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load should fail on malformed YAML")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"zero interval", "arxiv_interval_sec: 0", "arxiv_interval_sec"},
		{"negative delay", "s2_delay_sec: -1", "s2_delay_sec"},
		{"zero workers", "workers: 0", "workers"},
		{"zero retries", "metadata_retries: 0", "retry counts"},
		{"empty endpoint", `arxiv_api_url: ""`, "endpoint URLs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load should have failed")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
