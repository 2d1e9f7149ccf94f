// Package config loads crawler settings from an optional YAML file,
// layered over defaults that match the public arXiv and Semantic
// Scholar usage policies.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hoangnd/texcrawl/internal/arxiv"
	"github.com/hoangnd/texcrawl/internal/fetch"
	"github.com/hoangnd/texcrawl/internal/s2"
)

// Config holds every tunable of the crawler. Intervals and delays are
// expressed in float seconds, matching how upstream policies state them
// ("no more than one request every 3 seconds").
type Config struct {
	UserAgent string `yaml:"user_agent"`

	// Pacing. The arXiv interval gates both the metadata API and the
	// fallback source endpoint; the archive interval gates the primary
	// source endpoint; the S2 delay spaces Graph API calls.
	ArxivIntervalSec   float64 `yaml:"arxiv_interval_sec"`
	ArchiveIntervalSec float64 `yaml:"archive_interval_sec"`
	S2DelaySec         float64 `yaml:"s2_delay_sec"`

	TimeoutSec      float64 `yaml:"timeout_sec"`
	MetadataRetries int     `yaml:"metadata_retries"`
	DownloadRetries int     `yaml:"download_retries"`
	BackoffCapSec   float64 `yaml:"backoff_cap_sec"`

	CacheSize int `yaml:"cache_size"`
	Workers   int `yaml:"workers"`

	ArxivAPIURL       string `yaml:"arxiv_api_url"`
	PrimarySourceURL  string `yaml:"primary_source_url"`
	FallbackSourceURL string `yaml:"fallback_source_url"`
	S2APIURL          string `yaml:"s2_api_url"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		UserAgent:          "texcrawl/1.0 (research source crawler)",
		ArxivIntervalSec:   3.5,
		ArchiveIntervalSec: 3.5,
		S2DelaySec:         1.2,
		TimeoutSec:         120,
		MetadataRetries:    6,
		DownloadRetries:    5,
		BackoffCapSec:      60,
		CacheSize:          arxiv.DefaultCacheSize,
		Workers:            6,
		ArxivAPIURL:        arxiv.DefaultBaseURL,
		PrimarySourceURL:   fetch.DefaultPrimaryBaseURL,
		FallbackSourceURL:  fetch.DefaultFallbackBaseURL,
		S2APIURL:           s2.DefaultBaseURL,
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values that would stall or hammer the upstreams.
func (c Config) Validate() error {
	if c.ArxivIntervalSec <= 0 {
		return fmt.Errorf("arxiv_interval_sec must be positive, got %v", c.ArxivIntervalSec)
	}
	if c.ArchiveIntervalSec <= 0 {
		return fmt.Errorf("archive_interval_sec must be positive, got %v", c.ArchiveIntervalSec)
	}
	if c.S2DelaySec <= 0 {
		return fmt.Errorf("s2_delay_sec must be positive, got %v", c.S2DelaySec)
	}
	if c.TimeoutSec <= 0 {
		return fmt.Errorf("timeout_sec must be positive, got %v", c.TimeoutSec)
	}
	if c.MetadataRetries < 1 || c.DownloadRetries < 1 {
		return fmt.Errorf("retry counts must be at least 1, got %d/%d", c.MetadataRetries, c.DownloadRetries)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache_size must be at least 1, got %d", c.CacheSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ArxivAPIURL == "" || c.PrimarySourceURL == "" || c.FallbackSourceURL == "" || c.S2APIURL == "" {
		return fmt.Errorf("endpoint URLs must not be empty")
	}
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// ArxivInterval is the minimum spacing between arXiv API requests.
func (c Config) ArxivInterval() time.Duration { return seconds(c.ArxivIntervalSec) }

// ArchiveInterval is the minimum spacing between primary source downloads.
func (c Config) ArchiveInterval() time.Duration { return seconds(c.ArchiveIntervalSec) }

// S2Delay is the minimum spacing between Semantic Scholar requests.
func (c Config) S2Delay() time.Duration { return seconds(c.S2DelaySec) }

// Timeout is the per-request HTTP timeout.
func (c Config) Timeout() time.Duration { return seconds(c.TimeoutSec) }

// BackoffCap is the ceiling on exponential backoff sleeps.
func (c Config) BackoffCap() time.Duration { return seconds(c.BackoffCapSec) }
