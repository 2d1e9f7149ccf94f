package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hoangnd/texcrawl/internal/arxiv"
	"github.com/hoangnd/texcrawl/internal/config"
	"github.com/hoangnd/texcrawl/internal/crawl"
	"github.com/hoangnd/texcrawl/internal/fetch"
	"github.com/hoangnd/texcrawl/internal/ident"
	"github.com/hoangnd/texcrawl/internal/manifest"
	"github.com/hoangnd/texcrawl/internal/ratelimit"
	"github.com/hoangnd/texcrawl/internal/s2"
)

const manifestFile = "crawl.db"

var crawlFlags struct {
	ids          []string
	months       []string
	starts       []int
	ends         []int
	out          string
	workers      int
	v1Only       bool
	skipRefs     bool
	sleepBetween float64
	configPath   string
	useManifest  bool
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	f := crawlCmd.Flags()
	f.StringSliceVar(&crawlFlags.ids, "ids", nil, "arXiv identifiers to crawl (repeatable, comma-separated)")
	f.StringSliceVar(&crawlFlags.months, "month", nil, "month to crawl as YYYY-MM (repeatable, paired with --start/--end)")
	f.IntSliceVar(&crawlFlags.starts, "start", nil, "first sequence number of the paired --month")
	f.IntSliceVar(&crawlFlags.ends, "end", nil, "last sequence number of the paired --month")
	f.StringVar(&crawlFlags.out, "out", "", "output directory (required)")
	f.IntVar(&crawlFlags.workers, "workers", 0, "worker pool size (default from config)")
	f.BoolVar(&crawlFlags.v1Only, "v1-only", false, "fetch only version 1 of each paper")
	f.BoolVar(&crawlFlags.skipRefs, "skip-refs", false, "skip Semantic Scholar reference resolution")
	f.Float64Var(&crawlFlags.sleepBetween, "sleep-between", 0, "extra pause in seconds after each paper")
	f.StringVar(&crawlFlags.configPath, "config", "", "YAML configuration file")
	f.BoolVar(&crawlFlags.useManifest, "manifest", false, "record per-paper outcomes into <out>/"+manifestFile)
	crawlCmd.MarkFlagRequired("out")
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Download sources, metadata and references for a batch of papers",
	Long: `Crawl a batch of arXiv papers into the output directory.

Papers are named either explicitly (--ids) or as month/sequence ranges
(--month 2024-04 --start 198 --end 400, repeatable). Each paper gets a
directory <out>/<key>/ holding metadata.json, references.json and one
tex/<key>vN/ directory per fetched version.

Example:
  texcrawl crawl --ids 1706.03762 --out ./data
  texcrawl crawl --month 2024-04 --start 1 --end 250 --out ./data --manifest`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func runCrawl(cmd *cobra.Command, args []string) error {
	// Best-effort: a missing .env just means no S2 API key.
	godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitConfigError)
	}

	ids, err := collectIDs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitConfigError)
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "error: no papers named; use --ids or --month/--start/--end")
		os.Exit(ExitConfigError)
	}

	if err := os.MkdirAll(crawlFlags.out, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error: creating output directory: %v\n", err)
		os.Exit(ExitError)
	}

	driver, closeFn, err := buildDriver(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum := driver.Run(ctx, ids)
	if sum.Failed > 0 {
		os.Exit(ExitPartial)
	}
	return nil
}

func loadConfig() (config.Config, error) {
	if crawlFlags.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(crawlFlags.configPath)
}

// collectIDs merges explicit identifiers and expanded month ranges into
// one de-duplicated, version-stripped list, preserving order.
func collectIDs() ([]string, error) {
	if len(crawlFlags.months) != len(crawlFlags.starts) || len(crawlFlags.months) != len(crawlFlags.ends) {
		return nil, fmt.Errorf("--month, --start and --end must be given the same number of times (got %d/%d/%d)",
			len(crawlFlags.months), len(crawlFlags.starts), len(crawlFlags.ends))
	}

	ranges := make([]ident.MonthRange, len(crawlFlags.months))
	for i, m := range crawlFlags.months {
		ranges[i] = ident.MonthRange{Month: m, Start: crawlFlags.starts[i], End: crawlFlags.ends[i]}
	}
	expanded, err := ident.ExpandAll(ranges)
	if err != nil {
		return nil, err
	}

	return ident.Normalize(append(append([]string{}, crawlFlags.ids...), expanded...)), nil
}

// buildDriver wires the limiters, clients, pipeline and worker pool from
// the configuration. The returned closer releases the manifest DB.
func buildDriver(cfg config.Config, log zerolog.Logger) (*crawl.Driver, func(), error) {
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	// The metadata limiter also gates the fallback source endpoint: both
	// live on the export host.
	metaLimiter := ratelimit.NewLimiter(cfg.ArxivInterval())
	archiveLimiter := ratelimit.NewLimiter(cfg.ArchiveInterval())
	s2Limiter := ratelimit.NewLimiter(cfg.S2Delay())

	metaBackoff := ratelimit.MetadataBackoff()
	metaBackoff.MaxAttempts = cfg.MetadataRetries
	metaBackoff.Cap = cfg.BackoffCap()

	client, err := arxiv.NewClient(metaLimiter, cfg.CacheSize,
		arxiv.WithBaseURL(cfg.ArxivAPIURL),
		arxiv.WithHTTPClient(httpClient),
		arxiv.WithBackoff(metaBackoff),
		arxiv.WithUserAgent(cfg.UserAgent),
	)
	if err != nil {
		return nil, nil, err
	}

	downloadBackoff := ratelimit.DownloadBackoff()
	downloadBackoff.MaxAttempts = cfg.DownloadRetries
	downloadBackoff.Cap = cfg.BackoffCap()

	fetcher := fetch.NewFetcher(client, archiveLimiter, metaLimiter,
		fetch.WithBaseURLs(cfg.PrimarySourceURL, cfg.FallbackSourceURL),
		fetch.WithHTTPClient(httpClient),
		fetch.WithBackoff(downloadBackoff),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(log),
	)

	refs := s2.NewClient(s2Limiter,
		s2.WithBaseURL(cfg.S2APIURL),
		s2.WithHTTPClient(httpClient),
		s2.WithUserAgent(cfg.UserAgent),
	)

	pipeline := &crawl.Pipeline{
		Meta:     client,
		Fetcher:  fetcher,
		Refs:     refs,
		Root:     crawlFlags.out,
		V1Only:   crawlFlags.v1Only,
		SkipRefs: crawlFlags.skipRefs,
		Log:      log,
	}

	workers := crawlFlags.workers
	if workers <= 0 {
		workers = cfg.Workers
	}

	driver := &crawl.Driver{
		Pipeline:     pipeline,
		Workers:      workers,
		SleepBetween: time.Duration(crawlFlags.sleepBetween * float64(time.Second)),
		Log:          log,
	}

	closeFn := func() {}
	if crawlFlags.useManifest {
		db, err := manifest.OpenDB(filepath.Join(crawlFlags.out, manifestFile))
		if err != nil {
			return nil, nil, err
		}
		driver.Recorder = db
		closeFn = func() { db.Close() }
	}
	return driver, closeFn, nil
}
