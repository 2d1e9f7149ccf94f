package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoangnd/texcrawl/internal/manifest"
)

var reportFlags struct {
	out string
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportFlags.out, "out", "", "output directory of a previous crawl (required)")
	reportCmd.MarkFlagRequired("out")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the manifest of a previous crawl",
	Long: `Read <out>/` + manifestFile + ` and print per-status totals, the mean
per-paper duration, and every paper that did not complete.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	path := filepath.Join(reportFlags.out, manifestFile)
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: no manifest at %s (was the crawl run with --manifest?)\n", path)
		os.Exit(ExitConfigError)
	}

	db, err := manifest.OpenDB(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	defer db.Close()

	counts, err := db.Summary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	mean, err := db.MeanDuration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	fmt.Printf("papers:        %d\n", counts.Total)
	fmt.Printf("  ok:          %d\n", counts.Succeeded)
	fmt.Printf("  no_source:   %d\n", counts.NoSource)
	fmt.Printf("  failed:      %d\n", counts.Failed)
	fmt.Printf("mean duration: %s\n", mean.Round(time.Millisecond))

	if counts.Failed > 0 || counts.NoSource > 0 {
		failures, err := db.Failures()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		fmt.Println()
		for _, e := range failures {
			line := fmt.Sprintf("%-14s %s", e.ArxivID, e.Status)
			if e.Error != "" {
				line += "  " + e.Error
			}
			fmt.Println(line)
		}
	}
	return nil
}
