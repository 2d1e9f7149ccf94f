// Package main provides the texcrawl CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "texcrawl",
	Short: "Batch crawler for arXiv LaTeX sources",
	Long: `texcrawl downloads the LaTeX sources of arXiv papers in batch.

For each paper it discovers the available versions, downloads and
validates the source archive of each one (falling back to the export
mirror when the primary endpoint serves an HTML error page), extracts
.tex and .bib files, and writes bibliographic metadata plus the paper's
arXiv-resolvable references. All upstream traffic is rate limited and
retried with exponential backoff.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = Version
}
