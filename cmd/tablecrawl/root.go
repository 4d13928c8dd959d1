// Package main provides the entry point for the tablecrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for tablecrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tablecrawl",
		Short: "Polite restaurant-listing crawler",
		Long: `tablecrawl crawls restaurant listing sites: the city listing, the detail
page of every restaurant on it, and each restaurant's paginated reviews.

Records are emitted as line-delimited JSON, one file per entity kind, and
progress is checkpointed so an interrupted crawl resumes without re-fetching
completed pages. Requests are rate limited per host.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
