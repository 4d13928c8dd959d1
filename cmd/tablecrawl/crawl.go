package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tablecrawl/tablecrawl/internal/checkpoint"
	"github.com/tablecrawl/tablecrawl/internal/config"
	"github.com/tablecrawl/tablecrawl/internal/engine"
	"github.com/tablecrawl/tablecrawl/internal/extract"
	"github.com/tablecrawl/tablecrawl/internal/fetch"
	tclog "github.com/tablecrawl/tablecrawl/internal/log"
	"github.com/tablecrawl/tablecrawl/internal/model"
	"github.com/tablecrawl/tablecrawl/internal/politeness"
	"github.com/tablecrawl/tablecrawl/internal/report"
	"github.com/tablecrawl/tablecrawl/internal/sink"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <listing-url>",
		Short: "Crawl a restaurant listing and its restaurants",
		Long: `Crawl walks a city listing page, the detail page of every restaurant on
it, and each restaurant's paginated reviews.

Deduplicated records are appended to line-delimited JSON files in the output
directory (restaurants.jsonl, reviews.jsonl, users.jsonl). Progress is
committed to a checkpoint database as pages fully resolve, so rerunning the
same listing URL resumes where the previous run stopped.

Examples:
  # Crawl up to 5 listing pages with defaults
  tablecrawl crawl https://example.com/restaurants/springfield

  # Deeper crawl including reviewer profiles
  tablecrawl crawl -l 20 -r 50 --scrape-users https://example.com/restaurants/springfield

  # Ignore previous progress and start over
  tablecrawl crawl --fresh https://example.com/restaurants/springfield

  # Machine-readable summary
  tablecrawl crawl --json https://example.com/restaurants/springfield

Profile file (.tablecrawl) example:
  hosts:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Accept-Language: "en-US"
      minInterval: 2s
      maxConcurrency: 1`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl scope flags
	cmd.Flags().IntP("max-listing-pages", "l", config.DefaultMaxListingPages,
		"Maximum number of listing pages to crawl")
	cmd.Flags().IntP("max-review-pages", "r", config.DefaultMaxReviewPages,
		"Maximum review pages per restaurant (0 disables reviews)")
	cmd.Flags().Bool("scrape-users", false,
		"Also crawl reviewer profile pages")
	cmd.Flags().Bool("scrape-website-menu", false,
		"Extract website and menu URLs from detail pages")
	cmd.Flags().Bool("debug", false,
		"Enable debug output including per-page extraction diagnostics")

	// Politeness and fetch flags
	cmd.Flags().Int("max-concurrency", config.DefaultMaxConcurrencyPerHost,
		"Maximum concurrent requests per host")
	cmd.Flags().Duration("min-interval", config.DefaultMinIntervalPerHost,
		"Minimum delay between requests to the same host")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Retry ceiling for throttled and transient fetch failures")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkerCount,
		"Size of the crawl worker pool")
	cmd.Flags().Duration("max-run-time", 0,
		"Wall-clock budget for the run (0 means unlimited)")

	// Output and checkpoint flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory for the JSONL record files")
	cmd.Flags().String("checkpoint-dir", "",
		"Directory for the checkpoint database (default: XDG data directory)")
	cmd.Flags().Bool("fresh", false,
		"Discard previous checkpoint progress for this listing URL")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Profile file path (default: .tablecrawl in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().String("report", "",
		"Write the run summary to specified file path instead of stdout")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	verbose := getVerboseFlag(cmd)
	logger := tclog.NewSecureLogger(os.Stderr, verbose || cfg.Debug)
	slog.SetDefault(logger)

	// Interrupts stop task dequeuing; in-flight pages drain and their
	// progress is committed before the process exits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, draining in-flight pages...")
		cancel()
	}()

	fresh, err := cmd.Flags().GetBool("fresh")
	if err != nil {
		return err
	}

	return runCrawl(ctx, cfg, fresh, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.RootURL = args[0]

	var err error

	cfg.MaxListingPages, err = cmd.Flags().GetInt("max-listing-pages")
	if err != nil {
		return nil, err
	}
	cfg.MaxReviewPages, err = cmd.Flags().GetInt("max-review-pages")
	if err != nil {
		return nil, err
	}
	cfg.ScrapeUsers, err = cmd.Flags().GetBool("scrape-users")
	if err != nil {
		return nil, err
	}
	cfg.ScrapeWebsiteMenu, err = cmd.Flags().GetBool("scrape-website-menu")
	if err != nil {
		return nil, err
	}
	cfg.Debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, err
	}
	cfg.MaxConcurrencyPerHost, err = cmd.Flags().GetInt("max-concurrency")
	if err != nil {
		return nil, err
	}
	cfg.MinIntervalPerHost, err = cmd.Flags().GetDuration("min-interval")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.MaxRetries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}
	cfg.WorkerCount, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}
	cfg.MaxRunTime, err = cmd.Flags().GetDuration("max-run-time")
	if err != nil {
		return nil, err
	}
	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	checkpointDir, err := cmd.Flags().GetString("checkpoint-dir")
	if err != nil {
		return nil, err
	}
	if checkpointDir != "" {
		cfg.CheckpointDir = checkpointDir
	}
	cfg.ProfileFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-host profiles.
	// If user explicitly specified a profile file path, error if not found.
	// If no path specified, silently use empty profiles if no file found.
	explicitProfilePath := cfg.ProfileFilePath != ""
	profilePath := config.FindProfileFile(cfg.ProfileFilePath)

	if profilePath != "" {
		cfg.Profiles, err = config.LoadProfileFile(profilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile file %s: %w", profilePath, err)
		}
	} else if explicitProfilePath {
		return nil, fmt.Errorf("profile file not found: %s", cfg.ProfileFilePath)
	} else {
		cfg.Profiles = &config.File{
			Hosts: make(map[string]config.HostProfile),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// runCrawl wires the components together and executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, fresh bool, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"root", cfg.RootURL,
		"max_listing_pages", cfg.MaxListingPages,
		"max_review_pages", cfg.MaxReviewPages,
		"workers", cfg.WorkerCount,
	)

	store, err := checkpoint.Open(cfg.CheckpointDir, checkpoint.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if fresh {
		if err := store.Reset(ctx, cfg.RootURL); err != nil {
			return fmt.Errorf("failed to reset checkpoint: %w", err)
		}
		logger.Info("checkpoint progress discarded", "root", cfg.RootURL)
	}

	snk, err := sink.NewJSONL(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to open output sink: %w", err)
	}
	defer func() {
		if err := snk.Close(); err != nil {
			logger.Error("failed to close sink", "error", err)
		}
	}()

	gate := politeness.New(cfg.MaxConcurrencyPerHost, cfg.MinIntervalPerHost,
		politeness.WithProfiles(cfg.Profiles),
	)
	fetcher := fetch.New(&http.Client{Timeout: cfg.Timeout}, gate,
		fetch.WithLogger(logger),
		fetch.WithMaxRetries(cfg.MaxRetries),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithProfiles(cfg.Profiles),
	)
	extractor := extract.New(
		extract.WithMaxListingPages(cfg.MaxListingPages),
		extract.WithMaxReviewPages(cfg.MaxReviewPages),
		extract.WithScrapeUsers(cfg.ScrapeUsers),
		extract.WithScrapeWebsiteMenu(cfg.ScrapeWebsiteMenu),
		extract.WithLogger(logger),
	)

	eng := engine.New(cfg, fetcher, extractor, snk,
		engine.WithCheckpointStore(store),
		engine.WithLogger(logger),
	)

	summary, runErr := eng.Run(ctx)

	// The summary is written even for aborted runs; the committed
	// checkpoint it shows is what the next invocation resumes from.
	if err := outputSummary(cfg, summary); err != nil {
		logger.Error("failed to write run summary", "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("crawl aborted: %w", runErr)
	}
	return nil
}

// outputSummary writes the run summary in the requested format.
func outputSummary(cfg *config.Config, summary *model.RunSummary) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer func() { _ = f.Close() }()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}
	_, err := writer.Write(summary)
	return err
}
