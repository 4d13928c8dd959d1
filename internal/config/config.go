package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These are conservative defaults suitable for crawling a public listing
// site without tripping its rate limiting.
const (
	// DefaultTimeout is the per-request timeout. Listing sites are ordinary
	// clearnet services, so 30 seconds is generous while still bounding a
	// hung connection.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxListingPages caps how many listing pages are crawled per
	// run. Listing pages fan out into detail and review pages, so this is
	// the main lever on total crawl size.
	DefaultMaxListingPages = 5

	// DefaultMaxReviewPages caps review pages per restaurant. Popular
	// restaurants can have hundreds of review pages; downstream word
	// frequency analysis rarely needs more than the first few.
	DefaultMaxReviewPages = 10

	// DefaultWorkerCount is the number of concurrent crawl workers.
	// Workers parallelize across hosts and page kinds; per-host pressure is
	// bounded separately by the politeness gate.
	DefaultWorkerCount = 8

	// DefaultMaxConcurrencyPerHost bounds in-flight requests to one host.
	// 2 keeps the crawl visibly polite even when many workers are idle.
	DefaultMaxConcurrencyPerHost = 2

	// DefaultMinIntervalPerHost is the minimum spacing between permits
	// granted for the same host. 500ms keeps request rate near what a fast
	// human browser session would generate.
	DefaultMinIntervalPerHost = 500 * time.Millisecond

	// DefaultMaxRetries is the retry ceiling for throttled and transient
	// fetch failures before a task is dropped.
	DefaultMaxRetries = 3

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is ample for HTML listing and detail pages while preventing
	// memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies tablecrawl in HTTP requests.
	// A descriptive User-Agent lets operators identify crawler traffic.
	DefaultUserAgent = "tablecrawl/1.0 (+https://github.com/tablecrawl/tablecrawl)"

	// DefaultOutputDir is where entity record files are written.
	DefaultOutputDir = "data"

	// AppName is the application name used for XDG directory paths.
	AppName = "tablecrawl"
)

// Config holds all configuration options for a crawl run.
// It is populated from CLI flags (and optionally a profile file) and passed
// to every component at construction via dependency injection rather than
// process-wide mutable state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ExtractConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// RootURL is the city listing URL the crawl starts from.
	// This is also the crawl root key for checkpointing.
	RootURL string

	// OutputDir is the directory for the line-delimited entity record files
	// (restaurants.jsonl, reviews.jsonl, users.jsonl).
	OutputDir string

	// MaxListingPages is the hard ceiling on listing pages crawled in a run.
	// The frontier rejects listing tasks past this count regardless of how
	// many "next page" links the site exposes.
	MaxListingPages int

	// MaxReviewPages is the per-restaurant hard ceiling on review pages.
	MaxReviewPages int

	// ScrapeUsers enables crawling reviewer profile pages.
	ScrapeUsers bool

	// ScrapeWebsiteMenu enables extracting website and menu URLs from
	// restaurant detail pages.
	ScrapeWebsiteMenu bool

	// Debug enables detailed log output using slog.LevelDebug, including
	// per-page structural mismatch diagnostics.
	Debug bool

	// MaxConcurrencyPerHost bounds concurrent in-flight requests per host.
	MaxConcurrencyPerHost int

	// MinIntervalPerHost is the minimum spacing between requests to the
	// same host.
	MinIntervalPerHost time.Duration

	// WorkerCount is the size of the crawl worker pool.
	WorkerCount int

	// Timeout is the per-request timeout applied to each fetch attempt.
	Timeout time.Duration

	// MaxRetries is the retry ceiling for retryable fetch failures.
	MaxRetries int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// MaxRunTime is an optional wall-clock budget for the run. When it
	// expires, no new tasks are dequeued but in-flight tasks drain before
	// the final checkpoint commit. Zero means no time budget.
	MaxRunTime time.Duration

	// CheckpointDir is the directory for the SQLite checkpoint database.
	// Defaults to the XDG data directory.
	CheckpointDir string

	// ProfileFilePath is the path to the profile file. If empty, the tool
	// searches for .tablecrawl in the current and home directories.
	ProfileFilePath string

	// Profiles holds per-host crawl profiles loaded from the profile file.
	Profiles *File

	// JSONReport outputs the run summary as JSON instead of plain text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport outputs the run summary as GitHub Flavored Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the run summary to this path instead of stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults; callers override specific
// values from CLI flags after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (timeouts, limits).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:             DefaultOutputDir,
		MaxListingPages:       DefaultMaxListingPages,
		MaxReviewPages:        DefaultMaxReviewPages,
		MaxConcurrencyPerHost: DefaultMaxConcurrencyPerHost,
		MinIntervalPerHost:    DefaultMinIntervalPerHost,
		WorkerCount:           DefaultWorkerCount,
		Timeout:               DefaultTimeout,
		MaxRetries:            DefaultMaxRetries,
		MaxBodySize:           DefaultMaxBodySize,
		UserAgent:             DefaultUserAgent,
		CheckpointDir:         XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for tablecrawl.
// On Linux: ~/.local/share/tablecrawl
// On macOS: ~/Library/Application Support/tablecrawl
// On Windows: %LOCALAPPDATA%\tablecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for tablecrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each point
// of use to fail fast and provide clear error messages upfront. This is
// called once after CLI parsing, before any crawling begins. We return the
// first error found rather than collecting all errors because fixing one
// error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.RootURL == "" {
		return ErrNoRootURL
	}
	if c.MaxListingPages <= 0 {
		return ErrInvalidListingPages
	}
	if c.MaxReviewPages < 0 {
		return ErrInvalidReviewPages
	}
	if c.WorkerCount <= 0 {
		return ErrInvalidWorkerCount
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxConcurrencyPerHost <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MinIntervalPerHost < 0 {
		return ErrInvalidInterval
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
