package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). This allows callers to use errors.Is()
// for programmatic error handling while still providing human-readable
// messages. Using errors.New() rather than fmt.Errorf() because these
// messages carry no dynamic values.
var (
	// ErrNoRootURL is returned when no crawl root URL is specified.
	ErrNoRootURL = errors.New("no root URL specified: provide a city listing URL")

	// ErrInvalidListingPages is returned when the listing page limit is not
	// positive. A limit of zero would mean no crawling at all.
	ErrInvalidListingPages = errors.New("invalid listing page limit: must be positive")

	// ErrInvalidReviewPages is returned when the review page limit is
	// negative. Zero is valid and disables review crawling.
	ErrInvalidReviewPages = errors.New("invalid review page limit: must be non-negative")

	// ErrInvalidWorkerCount is returned when the worker count is not
	// positive. No workers would mean no progress.
	ErrInvalidWorkerCount = errors.New("invalid worker count: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	// A zero or negative timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the per-host concurrency cap is
	// not positive.
	ErrInvalidConcurrency = errors.New("invalid per-host concurrency: must be positive")

	// ErrInvalidInterval is returned when the per-host minimum interval is
	// negative. Use 0 for no spacing between requests.
	ErrInvalidInterval = errors.New("invalid per-host interval: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
