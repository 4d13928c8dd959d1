package model

import "time"

// DropReason classifies why a task was dropped without producing output.
type DropReason string

const (
	// DropGone marks tasks whose pages no longer exist (404/410).
	DropGone DropReason = "gone"

	// DropFetchFailed marks tasks that exhausted their retry budget on
	// transient or throttled failures.
	DropFetchFailed DropReason = "fetch-failed"

	// DropStructuralMismatch marks pages whose expected structural markers
	// were absent, so nothing could be extracted.
	DropStructuralMismatch DropReason = "structural-mismatch"
)

// DroppedTask records one task that the crawl gave up on.
// Dropped tasks never crash the worker pool; they are accounted for here and
// reported at the end of the run.
type DroppedTask struct {
	// Kind is the dropped task's kind.
	Kind TaskKind `json:"kind"`

	// URL is the page that could not be processed.
	URL string `json:"url"`

	// Reason classifies the failure.
	Reason DropReason `json:"reason"`

	// Detail is the underlying error message, if any.
	Detail string `json:"detail,omitempty"`
}

// RunSummary is the end-of-run report for one crawl.
//
// Design decision: We collect counts here rather than exposing internal
// component state because the summary is the only cross-component view the
// report writers need, and a flat struct serializes cleanly to JSON.
type RunSummary struct {
	// CrawlRoot is the root listing URL that was crawled.
	CrawlRoot string `json:"crawl_root"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// PagesFetched is the number of pages successfully fetched.
	PagesFetched int `json:"pages_fetched"`

	// Restaurants, Reviews and Users count the deduplicated entity records
	// emitted to the sink.
	Restaurants int `json:"restaurants"`
	Reviews     int `json:"reviews"`
	Users       int `json:"users"`

	// Duplicates counts records suppressed by the deduplicator.
	Duplicates int `json:"duplicates"`

	// Dropped lists every task abandoned after its retry ceiling or a
	// structural mismatch.
	Dropped []DroppedTask `json:"dropped,omitempty"`

	// Checkpoint is the final committed progress for the run.
	Checkpoint *CheckpointRecord `json:"checkpoint,omitempty"`

	// Err is the fatal error that aborted the run, if any.
	// Excluded from JSON; ErrorMessage carries the text.
	Err error `json:"-"`

	// ErrorMessage is the fatal error text, empty for clean runs.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunSummary creates a summary for the given crawl root, stamped now.
func NewRunSummary(crawlRoot string) *RunSummary {
	return &RunSummary{
		CrawlRoot: crawlRoot,
		StartedAt: time.Now(),
	}
}

// EntityTotal returns the total number of emitted entity records.
func (s *RunSummary) EntityTotal() int {
	return s.Restaurants + s.Reviews + s.Users
}

// Completed reports whether the run finished without a fatal error.
func (s *RunSummary) Completed() bool { return s.Err == nil && s.ErrorMessage == "" }
