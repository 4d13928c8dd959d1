package fetch

import (
	"errors"
	"fmt"
	"time"
)

// Classification buckets a fetch failure by how the crawl should react.
type Classification int

const (
	// ClassThrottled marks rate-limiting responses (429, 503).
	// Retried with exponential backoff and jitter up to the retry ceiling.
	ClassThrottled Classification = iota

	// ClassTransient marks timeouts, connection errors and 5xx responses.
	// Retried up to the retry ceiling, then surfaced as a failed fetch.
	ClassTransient

	// ClassGone marks pages that no longer exist (404, 410).
	// Never retried; the task is dropped and the crawl continues.
	ClassGone

	// ClassFatal marks infrastructure failures that will not heal within a
	// run, such as persistent name-resolution failure. The run aborts with
	// the last committed checkpoint intact.
	ClassFatal
)

// String returns a human-readable classification name.
func (c Classification) String() string {
	switch c {
	case ClassThrottled:
		return "throttled"
	case ClassTransient:
		return "transient"
	case ClassGone:
		return "gone"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by Fetcher.Fetch.
// It carries the classification so the engine can decide between dropping
// the task, counting it as failed, or aborting the run.
type Error struct {
	// URL is the request URL that failed.
	URL string

	// StatusCode is the HTTP status, zero for network-level failures.
	StatusCode int

	// Class is the failure classification after retries were applied.
	Class Classification

	// RetryAfter is the server-requested wait from a Retry-After header on
	// throttling responses, zero when absent or unparseable.
	RetryAfter time.Duration

	// Retries is how many retry attempts were made before giving up.
	Retries int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d, %d retries)", e.URL, e.Class, e.StatusCode, e.Retries)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v (%d retries)", e.URL, e.Class, e.Err, e.Retries)
	}
	return fmt.Sprintf("fetch %s: %s (%d retries)", e.URL, e.Class, e.Retries)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// Classify returns the classification of err if it is a fetch Error,
// and ok=false otherwise.
func Classify(err error) (Classification, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class, true
	}
	return 0, false
}

// IsGone reports whether err is a fetch failure for a page that no longer
// exists.
func IsGone(err error) bool {
	class, ok := Classify(err)
	return ok && class == ClassGone
}

// IsFatal reports whether err is a fetch failure that should abort the run.
func IsFatal(err error) bool {
	class, ok := Classify(err)
	return ok && class == ClassFatal
}
