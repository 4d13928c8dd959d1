package frontier

import "errors"

var (
	// ErrLimitExceeded is returned by Push when a task would exceed its
	// kind's page-count limit.
	ErrLimitExceeded = errors.New("task rejected: page-count limit reached")

	// ErrDrained is returned by PopWait when every queue is empty and no
	// popped task remains unresolved. The crawl is complete.
	ErrDrained = errors.New("frontier drained")

	// ErrClosed is returned by Push and PopWait after Close.
	ErrClosed = errors.New("frontier closed")
)
