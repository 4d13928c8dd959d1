package frontier

import (
	"context"
	"sync"

	"github.com/tablecrawl/tablecrawl/internal/model"
)

// popOrder lists the kinds from deepest to shallowest. Draining descendants
// before fanning out the next listing page bounds the in-flight window to
// roughly one listing page's subtree.
var popOrder = [...]model.TaskKind{
	model.KindUserProfile,
	model.KindReviewPage,
	model.KindRestaurantDetail,
	model.KindListing,
}

// Frontier is the bounded, per-kind task queue driving the crawl.
//
// Design decision: A single mutex plus condition variable rather than
// channels per kind. Push must atomically check two limits (total listing
// pages and per-restaurant review pages) and update in-flight counts, and
// Pop must scan kinds in priority order; neither maps onto channel selects
// without extra locking anyway.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	queues [4][]*model.CrawlTask

	// maxListingPages bounds the total listing tasks ever accepted.
	maxListingPages int

	// maxReviewPages bounds review-page tasks per restaurant.
	maxReviewPages int

	pushedListing int
	pushedReviews map[string]int

	// outstanding counts popped tasks not yet resolved.
	outstanding int

	// inflight counts unresolved tasks per originating listing page,
	// including tasks still queued.
	inflight map[int]int

	// seenPages marks listing pages that ever had a task, resolved counts
	// pages whose subtree fully drained; watermark is the highest page
	// already reported complete.
	seenPages map[int]bool
	resolved  map[int]bool
	watermark int

	closed bool
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithBaseListingPage marks listing pages up to and including page as already
// completed in an earlier run. The completion watermark starts there, so a
// crawl seeded at page+1 still reports its own pages complete in order.
func WithBaseListingPage(page int) Option {
	return func(f *Frontier) {
		f.watermark = page
	}
}

// New creates a Frontier with the given page-count limits.
func New(maxListingPages, maxReviewPages int, opts ...Option) *Frontier {
	f := &Frontier{
		maxListingPages: maxListingPages,
		maxReviewPages:  maxReviewPages,
		pushedReviews:   make(map[string]int),
		inflight:        make(map[int]int),
		seenPages:       make(map[int]bool),
		resolved:        make(map[int]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push enqueues task, rejecting it with ErrLimitExceeded when its kind's
// page-count limit is already reached.
func (f *Frontier) Push(task *model.CrawlTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	switch task.Kind {
	case model.KindListing:
		if f.pushedListing >= f.maxListingPages {
			return ErrLimitExceeded
		}
		f.pushedListing++
	case model.KindReviewPage:
		if f.pushedReviews[task.ParentID] >= f.maxReviewPages {
			return ErrLimitExceeded
		}
		f.pushedReviews[task.ParentID]++
	}

	f.queues[task.Kind] = append(f.queues[task.Kind], task)
	if task.ListingPage > 0 {
		f.inflight[task.ListingPage]++
		f.seenPages[task.ListingPage] = true
	}
	f.cond.Signal()
	return nil
}

// PopWait blocks until a task is available and returns it. It returns
// ErrDrained once every queue is empty with nothing outstanding, ErrClosed
// after Close, and ctx.Err() when ctx is done.
//
// Every successfully popped task must later be passed to Resolve exactly
// once, whatever its outcome.
func (f *Frontier) PopWait(ctx context.Context) (*model.CrawlTask, error) {
	// The condition variable cannot observe ctx directly; a watcher
	// goroutine converts cancellation into a broadcast.
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cond.Broadcast()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.closed {
			return nil, ErrClosed
		}
		if task := f.popLocked(); task != nil {
			f.outstanding++
			return task, nil
		}
		if f.outstanding == 0 {
			return nil, ErrDrained
		}
		f.cond.Wait()
	}
}

func (f *Frontier) popLocked() *model.CrawlTask {
	for _, kind := range popOrder {
		if q := f.queues[kind]; len(q) > 0 {
			task := q[0]
			f.queues[kind] = q[1:]
			return task
		}
	}
	return nil
}

// Resolve marks a popped task finished, success or drop alike, and returns
// the listing pages newly completed by this resolution, in ascending order.
// A listing page completes when no task in its subtree remains queued or
// outstanding and every lower page has already completed.
func (f *Frontier) Resolve(task *model.CrawlTask) []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.outstanding--
	if task.ListingPage > 0 {
		f.inflight[task.ListingPage]--
		if f.inflight[task.ListingPage] == 0 {
			f.resolved[task.ListingPage] = true
		}
	}

	var completed []int
	for f.seenPages[f.watermark+1] && f.resolved[f.watermark+1] {
		f.watermark++
		completed = append(completed, f.watermark)
	}

	// Wake waiters: either new pages unblock nothing (fine, they re-check)
	// or the frontier just drained and every waiter must observe it.
	f.cond.Broadcast()
	return completed
}

// Len returns the total number of queued tasks.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.queues {
		n += len(q)
	}
	return n
}

// Outstanding returns the number of popped tasks not yet resolved.
func (f *Frontier) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outstanding
}

// Close rejects further pushes and wakes every blocked PopWait with
// ErrClosed. Queued tasks are discarded.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}
