package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tablecrawl/tablecrawl/internal/checkpoint"
	"github.com/tablecrawl/tablecrawl/internal/config"
	"github.com/tablecrawl/tablecrawl/internal/dedup"
	"github.com/tablecrawl/tablecrawl/internal/extract"
	"github.com/tablecrawl/tablecrawl/internal/fetch"
	"github.com/tablecrawl/tablecrawl/internal/frontier"
	"github.com/tablecrawl/tablecrawl/internal/model"
	"github.com/tablecrawl/tablecrawl/internal/sink"
)

// Engine orchestrates one crawl run.
type Engine struct {
	cfg       *config.Config
	fetcher   *fetch.Fetcher
	extractor *extract.Extractor
	sink      sink.Sink
	store     *checkpoint.Store
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCheckpointStore enables durable progress commits. Without a store the
// crawl always starts from the first listing page and commits nothing.
func WithCheckpointStore(store *checkpoint.Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine from its collaborators. cfg must already be
// validated.
func New(cfg *config.Config, fetcher *fetch.Fetcher, extractor *extract.Extractor, snk sink.Sink, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		sink:      snk,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// reviewKey identifies one review page of one restaurant.
type reviewKey struct {
	restaurantID string
	page         int
}

// run carries the mutable state of a single Run call, so an Engine value
// itself stays reusable.
type run struct {
	engine   *Engine
	frontier *frontier.Frontier
	dedup    *dedup.Deduplicator
	resume   *model.CheckpointRecord

	mu      sync.Mutex
	summary *model.RunSummary

	// nextListingURL records, per listing page index, the URL of the page
	// after it, captured at extraction time. A page that was never
	// extracted has no entry; an empty entry means the listing is
	// exhausted. The distinction keeps dropped pages out of the checkpoint.
	nextListingURL map[int]string

	// nextReviewURL records the next review page URL per restaurant page,
	// with the same entry-vs-empty distinction as nextListingURL.
	nextReviewURL map[reviewKey]string

	// commitReady holds resolved listing pages awaiting their turn;
	// nextCommit is the page index to commit next. Commits advance strictly
	// in page order and stop for the rest of the run (commitHalted) at the
	// first page that resolved without being extracted, so a resumed run
	// re-fetches that page instead of skipping past it.
	commitReady  map[int]bool
	nextCommit   int
	commitHalted bool
}

// Run executes the crawl until the frontier drains, the context is
// cancelled, the run time budget expires, or a fatal error aborts it. The
// returned summary is populated in every case; the error is non-nil only
// for fatal aborts.
func (e *Engine) Run(ctx context.Context) (*model.RunSummary, error) {
	if e.cfg.MaxRunTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.MaxRunTime)
		defer cancel()
	}

	r := &run{
		engine:         e,
		dedup:          dedup.New(),
		summary:        model.NewRunSummary(e.cfg.RootURL),
		nextListingURL: make(map[int]string),
		nextReviewURL:  make(map[reviewKey]string),
		commitReady:    make(map[int]bool),
	}

	if err := r.seed(ctx); err != nil {
		r.summary.Err = err
		r.summary.ErrorMessage = err.Error()
		return r.finish(ctx), err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.cfg.WorkerCount; i++ {
		g.Go(func() error { return r.worker(gctx) })
	}
	err := g.Wait()
	if err != nil {
		r.summary.Err = err
		r.summary.ErrorMessage = err.Error()
	}
	return r.finish(ctx), err
}

// seed loads the resume point, builds the frontier around it, and pushes the
// initial listing task. The frontier's completion watermark starts at the
// last committed page so a crawl seeded mid-listing still reports its own
// pages complete in order.
func (r *run) seed(ctx context.Context) error {
	e := r.engine
	r.resume = model.NewCheckpointRecord(e.cfg.RootURL)

	if e.store != nil {
		record, err := e.store.ResumePoint(ctx, e.cfg.RootURL)
		if err != nil {
			return err
		}
		r.resume = record
	}

	r.frontier = frontier.New(e.cfg.MaxListingPages, e.cfg.MaxReviewPages,
		frontier.WithBaseListingPage(r.resume.LastListingPage))
	r.nextCommit = r.resume.LastListingPage + 1

	switch {
	case r.resume.LastListingPage == 0:
		return r.frontier.Push(&model.CrawlTask{
			Kind:        model.KindListing,
			URL:         e.cfg.RootURL,
			PageIndex:   1,
			ListingPage: 1,
		})
	case r.resume.NextListingURL != "" && r.resume.LastListingPage < e.cfg.MaxListingPages:
		e.logger.Info("resuming crawl",
			"root", e.cfg.RootURL,
			"listing_page", r.resume.ResumeListingPage(),
		)
		// The frontier's listing budget covers pages pushed this run, not
		// pages already committed. The already-committed count is restored
		// by seeding at the resume index; the extractor's PageIndex ceiling
		// keeps the absolute limit intact.
		return r.frontier.Push(&model.CrawlTask{
			Kind:        model.KindListing,
			URL:         r.resume.NextListingURL,
			PageIndex:   r.resume.ResumeListingPage(),
			ListingPage: r.resume.ResumeListingPage(),
		})
	default:
		e.logger.Info("nothing to resume, crawl already complete",
			"root", e.cfg.RootURL,
			"listing_page", r.resume.LastListingPage,
		)
		return nil
	}
}

// worker pulls tasks until the frontier drains or the context is cancelled.
// A cancelled context stops dequeuing but the task already in hand is
// processed to completion, so no page is left half-resolved.
func (r *run) worker(ctx context.Context) error {
	for {
		task, err := r.frontier.PopWait(ctx)
		if err != nil {
			if errors.Is(err, frontier.ErrDrained) || errors.Is(err, frontier.ErrClosed) {
				return nil
			}
			// Cancellation or fatal abort elsewhere: stop dequeuing.
			return nil
		}

		fatal := r.process(context.WithoutCancel(ctx), task)
		r.commitCompleted(context.WithoutCancel(ctx), task, r.frontier.Resolve(task))
		if fatal != nil {
			r.frontier.Close()
			return fatal
		}
	}
}

// process executes fetch, extract, dedup, and sink for one task and pushes
// its children. The returned error is non-nil only for fatal failures that
// must abort the whole run; every other failure is absorbed into the
// summary.
func (r *run) process(ctx context.Context, task *model.CrawlTask) error {
	e := r.engine

	// The same URL can be discovered through multiple paths, profile pages
	// especially. One fetch per URL per run.
	if !r.dedup.Pages.Admit(task.URL) {
		e.logger.Debug("skipping already fetched page", "url", task.URL)
		return nil
	}

	content, err := e.fetcher.Fetch(ctx, task)
	if err != nil {
		if fetch.IsFatal(err) {
			e.logger.Error("fatal fetch failure, aborting run",
				"url", task.URL,
				"error", err,
			)
			return err
		}
		reason := model.DropFetchFailed
		if fetch.IsGone(err) {
			reason = model.DropGone
		}
		r.drop(task, reason, err)
		return nil
	}
	r.countFetched()

	result, err := e.extractor.Extract(content, task)
	if err != nil {
		r.drop(task, model.DropStructuralMismatch, err)
		return nil
	}

	// Records flow to the sink before their child tasks enter the frontier,
	// so every review's restaurant is already emitted when the review is.
	if err := r.emit(result); err != nil {
		e.logger.Error("sink write failed, aborting run", "error", err)
		return err
	}

	r.noteNextPages(task, result)
	r.pushChildren(result)
	return nil
}

// emit writes the deduplicated records from one page.
func (r *run) emit(result *extract.Result) error {
	e := r.engine

	for _, restaurant := range result.Restaurants {
		if !r.dedup.Restaurants.Admit(restaurant.ID) {
			r.countDuplicate()
			continue
		}
		if err := e.sink.WriteRestaurant(restaurant); err != nil {
			return err
		}
		r.countRestaurant()
	}
	for _, review := range result.Reviews {
		if !r.dedup.Reviews.Admit(review.ID) {
			r.countDuplicate()
			continue
		}
		if err := e.sink.WriteReview(review); err != nil {
			return err
		}
		r.countReview()
	}
	for _, user := range result.Users {
		if !r.dedup.Users.Admit(user.Username) {
			r.countDuplicate()
			continue
		}
		if err := e.sink.WriteUser(user); err != nil {
			return err
		}
		r.countUser()
	}
	return nil
}

// noteNextPages captures pagination successors for checkpoint commits. The
// extractor reports the raw next link even when the page-count ceiling
// suppressed the task, so a later run with a higher limit can pick up where
// this one stopped.
func (r *run) noteNextPages(task *model.CrawlTask, result *extract.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch task.Kind {
	case model.KindListing:
		r.nextListingURL[task.PageIndex] = result.NextPageURL
	case model.KindReviewPage:
		r.nextReviewURL[reviewKey{task.ParentID, task.PageIndex}] = result.NextPageURL
	}
}

// pushChildren feeds discovered tasks back to the frontier, rerouting
// first review pages past progress committed by an earlier run.
func (r *run) pushChildren(result *extract.Result) {
	e := r.engine

	for _, next := range result.NextTasks {
		if next.Kind == model.KindReviewPage && next.PageIndex == 1 {
			if done := r.resume.ReviewPages[next.ParentID]; done > 0 {
				resumed, ok := r.resumedReviewTask(next, done)
				if !ok {
					continue
				}
				next = resumed
			}
		}

		if err := r.frontier.Push(next); err != nil {
			if errors.Is(err, frontier.ErrLimitExceeded) {
				e.logger.Debug("task rejected at page-count limit",
					"kind", next.Kind.String(),
					"url", next.URL,
				)
				continue
			}
			// Closed frontier during fatal shutdown; the task is moot.
			e.logger.Debug("task push failed", "url", next.URL, "error", err)
		}
	}
}

// resumedReviewTask rewrites a restaurant's first review-page task to the
// page after its committed progress. ok is false when that restaurant's
// reviews are already exhausted or at the page limit.
func (r *run) resumedReviewTask(next *model.CrawlTask, done int) (*model.CrawlTask, bool) {
	if done >= r.engine.cfg.MaxReviewPages {
		return nil, false
	}
	nextURL := r.resume.NextReviewURLs[next.ParentID]
	if nextURL == "" {
		return nil, false
	}
	r.engine.logger.Debug("resuming reviews mid-restaurant",
		"restaurant_id", next.ParentID,
		"page", done+1,
	)
	return &model.CrawlTask{
		Kind:        model.KindReviewPage,
		URL:         nextURL,
		PageIndex:   done + 1,
		ParentID:    next.ParentID,
		ListingPage: next.ListingPage,
	}, true
}

// commitCompleted persists progress unlocked by one task's resolution:
// the task's own review page, plus any listing pages whose subtrees just
// fully resolved.
func (r *run) commitCompleted(ctx context.Context, task *model.CrawlTask, completedPages []int) {
	e := r.engine
	if e.store == nil {
		return
	}

	if task.Kind == model.KindReviewPage {
		r.mu.Lock()
		nextURL, extracted := r.nextReviewURL[reviewKey{task.ParentID, task.PageIndex}]
		r.mu.Unlock()
		// A dropped review page is not committed at all, so the next run
		// retries it instead of treating the reviews as exhausted.
		if extracted {
			if err := e.store.CommitReviewPage(ctx, e.cfg.RootURL, task.ParentID, task.PageIndex, nextURL); err != nil {
				e.logger.Warn("review checkpoint commit failed",
					"restaurant_id", task.ParentID,
					"page", task.PageIndex,
					"error", err,
				)
			}
		}
	}

	// Listing commits advance strictly in page order under the run mutex;
	// Resolve may hand consecutive pages to different workers, and a commit
	// landing out of order would let the monotonic upsert skip past a page
	// that must halt progress.
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, page := range completedPages {
		r.commitReady[page] = true
	}
	for !r.commitHalted && r.commitReady[r.nextCommit] {
		page := r.nextCommit
		nextURL, extracted := r.nextListingURL[page]
		if !extracted {
			r.commitHalted = true
			e.logger.Warn("listing page was dropped, checkpoint frozen before it",
				"page", page,
			)
			return
		}
		if err := e.store.CommitListingPage(ctx, e.cfg.RootURL, page, nextURL); err != nil {
			e.logger.Warn("listing checkpoint commit failed",
				"page", page,
				"error", err,
			)
			return
		}
		delete(r.commitReady, page)
		r.nextCommit++
		e.logger.Info("listing page committed", "page", page)
	}
}

// finish seals the summary with final timing, dedup stats, and checkpoint
// state.
func (r *run) finish(ctx context.Context) *model.RunSummary {
	e := r.engine

	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary.Elapsed = time.Since(r.summary.StartedAt)
	if e.store != nil {
		record, err := e.store.ResumePoint(context.WithoutCancel(ctx), e.cfg.RootURL)
		if err != nil {
			e.logger.Warn("failed to read final checkpoint", "error", err)
		} else {
			r.summary.Checkpoint = record
		}
	}
	return r.summary
}

func (r *run) drop(task *model.CrawlTask, reason model.DropReason, err error) {
	r.engine.logger.Warn("task dropped",
		"kind", task.Kind.String(),
		"url", task.URL,
		"reason", string(reason),
		"error", err,
	)
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := model.DroppedTask{
		Kind:   task.Kind,
		URL:    task.URL,
		Reason: reason,
	}
	if err != nil {
		dropped.Detail = err.Error()
	}
	r.summary.Dropped = append(r.summary.Dropped, dropped)
}

func (r *run) countFetched() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.PagesFetched++
}

func (r *run) countRestaurant() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Restaurants++
}

func (r *run) countReview() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Reviews++
}

func (r *run) countUser() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Users++
}

func (r *run) countDuplicate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Duplicates++
}
