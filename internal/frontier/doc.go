// Package frontier implements the crawl's pending-task scheduler.
//
// The frontier keeps one FIFO queue per task kind. Listing and review-page
// queues are bounded by their page-count limits and reject pushes past the
// limit instead of silently queueing them. Deeper kinds are popped first so
// a listing page's descendants resolve before the next listing page fans
// out, which keeps queue depth and the in-flight window small.
//
// Besides queuing, the frontier owns the bookkeeping that drives durable
// checkpoints: every task is tagged with the listing page it descends from,
// and a listing page is reported complete only when every task in its
// subtree has resolved. Completion is reported in page order, so the
// checkpoint watermark never skips a page that still has work in flight.
package frontier
