// Package checkpoint persists crawl progress in a SQLite database so an
// interrupted run can resume without re-fetching completed pages.
//
// Two tables carry the state: listing progress keyed by crawl root, and
// review progress keyed by crawl root and restaurant id. Commits are
// monotonic upserts that never move a watermark backward, so replaying a
// commit after a crash is harmless.
package checkpoint
