// Package sink emits deduplicated crawl records as line-delimited JSON.
//
// Each entity kind gets its own file in the output directory: restaurants,
// reviews, and users. Files are opened in append mode so a resumed run adds
// to the previous run's output instead of truncating it; deduplication
// within a run is the caller's job.
package sink
