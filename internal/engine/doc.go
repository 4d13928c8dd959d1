// Package engine runs the crawl: a bounded pool of workers pulls tasks from
// the frontier and executes fetch, extract, deduplicate, and sink for each,
// feeding discovered tasks back in.
//
// The engine owns the cross-component bookkeeping no single component sees:
// seeding the frontier from the checkpoint's resume point, committing
// listing and review progress as subtrees resolve, collecting dropped-task
// and entity counts into the run summary, and draining in-flight work when
// the run is cancelled or a fatal error aborts it.
package engine
