// Package model defines the core data structures used throughout tablecrawl.
//
// This package contains the following main types:
//   - CrawlTask: A unit of work in the crawl frontier
//   - Restaurant, Review, User: The extracted entity records
//   - CheckpointRecord: Durable progress marker for resumable crawls
//   - RunSummary: End-of-run statistics and dropped-task accounting
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (extract, frontier, checkpoint, sink, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The entity records are designed to be serializable to JSON for the
// line-delimited output files consumed by downstream tooling.
package model
