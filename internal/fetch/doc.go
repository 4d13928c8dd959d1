// Package fetch retrieves pages over HTTP on behalf of crawl workers.
//
// Every request passes through the politeness gate before it is issued.
// Outcomes are classified into a small taxonomy the engine acts on:
//
//   - success (2xx): body decoded to UTF-8 and returned
//   - throttled (429/503): retried with exponential backoff and jitter
//   - gone (404/410 and other non-retryable statuses): task dropped
//   - transient (timeouts, connection errors, 5xx): retried up to a bound
//   - fatal (persistent name-resolution failure): aborts the run
//
// Retry ceilings are bounded; exhaustion surfaces as a *fetch.Error carrying
// the final classification rather than crashing the worker pool.
package fetch
