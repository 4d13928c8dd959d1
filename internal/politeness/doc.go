// Package politeness provides the per-host rate limiting gate applied to
// every outbound request.
//
// The gate enforces two independent bounds per target host:
//   - A concurrency cap: at most N requests in flight to one host
//   - A spacing floor: at least one interval between permit grants
//
// Both bounds are configurable globally and overridable per host via the
// profile file. Acquisition is scoped: the caller receives a release
// function and holds the permit until the fetch completes, whether it
// succeeds, fails, or times out.
package politeness
