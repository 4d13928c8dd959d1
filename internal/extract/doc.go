// Package extract parses fetched pages into entity records and newly
// discovered crawl tasks.
//
// # Dispatch
//
// Extraction is dispatched on the task's kind:
//
//   - listing: restaurant cards become detail-page tasks, plus one next-page
//     listing task while under the listing page limit
//   - restaurant-detail: one Restaurant record, plus the first review-page
//     task when reviews are requested
//   - review-page: Review records, the next review-page task while under the
//     per-restaurant limit, and profile tasks per distinct reviewer when
//     user scraping is enabled
//   - user-profile: one User record
//
// # Structural markers
//
// Each page type has a required marker element (the listing container, the
// detail container, the review list, the member profile). A page missing its
// marker yields ErrStructuralMismatch instead of a crash: schema drift on a
// live site is expected, and the calling layer logs the page and continues.
//
// # Pagination ceilings
//
// Page-count limits are hard ceilings. The extractor stops emitting next-page
// tasks at the limit regardless of how many "next page" links the content
// exposes; the frontier independently rejects overflow as a second line of
// defense.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because it correctly handles the malformed HTML common on real
// sites and gives us a proper node tree to walk.
package extract
