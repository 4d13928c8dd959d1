package model

// TaskKind identifies which type of page a CrawlTask targets.
// The Extractor dispatches on this tag to select the right page parser,
// and the Frontier keeps a separate bounded queue per kind.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and array indexing. The String() method
// provides human-readable output for logs and summaries.
type TaskKind int

const (
	// KindListing is a city listing page enumerating restaurant summaries
	// with pagination to further listing pages.
	KindListing TaskKind = iota

	// KindRestaurantDetail is a single restaurant's detail page.
	KindRestaurantDetail

	// KindReviewPage is one page of a restaurant's paginated review set.
	KindReviewPage

	// KindUserProfile is a reviewer's profile page.
	// Only crawled when user scraping is enabled.
	KindUserProfile

	// kindCount is the number of task kinds. Used for sizing per-kind tables.
	kindCount
)

// KindCount returns the number of distinct task kinds.
func KindCount() int { return int(kindCount) }

// String returns a human-readable representation of the task kind.
func (k TaskKind) String() string {
	switch k {
	case KindListing:
		return "listing"
	case KindRestaurantDetail:
		return "restaurant-detail"
	case KindReviewPage:
		return "review-page"
	case KindUserProfile:
		return "user-profile"
	default:
		return "unknown"
	}
}

// CrawlTask is a single pending fetch in the crawl.
// Tasks are created by frontier seeding or by the Extractor when it discovers
// new pages, and each task is consumed exactly once by a worker.
//
// Design decision: CrawlTask is immutable once created. Workers never write
// to a task after pushing it, so tasks can cross goroutine boundaries without
// synchronization.
type CrawlTask struct {
	// Kind selects the page parser and the frontier queue for this task.
	Kind TaskKind

	// URL is the absolute URL to fetch.
	URL string

	// PageIndex is the 1-based page number within the task's pagination
	// sequence. Listing tasks count listing pages; review tasks count a
	// single restaurant's review pages. Detail and profile tasks use 1.
	PageIndex int

	// ParentID links a task to the entity it descends from: the restaurant
	// id for review pages, the username for profile pages. Empty for
	// listing tasks.
	ParentID string

	// ListingPage is the listing page index this task recursively descends
	// from. The frontier uses it to track per-page in-flight counts so the
	// checkpoint for a listing page only advances once every task it spawned
	// has resolved.
	ListingPage int
}
