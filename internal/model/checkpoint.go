package model

// CheckpointRecord is the durable progress marker for one crawl root.
// It is read once at crawl start to compute the resume point and mutated
// only by the checkpoint store after a page's tasks fully resolve.
type CheckpointRecord struct {
	// CrawlRoot is the root listing URL this record belongs to.
	CrawlRoot string `json:"crawl_root"`

	// LastListingPage is the index of the last listing page whose tasks
	// (including nested review and profile pages) all resolved.
	// Zero means no listing page has completed yet.
	LastListingPage int `json:"last_completed_listing_page"`

	// NextListingURL is the URL of the listing page after LastListingPage,
	// captured at commit time. Empty when the listing ran out of pages, so
	// a resumed run knows the listing is exhausted rather than unknown.
	NextListingURL string `json:"next_listing_url,omitempty"`

	// ReviewPages maps restaurant id to the last fully resolved review page
	// for that restaurant. Tracking per-restaurant progress avoids
	// re-fetching partially completed review sets on resume.
	ReviewPages map[string]int `json:"per_restaurant_last_review_page"`

	// NextReviewURLs maps restaurant id to the URL of the review page after
	// the committed one. Empty or absent when that restaurant's reviews are
	// exhausted.
	NextReviewURLs map[string]string `json:"per_restaurant_next_review_url,omitempty"`
}

// NewCheckpointRecord returns an empty record for the given crawl root.
func NewCheckpointRecord(crawlRoot string) *CheckpointRecord {
	return &CheckpointRecord{
		CrawlRoot:      crawlRoot,
		ReviewPages:    make(map[string]int),
		NextReviewURLs: make(map[string]string),
	}
}

// ResumeListingPage returns the listing page index the crawl should start
// from: the page after the last committed one.
func (c *CheckpointRecord) ResumeListingPage() int {
	return c.LastListingPage + 1
}

// ResumeReviewPage returns the review page index to start from for the given
// restaurant. Restaurants with no committed progress start at page 1.
func (c *CheckpointRecord) ResumeReviewPage(restaurantID string) int {
	return c.ReviewPages[restaurantID] + 1
}
