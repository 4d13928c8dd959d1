package extract

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/net/html"

	"github.com/tablecrawl/tablecrawl/internal/fetch"
	"github.com/tablecrawl/tablecrawl/internal/model"
)

// ErrStructuralMismatch is returned when a page's required structural marker
// is absent. The page yields no records; the caller logs and continues.
var ErrStructuralMismatch = errors.New("page structure does not match expected markers")

// Result is the outcome of extracting a single page: the entity records the
// page contained plus the tasks it discovered.
type Result struct {
	// Restaurants holds Restaurant records (detail pages yield one each).
	Restaurants []*model.Restaurant

	// Reviews holds Review records from review pages.
	Reviews []*model.Review

	// Users holds User records from profile pages.
	Users []*model.User

	// NextTasks holds newly discovered tasks to push back to the frontier.
	NextTasks []*model.CrawlTask

	// NextPageURL is the resolved next-page link of a paginated page, set
	// even when the page-count ceiling suppressed the corresponding task.
	// Empty means the pagination is exhausted.
	NextPageURL string
}

// Extractor parses page content into a Result, dispatching on task kind.
//
// Design decision: One Extractor with a dispatch table rather than a parser
// type per page kind because the page parsers share the DOM helpers and the
// limit configuration, and the dispatch is the natural place to enforce
// "limits are hard ceilings" uniformly.
type Extractor struct {
	// maxListingPages is the hard ceiling on listing pagination.
	maxListingPages int

	// maxReviewPages is the per-restaurant ceiling on review pagination.
	// Zero disables review crawling entirely.
	maxReviewPages int

	// scrapeUsers enables emitting user-profile tasks from review pages.
	scrapeUsers bool

	// scrapeWebsiteMenu enables the website/menu fields on Restaurant
	// records.
	scrapeWebsiteMenu bool

	// logger receives structural mismatch diagnostics.
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxListingPages sets the listing pagination ceiling.
func WithMaxListingPages(n int) Option {
	return func(e *Extractor) {
		e.maxListingPages = n
	}
}

// WithMaxReviewPages sets the per-restaurant review pagination ceiling.
func WithMaxReviewPages(n int) Option {
	return func(e *Extractor) {
		e.maxReviewPages = n
	}
}

// WithScrapeUsers enables reviewer profile crawling.
func WithScrapeUsers(enabled bool) Option {
	return func(e *Extractor) {
		e.scrapeUsers = enabled
	}
}

// WithScrapeWebsiteMenu enables website and menu extraction from detail
// pages.
func WithScrapeWebsiteMenu(enabled bool) Option {
	return func(e *Extractor) {
		e.scrapeWebsiteMenu = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor. Limits default to 1 listing page and 0 review
// pages; callers set them from configuration.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		maxListingPages: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract parses content according to the task's kind. A page missing its
// structural marker returns an empty result and ErrStructuralMismatch.
func (e *Extractor) Extract(content *fetch.PageContent, task *model.CrawlTask) (*Result, error) {
	doc, err := html.Parse(bytes.NewReader(content.Body))
	if err != nil {
		// html.Parse is extremely tolerant; a hard parse failure means the
		// content is not HTML at all.
		return nil, fmt.Errorf("%w: %v", ErrStructuralMismatch, err)
	}

	base, err := url.Parse(content.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %v", content.URL, err)
	}

	switch task.Kind {
	case model.KindListing:
		return e.extractListing(doc, base, task)
	case model.KindRestaurantDetail:
		return e.extractDetail(doc, base, task)
	case model.KindReviewPage:
		return e.extractReviewPage(doc, base, task)
	case model.KindUserProfile:
		return e.extractUserProfile(doc, task)
	default:
		return nil, fmt.Errorf("unknown task kind %d", task.Kind)
	}
}
