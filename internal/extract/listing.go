package extract

import (
	"net/url"

	"golang.org/x/net/html"

	"github.com/tablecrawl/tablecrawl/internal/model"
)

// extractListing parses a city listing page. Each restaurant card becomes a
// detail-page task; the page's "next" link becomes a listing task for the
// following page index while under the listing page limit.
//
// Restaurant cards carry only summary data. The authoritative Restaurant
// record is extracted from the detail page, so the listing parser emits
// discovery tasks rather than partial records that would win deduplication
// over the richer detail record.
func (e *Extractor) extractListing(doc *html.Node, base *url.URL, task *model.CrawlTask) (*Result, error) {
	list := findByClass(doc, "restaurant-list")
	if list == nil {
		return nil, ErrStructuralMismatch
	}

	result := &Result{}

	for _, card := range findAllByClass(list, "restaurant-card") {
		id := getAttr(card, "data-id")
		href := classAttr(card, "restaurant-name", "href")
		detailURL := resolveURL(base, href)
		if id == "" || detailURL == "" {
			e.logger.Debug("skipping malformed restaurant card",
				"page", task.URL,
				"id", id,
			)
			continue
		}

		result.NextTasks = append(result.NextTasks, &model.CrawlTask{
			Kind:        model.KindRestaurantDetail,
			URL:         detailURL,
			PageIndex:   1,
			ParentID:    id,
			ListingPage: task.ListingPage,
		})
	}

	// Pagination: the limit is a hard ceiling, so the next listing task is
	// emitted only while strictly under it. The raw link is still reported
	// so checkpoints can tell a capped run from an exhausted listing.
	if next := resolveURL(base, classAttr(doc, "next-page", "href")); next != "" {
		result.NextPageURL = next
		if task.PageIndex < e.maxListingPages {
			result.NextTasks = append(result.NextTasks, &model.CrawlTask{
				Kind:        model.KindListing,
				URL:         next,
				PageIndex:   task.PageIndex + 1,
				ListingPage: task.PageIndex + 1,
			})
		}
	}

	return result, nil
}
