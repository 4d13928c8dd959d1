package extract

import (
	"net/url"

	"golang.org/x/net/html"

	"github.com/tablecrawl/tablecrawl/internal/model"
)

// extractDetail parses a restaurant detail page into one Restaurant record
// and, when reviews are requested, the task for the restaurant's first
// review page.
func (e *Extractor) extractDetail(doc *html.Node, base *url.URL, task *model.CrawlTask) (*Result, error) {
	detail := findByClass(doc, "restaurant-detail")
	if detail == nil {
		return nil, ErrStructuralMismatch
	}

	id := getAttr(detail, "data-id")
	if id == "" {
		id = task.ParentID
	}
	if id == "" {
		return nil, ErrStructuralMismatch
	}

	restaurant := &model.Restaurant{
		ID:          id,
		Name:        classText(detail, "restaurant-name"),
		ReviewCount: parseLeadingInt(classText(detail, "review-count")),
		Price:       classText(detail, "price"),
		Cuisine:     classText(detail, "cuisine"),
		Address:     classText(detail, "address"),
		Phone:       classText(detail, "phone"),
		Ranking:     classText(detail, "ranking"),
		Rating:      parseRating(detail, "rating"),
	}

	if e.scrapeWebsiteMenu {
		restaurant.Website = resolveURL(base, classAttr(detail, "website", "href"))
		restaurant.Menu = resolveURL(base, classAttr(detail, "menu", "href"))
	}

	result := &Result{Restaurants: []*model.Restaurant{restaurant}}

	if e.maxReviewPages > 0 {
		if reviewsURL := resolveURL(base, classAttr(detail, "reviews-link", "href")); reviewsURL != "" {
			result.NextTasks = append(result.NextTasks, &model.CrawlTask{
				Kind:        model.KindReviewPage,
				URL:         reviewsURL,
				PageIndex:   1,
				ParentID:    id,
				ListingPage: task.ListingPage,
			})
		}
	}

	return result, nil
}
