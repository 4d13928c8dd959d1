package extract

import (
	"net/url"

	"golang.org/x/net/html"

	"github.com/tablecrawl/tablecrawl/internal/model"
)

// extractReviewPage parses one page of a restaurant's reviews. Each review
// block becomes a Review record; distinct reviewer usernames become profile
// tasks when user scraping is enabled; the "next" link becomes the following
// review-page task while under the per-restaurant limit.
func (e *Extractor) extractReviewPage(doc *html.Node, base *url.URL, task *model.CrawlTask) (*Result, error) {
	list := findByClass(doc, "review-list")
	if list == nil {
		return nil, ErrStructuralMismatch
	}

	restaurantID := getAttr(list, "data-restaurant-id")
	if restaurantID == "" {
		restaurantID = task.ParentID
	}

	result := &Result{}
	seenUsers := make(map[string]bool)

	for _, block := range findAllByClass(list, "review") {
		id := getAttr(block, "data-id")
		if id == "" {
			e.logger.Debug("skipping review block without id",
				"page", task.URL,
				"restaurant_id", restaurantID,
			)
			continue
		}

		username := classText(block, "username")
		result.Reviews = append(result.Reviews, &model.Review{
			ID:           id,
			RestaurantID: restaurantID,
			Username:     username,
			VisitDate:    classText(block, "visit-date"),
			Rating:       parseRating(block, "rating"),
			Title:        classText(block, "review-title"),
			Comment:      classText(block, "review-comment"),
		})

		if !e.scrapeUsers || username == "" || seenUsers[username] {
			continue
		}
		profileURL := resolveURL(base, classAttr(block, "username", "href"))
		if profileURL == "" {
			continue
		}
		seenUsers[username] = true
		result.NextTasks = append(result.NextTasks, &model.CrawlTask{
			Kind:        model.KindUserProfile,
			URL:         profileURL,
			PageIndex:   1,
			ParentID:    username,
			ListingPage: task.ListingPage,
		})
	}

	if next := resolveURL(base, classAttr(doc, "next-page", "href")); next != "" {
		result.NextPageURL = next
		if task.PageIndex < e.maxReviewPages {
			result.NextTasks = append(result.NextTasks, &model.CrawlTask{
				Kind:        model.KindReviewPage,
				URL:         next,
				PageIndex:   task.PageIndex + 1,
				ParentID:    restaurantID,
				ListingPage: task.ListingPage,
			})
		}
	}

	return result, nil
}
