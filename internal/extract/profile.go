package extract

import (
	"golang.org/x/net/html"

	"github.com/tablecrawl/tablecrawl/internal/model"
)

// extractUserProfile parses a reviewer profile page into one User record.
// Profile pages are leaves; they never emit further tasks.
func (e *Extractor) extractUserProfile(doc *html.Node, task *model.CrawlTask) (*Result, error) {
	profile := findByClass(doc, "member-profile")
	if profile == nil {
		return nil, ErrStructuralMismatch
	}

	username := getAttr(profile, "data-username")
	if username == "" {
		username = task.ParentID
	}
	if username == "" {
		return nil, ErrStructuralMismatch
	}

	return &Result{
		Users: []*model.User{{
			Username:      username,
			JoinDate:      classText(profile, "join-date"),
			Contributions: parseLeadingInt(classText(profile, "contributions")),
			Followers:     parseLeadingInt(classText(profile, "followers")),
			Following:     parseLeadingInt(classText(profile, "following")),
		}},
	}, nil
}
