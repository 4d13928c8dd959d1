package model

// Restaurant is a single restaurant record extracted from a detail page
// (or, partially, from a listing page summary).
//
// Identity is the site-assigned id, which is stable across runs; the
// Deduplicator and downstream consumers key on it.
type Restaurant struct {
	// ID is the site-assigned restaurant identifier. Globally unique within
	// a crawl root and stable across runs.
	ID string `json:"restaurant_id"`

	// Name is the restaurant's display name.
	Name string `json:"name"`

	// ReviewCount is the total number of reviews the site reports.
	ReviewCount int `json:"review_count"`

	// Price is the site's price-band marker (e.g. "$$ - $$$").
	Price string `json:"price,omitempty"`

	// Cuisine is a comma-separated list of cuisine tags.
	Cuisine string `json:"cuisine,omitempty"`

	// Address is the street address shown on the detail page.
	Address string `json:"address,omitempty"`

	// Phone is the contact phone number.
	Phone string `json:"phone,omitempty"`

	// Website is the restaurant's own site URL.
	// Only populated when website/menu scraping is enabled.
	Website string `json:"website,omitempty"`

	// Menu is the menu page URL.
	// Only populated when website/menu scraping is enabled.
	Menu string `json:"menu,omitempty"`

	// Ranking is the site ranking line (e.g. "#12 of 1,432 places to eat").
	Ranking string `json:"ranking,omitempty"`

	// Rating is the aggregate bubble rating, 0-5.
	Rating float64 `json:"rating"`
}

// Review is a single review record extracted from a review page.
//
// Every review references the restaurant it belongs to; the engine emits the
// Restaurant record before pushing its first review-page task, so a review's
// restaurant_id always corresponds to a restaurant emitted in the same or an
// earlier run.
type Review struct {
	// ID is the site-assigned review identifier.
	ID string `json:"review_id"`

	// RestaurantID is the id of the reviewed restaurant.
	RestaurantID string `json:"restaurant_id"`

	// Username is the reviewer's site handle.
	Username string `json:"username,omitempty"`

	// VisitDate is the reported date of the visit, as shown on the page.
	VisitDate string `json:"visit_date,omitempty"`

	// Rating is the review's bubble rating, 0-5.
	Rating float64 `json:"rating"`

	// Title is the review headline.
	Title string `json:"title,omitempty"`

	// Comment is the review body text.
	Comment string `json:"comment,omitempty"`
}

// User is a reviewer profile record. Populated only when user scraping is
// enabled; identity is the unique username.
type User struct {
	// Username is the site handle. Unique within a crawl root.
	Username string `json:"username"`

	// JoinDate is the profile's reported join date, as shown on the page.
	JoinDate string `json:"join_date,omitempty"`

	// Contributions is the total contribution count.
	Contributions int `json:"contributions"`

	// Followers is the follower count.
	Followers int `json:"followers"`

	// Following is the following count.
	Following int `json:"following"`
}
