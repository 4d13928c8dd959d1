package extract

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// getAttr returns the value of the named attribute on n, or "".
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// hasClass reports whether n carries the given class token.
func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, token := range strings.Fields(getAttr(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

// findByClass returns the first element in document order under n (inclusive)
// carrying the given class token, or nil.
func findByClass(n *html.Node, class string) *html.Node {
	if hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

// findAllByClass returns every element under n (inclusive) carrying the
// given class token, in document order.
func findAllByClass(n *html.Node, class string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if hasClass(n, class) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// textOf returns the concatenated, whitespace-normalized text content of n.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// classText returns the normalized text of the first element under n with
// the given class, or "".
func classText(n *html.Node, class string) string {
	return textOf(findByClass(n, class))
}

// classAttr returns the named attribute of the first element under n with
// the given class, or "".
func classAttr(n *html.Node, class, attr string) string {
	found := findByClass(n, class)
	if found == nil {
		return ""
	}
	return getAttr(found, attr)
}

// parseLeadingInt extracts the first integer in s, tolerating thousands
// separators ("1,432 reviews" -> 1432). Returns 0 when no digits are found.
func parseLeadingInt(s string) int {
	var digits strings.Builder
	seen := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
			seen = true
		case r == ',' && seen:
			// Skip separators inside a number.
		case seen:
			n, _ := strconv.Atoi(digits.String())
			return n
		}
	}
	n, _ := strconv.Atoi(digits.String())
	return n
}

// parseRating parses a bubble rating from the element's data-value
// attribute, falling back to its text. Returns 0 on malformed input.
func parseRating(n *html.Node, class string) float64 {
	el := findByClass(n, class)
	if el == nil {
		return 0
	}
	raw := getAttr(el, "data-value")
	if raw == "" {
		raw = textOf(el)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// resolveURL resolves href against base, returning "" for unusable links
// (anchors, javascript:, malformed URLs).
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
