// Package main provides the entry point for the tablecrawl CLI.
//
// tablecrawl crawls restaurant listing sites: it walks a city listing, the
// restaurant detail pages behind it, and each restaurant's paginated
// reviews, emitting deduplicated line-delimited JSON records.
//
// Usage:
//
//	tablecrawl crawl <listing-url>
//
// See --help for all available options.
package main

// main is the entry point for tablecrawl.
func main() {
	Execute()
}
