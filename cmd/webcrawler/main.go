// Package main provides the entry point for the webcrawler CLI.
//
// webcrawler fetches a set of start pages, follows their links up to a
// maximum depth within a time budget, and reports the most frequent words
// and the number of distinct pages visited.
//
// Usage:
//
//	webcrawler crawl https://example.com/
//	webcrawler crawl --depth 3 --popular 20 --json https://example.com/
//	webcrawler history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
