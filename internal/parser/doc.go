// Package parser turns fetched HTML documents into pages the crawl engine
// can count: the words of the visible text and the outgoing links.
//
// HTMLFetcher implements crawler.PageFetcher over an *http.Client. Parser
// works on an io.Reader and has no network dependency, which keeps it easy
// to test.
package parser
