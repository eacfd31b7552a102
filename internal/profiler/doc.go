// Package profiler measures how long named operations take across one run
// and appends a summary to a file.
//
// Timing is added from the outside: WrapFetcher decorates a
// crawler.PageFetcher, and Time measures an arbitrary block such as a whole
// crawl. Both are safe for concurrent use.
//
// The summary looks like:
//
//	Run at Tue, 02 Jan 2024 03:04:05 UTC
//	crawl took 0m 4s 210ms (1 calls)
//	fetch took 1m 2s 7ms (381 calls)
package profiler
