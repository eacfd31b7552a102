// Package crawler implements the crawl engine: a recursive, depth- and
// deadline-bounded traversal of linked pages that counts words across every
// page it fetches.
//
// # Architecture
//
// A Crawler is created once and may run any number of crawls. Each call to
// Crawl builds its own VisitedSet and WordTally, runs one root task per
// starting address, and ranks the tally once every task has finished.
//
// A task, for one address and a remaining depth:
//  1. stops when the depth is used up, the deadline has passed or the
//     context is done
//  2. stops when the URLFilter excludes the address
//  3. stops when the address is already in the VisitedSet
//  4. fetches the page through the PageFetcher; a failed fetch prunes
//     the branch and is otherwise ignored
//  5. merges the page's word counts into the WordTally
//  6. starts one child task per outgoing link and waits for all of them
//
// # Concurrency
//
// ParallelCrawler bounds the number of tasks that are fetching at the same
// time with a weighted semaphore sized to min(parallelism, NumCPU). A task
// holds its slot only while fetching and merging; it gives the slot back
// before waiting on its children, so blocked parents never occupy the pool.
//
// The deadline is checked cooperatively on task entry and again once a
// slot is granted. A fetch that has already started is never interrupted,
// so a crawl may overrun its deadline by at most one fetch duration.
//
// # Usage
//
//	c := crawler.NewParallelCrawler(fetcher,
//	    crawler.WithMaxDepth(3),
//	    crawler.WithTimeout(30*time.Second),
//	    crawler.WithPopularWordCount(10),
//	)
//	result, err := c.Crawl(ctx, []string{"https://example.com/"})
package crawler
