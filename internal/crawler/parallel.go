package crawler

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/nao1215/webcrawler/internal/model"
)

// ParallelCrawler fans a crawl out over a bounded pool of concurrent fetches.
// A ParallelCrawler is safe for concurrent use; every Crawl call gets its own
// pool, visited set and tally.
type ParallelCrawler struct {
	settings
	fetcher PageFetcher
	size    int
}

var _ Crawler = (*ParallelCrawler)(nil)

// NewParallelCrawler creates a crawler that fetches through fetcher.
func NewParallelCrawler(fetcher PageFetcher, opts ...Option) *ParallelCrawler {
	c := &ParallelCrawler{
		settings: defaultSettings(),
		fetcher:  fetcher,
	}
	for _, opt := range opts {
		opt(&c.settings)
	}
	c.size = poolSize(c.parallelism)
	return c
}

// poolSize clamps the requested parallelism to the CPU count.
func poolSize(requested int) int {
	cpus := runtime.NumCPU()
	if requested <= 0 || requested > cpus {
		return cpus
	}
	return requested
}

// Crawl implements Crawler.
func (c *ParallelCrawler) Crawl(ctx context.Context, startingAddresses []string) (*model.CrawlResult, error) {
	r := c.newRun(c.fetcher)
	r.slots = semaphore.NewWeighted(int64(c.size))
	return c.crawl(ctx, r, ImplementationParallel, startingAddresses)
}

// MaxParallelism implements Crawler.
func (c *ParallelCrawler) MaxParallelism() int {
	return runtime.NumCPU()
}

// Parallelism implements Crawler.
func (c *ParallelCrawler) Parallelism() int {
	return c.size
}
