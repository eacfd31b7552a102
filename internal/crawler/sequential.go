package crawler

import (
	"context"

	"github.com/nao1215/webcrawler/internal/model"
)

// SequentialCrawler crawls on the calling goroutine, one page at a time.
// It follows the same stopping rules as ParallelCrawler and serves as the
// reference result for it.
type SequentialCrawler struct {
	settings
	fetcher PageFetcher
}

var _ Crawler = (*SequentialCrawler)(nil)

// NewSequentialCrawler creates a crawler that fetches through fetcher.
// WithParallelism is accepted and ignored.
func NewSequentialCrawler(fetcher PageFetcher, opts ...Option) *SequentialCrawler {
	c := &SequentialCrawler{
		settings: defaultSettings(),
		fetcher:  fetcher,
	}
	for _, opt := range opts {
		opt(&c.settings)
	}
	return c
}

// Crawl implements Crawler.
func (c *SequentialCrawler) Crawl(ctx context.Context, startingAddresses []string) (*model.CrawlResult, error) {
	return c.crawl(ctx, c.newRun(c.fetcher), ImplementationSequential, startingAddresses)
}

// MaxParallelism implements Crawler. A sequential crawl never uses more than
// one goroutine.
func (c *SequentialCrawler) MaxParallelism() int {
	return 1
}

// Parallelism implements Crawler.
func (c *SequentialCrawler) Parallelism() int {
	return 1
}
