package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/webcrawler/internal/model"
)

// Implementation names accepted by New.
const (
	ImplementationParallel   = "parallel"
	ImplementationSequential = "sequential"
)

// Default crawl limits, used when the corresponding option is not given.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxDepth         = 10
	DefaultPopularWordCount = 10
)

// Crawler crawls a set of starting addresses and ranks the words it found.
type Crawler interface {
	// Crawl runs one crawl. The error is non-nil only when ctx was cancelled,
	// in which case the result covers the pages fetched before cancellation.
	Crawl(ctx context.Context, startingAddresses []string) (*model.CrawlResult, error)

	// MaxParallelism returns the largest parallelism the host supports.
	MaxParallelism() int

	// Parallelism returns the number of fetches that may run at once.
	Parallelism() int
}

// PageFetcher downloads and parses a single page.
// Implementations must be safe for concurrent use.
type PageFetcher interface {
	Fetch(ctx context.Context, address string) (*model.Page, error)
}

// PageFetcherFunc adapts an ordinary function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, address string) (*model.Page, error)

// Fetch calls f(ctx, address).
func (f PageFetcherFunc) Fetch(ctx context.Context, address string) (*model.Page, error) {
	return f(ctx, address)
}

// settings holds the options shared by every Crawler implementation.
type settings struct {
	timeout          time.Duration
	maxDepth         int
	popularWordCount int
	parallelism      int
	filter           *URLFilter
	clock            func() time.Time
	logger           *slog.Logger
}

func defaultSettings() settings {
	return settings{
		timeout:          DefaultTimeout,
		maxDepth:         DefaultMaxDepth,
		popularWordCount: DefaultPopularWordCount,
		clock:            time.Now,
		logger:           slog.Default(),
	}
}

// Option configures a Crawler.
type Option func(*settings)

// WithTimeout sets the wall-clock budget of one crawl.
// A zero timeout makes every crawl stop before its first fetch.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithMaxDepth sets the number of hops followed from each starting address.
// Depth 1 fetches only the starting pages.
func WithMaxDepth(depth int) Option {
	return func(s *settings) {
		s.maxDepth = depth
	}
}

// WithPopularWordCount sets how many ranked words a result keeps.
func WithPopularWordCount(n int) Option {
	return func(s *settings) {
		s.popularWordCount = n
	}
}

// WithParallelism sets the requested number of concurrent fetches.
// Values <= 0 or above the CPU count are clamped to the CPU count.
func WithParallelism(n int) Option {
	return func(s *settings) {
		s.parallelism = n
	}
}

// WithURLFilter sets the filter that excludes addresses from the crawl.
func WithURLFilter(f *URLFilter) Option {
	return func(s *settings) {
		s.filter = f
	}
}

// WithClock replaces time.Now, for deterministic deadline tests.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger used for run start and finish events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns the Crawler registered under implementation.
// An empty name selects the parallel crawler.
func New(implementation string, fetcher PageFetcher, opts ...Option) (Crawler, error) {
	switch implementation {
	case "", ImplementationParallel:
		return NewParallelCrawler(fetcher, opts...), nil
	case ImplementationSequential:
		return NewSequentialCrawler(fetcher, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownImplementation, implementation)
	}
}

// newRun prepares the shared state of one crawl.
func (s *settings) newRun(fetcher PageFetcher) *run {
	return &run{
		fetcher:  fetcher,
		filter:   s.filter,
		clock:    s.clock,
		deadline: s.clock().Add(s.timeout),
		visited:  NewVisitedSet(),
		tally:    NewWordTally(),
	}
}

// crawl runs one root task per starting address, in order, and ranks the
// tally once all of them have finished.
func (s *settings) crawl(ctx context.Context, r *run, name string, startingAddresses []string) (*model.CrawlResult, error) {
	started := s.clock()
	s.logger.Info("crawl started",
		"implementation", name,
		"start_pages", len(startingAddresses),
		"max_depth", s.maxDepth,
		"timeout", s.timeout,
	)

	for _, address := range startingAddresses {
		if ctx.Err() != nil {
			break
		}
		r.compute(ctx, address, s.maxDepth)
	}

	result := model.NewCrawlResult(r.visited.Len())
	if r.tally.Len() > 0 {
		result.WordCounts = RankWords(r.tally.Snapshot(), s.popularWordCount)
	}

	s.logger.Info("crawl finished",
		"implementation", name,
		"urls_visited", result.URLsVisited,
		"distinct_words", r.tally.Len(),
		"elapsed", s.clock().Sub(started),
	)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("crawl interrupted: %w", err)
	}
	return result, nil
}
