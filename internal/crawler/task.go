package crawler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/webcrawler/internal/model"
)

// run is the state shared by every task of one crawl.
type run struct {
	fetcher  PageFetcher
	filter   *URLFilter
	clock    func() time.Time
	deadline time.Time
	visited  *VisitedSet
	tally    *WordTally

	// slots bounds concurrent fetches. Nil means tasks run on the calling
	// goroutine one after another.
	slots *semaphore.Weighted
}

// expired reports whether the deadline has been reached.
func (r *run) expired() bool {
	return !r.clock().Before(r.deadline)
}

// compute crawls address with the given remaining depth and returns once the
// whole subtree below it has finished. It reports whether the page itself
// was fetched.
func (r *run) compute(ctx context.Context, address string, depth int) bool {
	if depth <= 0 || r.expired() || ctx.Err() != nil {
		return false
	}
	if r.filter.IsExcluded(address) {
		return false
	}
	if !r.visited.Add(address) {
		return false
	}

	page, ok := r.fetch(ctx, address)
	if !ok {
		return false
	}

	if r.slots == nil {
		for _, link := range page.Links {
			r.compute(ctx, link, depth-1)
		}
		return true
	}

	var g errgroup.Group
	for _, link := range page.Links {
		g.Go(func() error {
			r.compute(ctx, link, depth-1)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors
	return true
}

// fetch downloads address while holding a worker slot and merges its words.
// The slot is released before returning, so children are spawned and joined
// without occupying the pool.
func (r *run) fetch(ctx context.Context, address string) (*model.Page, bool) {
	if r.slots != nil {
		if err := r.slots.Acquire(ctx, 1); err != nil {
			return nil, false
		}
		defer r.slots.Release(1)

		// Waiting for the slot may have taken us past the deadline.
		if r.expired() {
			return nil, false
		}
	}

	page, err := r.fetcher.Fetch(ctx, address)
	if err != nil || page == nil {
		return nil, false
	}
	r.tally.Merge(page.WordCounts)
	return page, true
}
