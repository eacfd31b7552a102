package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/webcrawler/internal/model"
)

var errNotFound = errors.New("not found")

// graphFetcher serves pages from an in-memory link graph and records how
// often each address was fetched.
type graphFetcher struct {
	pages map[string]*model.Page

	// onFetch, when set, runs before every fetch.
	onFetch func(address string)

	mu    sync.Mutex
	calls map[string]int
}

func newGraphFetcher() *graphFetcher {
	return &graphFetcher{
		pages: make(map[string]*model.Page),
		calls: make(map[string]int),
	}
}

// add registers a page whose body is a space separated word list.
func (f *graphFetcher) add(address, words string, links ...string) *graphFetcher {
	page := model.NewPage(address)
	for _, w := range strings.Fields(words) {
		page.WordCounts[w]++
	}
	page.Links = append(page.Links, links...)
	f.pages[address] = page
	return f
}

func (f *graphFetcher) Fetch(_ context.Context, address string) (*model.Page, error) {
	f.mu.Lock()
	f.calls[address]++
	f.mu.Unlock()

	if f.onFetch != nil {
		f.onFetch(address)
	}

	page, ok := f.pages[address]
	if !ok {
		return nil, errNotFound
	}
	// Callers may keep the page, so hand out a copy.
	out := model.NewPage(page.Address)
	for w, n := range page.WordCounts {
		out.WordCounts[w] = n
	}
	out.Links = append(out.Links, page.Links...)
	return out, nil
}

func (f *graphFetcher) callCount(address string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[address]
}

func (f *graphFetcher) fetched() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.calls))
	for k, v := range f.calls {
		out[k] = v
	}
	return out
}

// manualClock is a clock that only moves when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scenarioGraph is the four page graph used across the crawl tests:
// A -> B, C; B -> D; C -> A, D.
func scenarioGraph() *graphFetcher {
	return newGraphFetcher().
		add("A", "x y", "B", "C").
		add("B", "y y", "D").
		add("C", "x x y", "A", "D").
		add("D", "z")
}
