package profiler

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/webcrawler/internal/crawler"
	"github.com/nao1215/webcrawler/internal/model"
)

// CallSite is the accumulated timing of one named operation.
type CallSite struct {
	Name  string
	Total time.Duration
	Calls int
}

// Profiler accumulates durations per operation name.
type Profiler struct {
	clock     func() time.Time
	startedAt time.Time

	mu    sync.Mutex
	sites map[string]*CallSite
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(p *Profiler) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// New creates a profiler whose run starts now.
func New(opts ...Option) *Profiler {
	p := &Profiler{
		clock: time.Now,
		sites: make(map[string]*CallSite),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.startedAt = p.clock()
	return p
}

// StartedAt returns the time the profiler was created.
func (p *Profiler) StartedAt() time.Time {
	return p.startedAt
}

// Record adds one call of name that took d.
func (p *Profiler) Record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	site, ok := p.sites[name]
	if !ok {
		site = &CallSite{Name: name}
		p.sites[name] = site
	}
	site.Total += d
	site.Calls++
}

// Time runs fn and records its duration under name, whether fn fails or not.
func (p *Profiler) Time(name string, fn func() error) error {
	start := p.clock()
	defer func() {
		p.Record(name, p.clock().Sub(start))
	}()
	return fn()
}

// WrapFetcher returns a fetcher that records every Fetch of f under name.
func (p *Profiler) WrapFetcher(name string, f crawler.PageFetcher) crawler.PageFetcher {
	return crawler.PageFetcherFunc(func(ctx context.Context, address string) (*model.Page, error) {
		var page *model.Page
		err := p.Time(name, func() error {
			var err error
			page, err = f.Fetch(ctx, address)
			return err
		})
		return page, err
	})
}

// CallSites returns a copy of the recorded timings sorted by name.
func (p *Profiler) CallSites() []CallSite {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]CallSite, 0, len(p.sites))
	for _, site := range p.sites {
		out = append(out, *site)
	}
	slices.SortFunc(out, func(a, b CallSite) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// WriteData writes the summary of this run to w.
func (p *Profiler) WriteData(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Run at %s\n", p.startedAt.Format(time.RFC1123))
	for _, site := range p.CallSites() {
		fmt.Fprintf(bw, "%s took %s (%d calls)\n", site.Name, FormatDuration(site.Total), site.Calls)
	}
	fmt.Fprintln(bw)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write profile data: %w", err)
	}
	return nil
}

// WriteFile appends the summary to the file at path, creating it and its
// parent directories when needed.
func (p *Profiler) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create profile directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // path is user-provided
	if err != nil {
		return fmt.Errorf("failed to open profile file: %w", err)
	}
	if err := p.WriteData(f); err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close profile file: %w", err)
	}
	return nil
}

// FormatDuration renders d as "<m>m <s>s <ms>ms". Minutes are not wrapped
// into hours.
func FormatDuration(d time.Duration) string {
	minutes := int64(d / time.Minute)
	seconds := int64(d % time.Minute / time.Second)
	millis := int64(d % time.Second / time.Millisecond)
	return fmt.Sprintf("%dm %ds %dms", minutes, seconds, millis)
}
