package profiler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/webcrawler/internal/crawler"
	"github.com/nao1215/webcrawler/internal/model"
)

// stepClock advances by step on every call.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 0, want: "0m 0s 0ms"},
		{d: 1500 * time.Millisecond, want: "0m 1s 500ms"},
		{d: 2*time.Minute + 3*time.Second + 4*time.Millisecond + 999*time.Microsecond, want: "2m 3s 4ms"},
		{d: 75 * time.Minute, want: "75m 0s 0ms"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestProfiler_Time(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), step: time.Second}
	p := New(WithClock(clock.Now))

	if err := p.Time("ok", func() error { return nil }); err != nil {
		t.Fatalf("Time() error = %v", err)
	}
	boom := errors.New("boom")
	if err := p.Time("ok", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Time() error = %v, want boom", err)
	}

	sites := p.CallSites()
	if len(sites) != 1 {
		t.Fatalf("CallSites() = %v, want one site", sites)
	}
	if sites[0].Calls != 2 || sites[0].Total != 2*time.Second {
		t.Errorf("site = %+v, want 2 calls totalling 2s", sites[0])
	}
}

func TestProfiler_WrapFetcher(t *testing.T) {
	t.Parallel()

	p := New()
	inner := crawler.PageFetcherFunc(func(_ context.Context, address string) (*model.Page, error) {
		if address == "bad" {
			return nil, errors.New("fetch failed")
		}
		return model.NewPage(address), nil
	})
	f := p.WrapFetcher("fetch", inner)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := f.Fetch(context.Background(), "good")
			if err != nil || page.Address != "good" {
				t.Errorf("Fetch() = %v, %v", page, err)
			}
		}()
	}
	wg.Wait()

	if _, err := f.Fetch(context.Background(), "bad"); err == nil {
		t.Error("Fetch(bad) error = nil, want error")
	}

	sites := p.CallSites()
	if len(sites) != 1 || sites[0].Name != "fetch" || sites[0].Calls != 11 {
		t.Errorf("CallSites() = %+v, want 11 calls of fetch", sites)
	}
}

func TestProfiler_WriteData(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := New(WithClock(func() time.Time { return start }))
	p.Record("zeta", 1500*time.Millisecond)
	p.Record("alpha", 61*time.Second)
	p.Record("alpha", 7*time.Millisecond)

	var buf bytes.Buffer
	if err := p.WriteData(&buf); err != nil {
		t.Fatalf("WriteData() error = %v", err)
	}

	want := "Run at Tue, 02 Jan 2024 03:04:05 UTC\n" +
		"alpha took 1m 1s 7ms (2 calls)\n" +
		"zeta took 0m 1s 500ms (1 calls)\n" +
		"\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteData() =\n%s\nwant\n%s", got, want)
	}
}

func TestProfiler_WriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "profile.txt")

	for range 2 {
		p := New()
		p.Record("crawl", time.Second)
		if err := p.WriteFile(path); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read profile: %v", err)
	}
	if got := strings.Count(string(data), "Run at "); got != 2 {
		t.Errorf("profile has %d runs, want 2 appended runs:\n%s", got, data)
	}
}
