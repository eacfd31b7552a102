package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/nao1215/webcrawler/internal/model"
)

// Default request settings.
const (
	DefaultUserAgent   = "webcrawler/1.0 (+https://github.com/nao1215/webcrawler)"
	DefaultMaxBodySize = 5 * 1024 * 1024
)

// HTMLFetcher downloads pages over HTTP and parses them.
// It is safe for concurrent use.
type HTMLFetcher struct {
	client      *http.Client
	files       *http.Client
	userAgent   string
	maxBodySize int64
	words       *WordFilter
	logger      *slog.Logger
}

// FetcherOption configures an HTMLFetcher.
type FetcherOption func(*HTMLFetcher)

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTMLFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes of a response body are parsed.
// Longer bodies are truncated, not rejected.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTMLFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithWordFilter drops ignored words from every parsed page.
func WithWordFilter(words *WordFilter) FetcherOption {
	return func(f *HTMLFetcher) {
		f.words = words
	}
}

// WithLocalFiles serves file:// addresses from the directory root,
// so file:///index.html reads root/index.html.
func WithLocalFiles(root string) FetcherOption {
	return func(f *HTMLFetcher) {
		f.files = &http.Client{
			Transport: http.NewFileTransport(http.Dir(root)),
		}
	}
}

// WithFetcherLogger sets the logger used for failed fetches.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTMLFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTMLFetcher creates a fetcher that sends requests through client.
// A nil client means http.DefaultClient.
func NewHTMLFetcher(client *http.Client, opts ...FetcherOption) *HTMLFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTMLFetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads address and returns its words and links.
// Non-HTML responses yield a page with neither.
func (f *HTMLFetcher) Fetch(ctx context.Context, address string) (*model.Page, error) {
	page, err := f.fetch(ctx, address)
	if err != nil {
		f.logger.Debug("fetch failed", "url", address, "error", err)
		return nil, err
	}
	f.logger.Debug("fetched page",
		"url", address,
		"words", page.TotalWords(),
		"links", len(page.Links),
	)
	return page, nil
}

func (f *HTMLFetcher) fetch(ctx context.Context, address string) (*model.Page, error) {
	client, err := f.clientFor(address)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	page := model.NewPage(address)
	if !isHTML(resp.Header.Get("Content-Type")) {
		return page, nil
	}

	// Links are resolved against the final URL after redirects.
	base := address
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL.String()
	}

	p, err := NewParser(base, f.words)
	if err != nil {
		return nil, err
	}
	result, err := p.Parse(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	page.Title = result.Title
	page.WordCounts = result.WordCounts
	page.Links = result.Links
	return page, nil
}

// clientFor picks the client able to load address.
func (f *HTMLFetcher) clientFor(address string) (*http.Client, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", address, err)
	}
	switch u.Scheme {
	case "http", "https":
		return f.client, nil
	case "file":
		if f.files == nil {
			return nil, fmt.Errorf("%w: %s (local files are disabled)", ErrUnsupportedScheme, u.Scheme)
		}
		return f.files, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// isHTML reports whether the Content-Type names an HTML document.
// A missing Content-Type is treated as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
