package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the directory name used below the XDG base directories.
	AppName = "webcrawler"

	// DefaultTimeout is the wall-clock budget of a whole crawl.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDepth is the number of hops followed from each start page.
	DefaultMaxDepth = 10

	// DefaultPopularWordCount is the number of ranked words reported.
	DefaultPopularWordCount = 10

	// DefaultParallelism of 0 uses every CPU.
	DefaultParallelism = 0

	// DefaultRequestTimeout bounds a single HTTP request.
	DefaultRequestTimeout = 15 * time.Second

	// DefaultMaxBodySize limits how much of a response body is parsed.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = "webcrawler/1.0 (+https://github.com/nao1215/webcrawler)"

	// DefaultTorStartupTimeout bounds the bootstrap of the embedded Tor daemon.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultHistoryLimit is the number of runs listed by the history command.
	DefaultHistoryLimit = 20
)

// Implementation names accepted by ImplementationOverride.
const (
	ImplementationParallel   = "parallel"
	ImplementationSequential = "sequential"
)

// ProfileStdout as ProfileOutputPath writes profiling data to stdout.
const ProfileStdout = "-"

// Config holds every setting of one crawl run.
type Config struct {
	// StartPages are the addresses the crawl starts from, in order.
	StartPages []string

	// IgnoredURLs are regular expressions; an address matching one in full
	// is never fetched.
	IgnoredURLs []string

	// IgnoredWords are regular expressions; a word matching one in full is
	// never counted.
	IgnoredWords []string

	// Parallelism is the requested number of concurrent fetches.
	// Zero uses every CPU; larger values are clamped to the CPU count.
	Parallelism int

	// ImplementationOverride selects the crawler: "parallel" (the default
	// when empty) or "sequential".
	ImplementationOverride string

	// MaxDepth is the number of hops followed from each start page.
	// Zero fetches nothing.
	MaxDepth int

	// Timeout is the wall-clock budget of the crawl. Zero fetches nothing.
	Timeout time.Duration

	// PopularWordCount is the number of ranked words in the result.
	PopularWordCount int

	// ProfileOutputPath receives timing data when set. "-" means stdout.
	ProfileOutputPath string

	// ResultPath receives the report when set; otherwise it goes to stdout.
	ResultPath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// UserAgent is sent with every request.
	UserAgent string

	// Headers are added to every request.
	Headers map[string]string

	// Cookie is a raw cookie string sent with every request.
	Cookie string

	// Proxy is a SOCKS5 proxy address in host:port form.
	Proxy string

	// UseTor starts an embedded Tor daemon and routes requests through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration

	// MaxBodySize limits how many bytes of a response are parsed.
	MaxBodySize int64

	// LocalFilesRoot, when set, serves file:// start pages from this directory.
	LocalFilesRoot string

	// SaveToDB stores the finished run in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	DBDir string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool

	// ConfigFilePath is the configuration file given on the command line.
	ConfigFilePath string
}

// NewConfig returns a Config populated with the defaults.
func NewConfig() *Config {
	return &Config{
		Parallelism:            DefaultParallelism,
		ImplementationOverride: ImplementationParallel,
		MaxDepth:               DefaultMaxDepth,
		Timeout:                DefaultTimeout,
		PopularWordCount:       DefaultPopularWordCount,
		UserAgent:              DefaultUserAgent,
		Headers:                make(map[string]string),
		TorStartupTimeout:      DefaultTorStartupTimeout,
		RequestTimeout:         DefaultRequestTimeout,
		MaxBodySize:            DefaultMaxBodySize,
		DBDir:                  XDGDataDir(),
	}
}

// XDGDataDir returns the data directory, where the history database lives.
// On Linux: ~/.local/share/webcrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the configuration directory.
// On Linux: ~/.config/webcrawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.StartPages) == 0 {
		return ErrNoStartPages
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeout, c.Timeout)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request timeout %v", ErrInvalidTimeout, c.RequestTimeout)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, c.MaxDepth)
	}
	if c.PopularWordCount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPopularWordCount, c.PopularWordCount)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidParallelism, c.Parallelism)
	}
	switch c.ImplementationOverride {
	case "", ImplementationParallel, ImplementationSequential:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownImplementation, c.ImplementationOverride)
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Proxy != "" && c.UseTor {
		return ErrConflictingProxy
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxBodySize, c.MaxBodySize)
	}
	if err := validatePatterns("ignoredUrls", c.IgnoredURLs); err != nil {
		return err
	}
	return validatePatterns("ignoredWords", c.IgnoredWords)
}

func validatePatterns(field string, patterns []string) error {
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w in %s %q: %w", ErrInvalidPattern, field, p, err)
		}
	}
	return nil
}
