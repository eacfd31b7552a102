package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webcrawler/internal/config"
	"github.com/nao1215/webcrawler/internal/crawler"
	"github.com/nao1215/webcrawler/internal/database"
	wclog "github.com/nao1215/webcrawler/internal/log"
	"github.com/nao1215/webcrawler/internal/parser"
	"github.com/nao1215/webcrawler/internal/profiler"
	"github.com/nao1215/webcrawler/internal/report"
	"github.com/nao1215/webcrawler/internal/transport"
)

// Profiler call sites.
const (
	profileFetchSite = "fetch"
	profileCrawlSite = "crawl"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [start-url...]",
		Short: "Crawl start pages and report the most popular words",
		Long: `Crawl fetches the start pages, follows their links up to --depth hops and
stops when --timeout expires. Every page is fetched at most once. The words
of all fetched pages are counted and the most popular ones are reported
together with the number of distinct pages visited.

Start pages come from the configuration file (startPages) and from the
arguments, which are appended to it.

Examples:
  # Crawl a site with the defaults (depth 10, 30s, top 10 words)
  webcrawler crawl https://example.com/

  # Shallow crawl, top 20 words as JSON
  webcrawler crawl -d 2 -n 20 --json https://example.com/

  # Skip images and common words, write a Markdown report
  webcrawler crawl --ignore-url '.*\.(png|jpg)' --ignore-word 'the|a|an' \
    -m -o report.md https://example.com/

  # Crawl through Tor and keep the run in the history
  webcrawler crawl --tor --save http://exampleonion.onion/`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	f := cmd.Flags()
	f.StringP("config", "c", "",
		"Configuration file path (default: .webcrawler.yaml, XDG config dir, or home)")

	f.IntP("depth", "d", config.DefaultMaxDepth, "Number of link hops followed from each start page")
	f.DurationP("timeout", "t", config.DefaultTimeout, "Wall-clock budget of the whole crawl")
	f.IntP("popular", "n", config.DefaultPopularWordCount, "Number of popular words to report")
	f.IntP("parallelism", "p", config.DefaultParallelism, "Concurrent fetches (0 = number of CPUs)")
	f.String("implementation", config.ImplementationParallel, "Crawler implementation: parallel or sequential")
	f.StringSlice("ignore-url", nil, "Regular expression of addresses never fetched (repeatable)")
	f.StringSlice("ignore-word", nil, "Regular expression of words never counted (repeatable)")

	f.StringP("output", "o", "", "Write the report to this file (creates directories if needed)")
	f.BoolP("json", "j", false, "Output the JSON result (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output a Markdown report (mutually exclusive with --json)")
	f.String("profile", "", `Append timing data to this file ("-" for stdout)`)

	f.String("user-agent", config.DefaultUserAgent, "User-Agent header sent with every request")
	f.StringToStringP("header", "H", nil, "Extra request header as name=value (repeatable)")
	f.String("cookie", "", "Cookie sent with every request")
	f.Duration("request-timeout", config.DefaultRequestTimeout, "Timeout of a single request")
	f.Int64("max-body-size", config.DefaultMaxBodySize, "Bytes of each response body that are parsed")
	f.String("local-files", "", "Serve file:// addresses from this directory")

	f.String("proxy", "", "SOCKS5 proxy address (host:port)")
	f.Bool("tor", false, "Start an embedded Tor daemon and crawl through it")
	f.Duration("tor-timeout", config.DefaultTorStartupTimeout, "Timeout for the embedded Tor startup")

	f.Bool("save", false, "Save the run to the history database")
	f.String("db-dir", "", "History database directory (default: XDG data dir)")
	f.Bool("log-json", false, "Write logs as JSON")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig layers defaults, the configuration file and the flags the
// user actually set, in that order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	configFlag, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	configPath, err := config.FindConfigFile(configFlag)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		file.ApplyTo(cfg)
		cfg.ConfigFilePath = configPath
	}

	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("popular") {
		if cfg.PopularWordCount, err = flags.GetInt("popular"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("parallelism") {
		if cfg.Parallelism, err = flags.GetInt("parallelism"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("implementation") {
		if cfg.ImplementationOverride, err = flags.GetString("implementation"); err != nil {
			return nil, err
		}
	}

	ignoredURLs, err := flags.GetStringSlice("ignore-url")
	if err != nil {
		return nil, err
	}
	cfg.IgnoredURLs = append(cfg.IgnoredURLs, ignoredURLs...)

	ignoredWords, err := flags.GetStringSlice("ignore-word")
	if err != nil {
		return nil, err
	}
	cfg.IgnoredWords = append(cfg.IgnoredWords, ignoredWords...)

	if flags.Changed("output") {
		if cfg.ResultPath, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if flags.Changed("profile") {
		if cfg.ProfileOutputPath, err = flags.GetString("profile"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	headers, err := flags.GetStringToString("header")
	if err != nil {
		return nil, err
	}
	for name, value := range headers {
		cfg.Headers[name] = value
	}
	if flags.Changed("cookie") {
		if cfg.Cookie, err = flags.GetString("cookie"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("request-timeout") {
		if cfg.RequestTimeout, err = flags.GetDuration("request-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-body-size") {
		if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("local-files") {
		if cfg.LocalFilesRoot, err = flags.GetString("local-files"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}

	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	cfg.StartPages = append(cfg.StartPages, args...)

	return cfg, nil
}

// setupLogger returns a logger that masks credentials before they reach w.
func setupLogger(w io.Writer, verbose, asJSON bool) *slog.Logger {
	if asJSON {
		return wclog.NewSecureJSONLogger(w, verbose)
	}
	return wclog.NewSecureLogger(w, verbose)
}

// runCrawl performs one crawl and emits the report. An interrupted crawl
// still reports and saves its partial result before the interruption is
// returned.
func runCrawl(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	client, cleanup, err := newHTTPClient(ctx, cfg, stderr, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	urlFilter, err := crawler.NewURLFilter(cfg.IgnoredURLs)
	if err != nil {
		return err
	}
	wordFilter, err := parser.NewWordFilter(cfg.IgnoredWords)
	if err != nil {
		return err
	}

	fetcherOpts := []parser.FetcherOption{
		parser.WithUserAgent(cfg.UserAgent),
		parser.WithMaxBodySize(cfg.MaxBodySize),
		parser.WithWordFilter(wordFilter),
		parser.WithFetcherLogger(logger),
	}
	if cfg.LocalFilesRoot != "" {
		fetcherOpts = append(fetcherOpts, parser.WithLocalFiles(cfg.LocalFilesRoot))
	}
	var fetcher crawler.PageFetcher = parser.NewHTMLFetcher(client, fetcherOpts...)

	var prof *profiler.Profiler
	if cfg.ProfileOutputPath != "" {
		prof = profiler.New()
		fetcher = prof.WrapFetcher(profileFetchSite, fetcher)
	}

	c, err := crawler.New(cfg.ImplementationOverride, fetcher,
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithPopularWordCount(cfg.PopularWordCount),
		crawler.WithParallelism(cfg.Parallelism),
		crawler.WithURLFilter(urlFilter),
		crawler.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	summary := &report.Summary{
		StartPages:     cfg.StartPages,
		StartedAt:      time.Now(),
		Implementation: implementationName(cfg.ImplementationOverride),
		Parallelism:    c.Parallelism(),
	}

	crawlOnce := func() error {
		result, err := c.Crawl(ctx, cfg.StartPages)
		summary.Result = result
		return err
	}
	var crawlErr error
	if prof != nil {
		crawlErr = prof.Time(profileCrawlSite, crawlOnce)
	} else {
		crawlErr = crawlOnce()
	}
	summary.Elapsed = time.Since(summary.StartedAt)
	summary.Interrupted = crawlErr != nil
	if crawlErr != nil {
		logger.Warn("crawl interrupted, reporting partial results", "error", crawlErr)
	}

	if cfg.SaveToDB {
		// The history keeps interrupted runs as well.
		if err := saveRun(context.WithoutCancel(ctx), cfg.DBDir, summary, logger); err != nil {
			return err
		}
	}

	if err := writeReport(cfg, summary, stdout); err != nil {
		return err
	}
	if prof != nil {
		if err := writeProfile(prof, cfg.ProfileOutputPath, stdout); err != nil {
			return err
		}
	}

	return crawlErr
}

// newHTTPClient returns the client for the configured route (direct, SOCKS5
// proxy or embedded Tor) and a cleanup that releases it.
func newHTTPClient(ctx context.Context, cfg *config.Config, stderr io.Writer, logger *slog.Logger) (*http.Client, func(), error) {
	opts := []transport.Option{
		transport.WithTimeout(cfg.RequestTimeout),
		transport.WithCookie(cfg.Cookie),
		transport.WithHeaders(cfg.Headers),
	}
	noop := func() {}

	if !cfg.UseTor {
		client, err := transport.NewClient(append(opts, transport.WithProxy(cfg.Proxy))...)
		if err != nil {
			return nil, noop, err
		}
		if client.UsesProxy() {
			if err := client.CheckProxy(ctx).Err(); err != nil {
				return nil, noop, fmt.Errorf("proxy check failed for %s: %w", client.ProxyAddress(), err)
			}
			logger.Info("proxy connection verified", "address", client.ProxyAddress())
		}
		return client.HTTPClient(), noop, nil
	}

	fmt.Fprintln(stderr, "Starting embedded Tor daemon (this may take 1-3 minutes)...")
	tor := transport.NewEmbeddedTor(transport.WithStartupTimeout(cfg.TorStartupTimeout))
	if err := tor.Start(ctx); err != nil {
		return nil, noop, fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	stopTor := func() {
		logger.Info("stopping embedded Tor daemon")
		if err := tor.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}
	logger.Info("embedded Tor daemon started", "socksAddr", tor.SocksAddr())

	client, err := tor.NewClient(opts...)
	if err != nil {
		stopTor()
		return nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
	}
	if err := client.CheckProxy(ctx).Err(); err != nil {
		stopTor()
		return nil, noop, fmt.Errorf("embedded Tor proxy check failed: %w", err)
	}

	return client.HTTPClient(), stopTor, nil
}

func implementationName(override string) string {
	if override == "" {
		return config.ImplementationParallel
	}
	return override
}

func saveRun(ctx context.Context, dbDir string, summary *report.Summary, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	run := summary.Run()
	if err := db.SaveRun(ctx, run); err != nil {
		return err
	}
	summary.RunID = run.ID

	logger.Info("run saved", "id", run.ID, "db", db.Path())
	return nil
}

func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// writeReport writes to ResultPath when set, otherwise to stdout.
func writeReport(cfg *config.Config, summary *report.Summary, stdout io.Writer) (err error) {
	output := stdout
	if cfg.ResultPath != "" {
		f, createErr := createOutputFile(cfg.ResultPath)
		if createErr != nil {
			return createErr
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		output = f
	}

	w, err := report.NewWriter(reportFormat(cfg), output)
	if err != nil {
		return err
	}
	if _, err := w.Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// createOutputFile truncates path with owner-only permissions, creating
// parent directories as needed.
func createOutputFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

func writeProfile(prof *profiler.Profiler, path string, stdout io.Writer) error {
	if path == config.ProfileStdout {
		return prof.WriteData(stdout)
	}
	return prof.WriteFile(path)
}
