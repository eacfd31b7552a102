package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/webcrawler/internal/config"
	"github.com/nao1215/webcrawler/internal/database"
	"github.com/nao1215/webcrawler/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSite serves two pages that link to each other:
//
//	/   "go go crawler"  -> /a
//	/a  "go crawler words" -> /
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><head><title>Home</title></head>
<body><p>Go go crawler</p><a href="/a"></a></body></html>`)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><body><p>go, crawler! words</p><a href="/"></a></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestConfig(t *testing.T, startPages ...string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.StartPages = startPages
	cfg.MaxDepth = 2
	cfg.Timeout = 10 * time.Second
	cfg.DBDir = t.TempDir()
	return cfg
}

func decodeResult(t *testing.T, data []byte) model.CrawlResult {
	t.Helper()

	var result model.CrawlResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("output is not a JSON result: %v\n%s", err, data)
	}
	return result
}

func wantRanking(t *testing.T, got []model.WordCount, want []model.WordCount) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("ranking = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ranking[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

var testSiteRanking = []model.WordCount{
	{Word: "go", Count: 3},
	{Word: "crawler", Count: 2},
	{Word: "words", Count: 1},
}

func TestRunCrawl(t *testing.T) {
	t.Parallel()

	for _, implementation := range []string{config.ImplementationParallel, config.ImplementationSequential} {
		t.Run(implementation, func(t *testing.T) {
			t.Parallel()

			srv := newTestSite(t)
			cfg := newTestConfig(t, srv.URL+"/")
			cfg.ImplementationOverride = implementation
			cfg.JSONReport = true

			var stdout, stderr bytes.Buffer
			if err := runCrawl(context.Background(), cfg, &stdout, &stderr, discardLogger()); err != nil {
				t.Fatalf("runCrawl() error = %v", err)
			}

			result := decodeResult(t, stdout.Bytes())
			if result.URLsVisited != 2 {
				t.Errorf("URLsVisited = %d, want 2", result.URLsVisited)
			}
			wantRanking(t, result.WordCounts, testSiteRanking)
		})
	}
}

func TestRunCrawl_Filters(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	cfg := newTestConfig(t, srv.URL+"/")
	cfg.JSONReport = true
	cfg.IgnoredURLs = []string{".*/a"}
	cfg.IgnoredWords = []string{"go"}

	var stdout bytes.Buffer
	if err := runCrawl(context.Background(), cfg, &stdout, io.Discard, discardLogger()); err != nil {
		t.Fatalf("runCrawl() error = %v", err)
	}

	result := decodeResult(t, stdout.Bytes())
	if result.URLsVisited != 1 {
		t.Errorf("URLsVisited = %d, want 1", result.URLsVisited)
	}
	wantRanking(t, result.WordCounts, []model.WordCount{{Word: "crawler", Count: 1}})
}

func TestRunCrawl_LocalFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	pages := map[string]string{
		"home.html":  `<html><body>local page <a href="other.html">x</a></body></html>`,
		"other.html": `<html><body>other page</body></html>`,
	}
	for name, body := range pages {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
	}

	cfg := newTestConfig(t, "file:///home.html")
	cfg.LocalFilesRoot = root
	cfg.JSONReport = true

	var stdout bytes.Buffer
	if err := runCrawl(context.Background(), cfg, &stdout, io.Discard, discardLogger()); err != nil {
		t.Fatalf("runCrawl() error = %v", err)
	}

	result := decodeResult(t, stdout.Bytes())
	if result.URLsVisited != 2 {
		t.Errorf("URLsVisited = %d, want 2", result.URLsVisited)
	}
	wantRanking(t, result.WordCounts, []model.WordCount{
		{Word: "page", Count: 2},
		{Word: "local", Count: 1},
		{Word: "other", Count: 1},
		{Word: "x", Count: 1},
	})
}

func TestRunCrawl_OutputFiles(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	dir := t.TempDir()
	cfg := newTestConfig(t, srv.URL+"/")
	cfg.MarkdownReport = true
	cfg.ResultPath = filepath.Join(dir, "reports", "result.md")
	cfg.ProfileOutputPath = filepath.Join(dir, "profile", "profile.txt")

	var stdout bytes.Buffer
	if err := runCrawl(context.Background(), cfg, &stdout, io.Discard, discardLogger()); err != nil {
		t.Fatalf("runCrawl() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be written to stdout, got %q", stdout.String())
	}

	reportData, err := os.ReadFile(cfg.ResultPath)
	if err != nil {
		t.Fatalf("report file: %v", err)
	}
	if !strings.Contains(string(reportData), "# Web Crawler Report") {
		t.Errorf("unexpected report:\n%s", reportData)
	}

	profile, err := os.ReadFile(cfg.ProfileOutputPath)
	if err != nil {
		t.Fatalf("profile file: %v", err)
	}
	for _, want := range []string{"Run at ", "crawl took ", "fetch took ", "(2 calls)"} {
		if !strings.Contains(string(profile), want) {
			t.Errorf("profile missing %q:\n%s", want, profile)
		}
	}
}

func TestRunCrawl_ProfileToStdout(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	cfg := newTestConfig(t, srv.URL+"/")
	cfg.ProfileOutputPath = config.ProfileStdout

	var stdout bytes.Buffer
	if err := runCrawl(context.Background(), cfg, &stdout, io.Discard, discardLogger()); err != nil {
		t.Fatalf("runCrawl() error = %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "WEB CRAWLER REPORT") || !strings.Contains(output, "fetch took ") {
		t.Errorf("expected report followed by profile, got:\n%s", output)
	}
}

func TestRunCrawl_Interrupted(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	cfg := newTestConfig(t, srv.URL+"/")
	cfg.JSONReport = true
	cfg.SaveToDB = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	err := runCrawl(ctx, cfg, &stdout, io.Discard, discardLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	// The partial result is still reported and saved.
	result := decodeResult(t, stdout.Bytes())
	if result.URLsVisited != 0 {
		t.Errorf("URLsVisited = %d, want 0", result.URLsVisited)
	}

	db, err := database.Open(cfg.DBDir, database.Options{})
	if err != nil {
		t.Fatalf("history database: %v", err)
	}
	defer db.Close()
	runs, err := db.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d saved runs, want 1", len(runs))
	}
}

func TestRunCrawl_SaveAndShowHistory(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	cfg := newTestConfig(t, srv.URL+"/")
	cfg.SaveToDB = true

	var stdout bytes.Buffer
	if err := runCrawl(context.Background(), cfg, &stdout, io.Discard, discardLogger()); err != nil {
		t.Fatalf("runCrawl() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Run:") {
		t.Error("saved runs should show their ID in the report")
	}

	db, err := database.Open(cfg.DBDir, database.Options{})
	if err != nil {
		t.Fatal(err)
	}
	runs, err := db.ListRuns(context.Background(), 0)
	_ = db.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d saved runs, want 1", len(runs))
	}

	cmd := NewHistoryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--db-dir", cfg.DBDir, "--json", shortID(runs[0].ID)})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history error = %v", err)
	}

	result := decodeResult(t, out.Bytes())
	wantRanking(t, result.WordCounts, testSiteRanking)
}

func TestRunCrawl_InvalidProxy(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, "http://example.com/")
	cfg.Proxy = "not-a-proxy"

	err := runCrawl(context.Background(), cfg, io.Discard, io.Discard, discardLogger())
	if err == nil {
		t.Fatal("expected an error for an invalid proxy address")
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "crawl.yaml")
	content := `startPages:
  - https://example.com/
ignoredUrls:
  - .*\.png
maxDepth: 4
timeoutSeconds: 60
popularWordCount: 5
parallelism: 2
headers:
  Accept-Language: en
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", configPath}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.MaxDepth != 4 || cfg.Timeout != time.Minute || cfg.PopularWordCount != 5 || cfg.Parallelism != 2 {
			t.Errorf("cfg = depth %d, timeout %v, popular %d, parallelism %d",
				cfg.MaxDepth, cfg.Timeout, cfg.PopularWordCount, cfg.Parallelism)
		}
		if cfg.RequestTimeout != config.DefaultRequestTimeout {
			t.Errorf("RequestTimeout = %v, want default", cfg.RequestTimeout)
		}
		if cfg.ConfigFilePath != configPath {
			t.Errorf("ConfigFilePath = %q", cfg.ConfigFilePath)
		}
		if cfg.Headers["Accept-Language"] != "en" {
			t.Errorf("Headers = %v", cfg.Headers)
		}
	})

	t.Run("explicit flags override the file", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		err := cmd.ParseFlags([]string{
			"-c", configPath,
			"-d", "1",
			"-t", "5s",
			"--ignore-url", `.*\.jpg`,
			"--ignore-word", "the",
			"-H", "X-Test=1",
			"--implementation", "sequential",
			"--save",
			"--db-dir", "/tmp/history",
		})
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"https://example.org/"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.MaxDepth != 1 || cfg.Timeout != 5*time.Second {
			t.Errorf("depth %d timeout %v, want 1 and 5s", cfg.MaxDepth, cfg.Timeout)
		}
		if cfg.PopularWordCount != 5 {
			t.Errorf("PopularWordCount = %d, want the file value 5", cfg.PopularWordCount)
		}
		wantPages := []string{"https://example.com/", "https://example.org/"}
		if strings.Join(cfg.StartPages, " ") != strings.Join(wantPages, " ") {
			t.Errorf("StartPages = %v, want %v", cfg.StartPages, wantPages)
		}
		if strings.Join(cfg.IgnoredURLs, " ") != `.*\.png .*\.jpg` {
			t.Errorf("IgnoredURLs = %v", cfg.IgnoredURLs)
		}
		if len(cfg.IgnoredWords) != 1 || cfg.IgnoredWords[0] != "the" {
			t.Errorf("IgnoredWords = %v", cfg.IgnoredWords)
		}
		if cfg.Headers["X-Test"] != "1" || cfg.Headers["Accept-Language"] != "en" {
			t.Errorf("Headers = %v", cfg.Headers)
		}
		if cfg.ImplementationOverride != config.ImplementationSequential {
			t.Errorf("ImplementationOverride = %q", cfg.ImplementationOverride)
		}
		if !cfg.SaveToDB || cfg.DBDir != "/tmp/history" {
			t.Errorf("SaveToDB = %v, DBDir = %q", cfg.SaveToDB, cfg.DBDir)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd, nil)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("err = %v, want ErrConfigNotFound", err)
		}
	})
}

func TestRunCrawlCmd_ValidationError(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, []byte("maxDepth: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := NewCrawlCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"-c", configPath, "--json", "--markdown", "https://example.com/"})

	err := cmd.Execute()
	if !errors.Is(err, config.ErrConflictingReportFormats) {
		t.Errorf("err = %v, want ErrConflictingReportFormats", err)
	}
}
