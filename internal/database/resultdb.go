package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webcrawler/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "webcrawler.db"

// startedAtLayout is fixed width so that string order equals time order.
const startedAtLayout = "2006-01-02T15:04:05.000000000Z"

// ResultDB stores crawl runs.
type ResultDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the run history in dbDir.
func Open(dbDir string, opts Options) (*ResultDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	mode := "rwc"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		mode = "rw"
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ResultDB{
		db:     db,
		dbPath: dbPath,
	}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (r *ResultDB) Path() string {
	return r.dbPath
}

// Close closes the database connection.
func (r *ResultDB) Close() error {
	return r.db.Close()
}

func (r *ResultDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		duration_ns INTEGER NOT NULL,
		implementation TEXT NOT NULL,
		parallelism INTEGER NOT NULL,
		start_pages TEXT NOT NULL,
		urls_visited INTEGER NOT NULL,
		result_json TEXT NOT NULL,
		digest TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);
	`

	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores a run. An empty ID is replaced with a new UUID, which is
// written back to run.ID.
func (r *ResultDB) SaveRun(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	result := run.Result
	if result == nil {
		result = model.NewCrawlResult(0)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	pagesJSON, err := json.Marshal(nonNil(run.StartPages))
	if err != nil {
		return fmt.Errorf("failed to serialize start pages: %w", err)
	}

	query := `
	INSERT INTO runs (id, started_at, duration_ns, implementation, parallelism, start_pages, urls_visited, result_json, digest)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.StartedAt.UTC().Format(startedAtLayout),
		int64(run.Duration),
		run.Implementation,
		run.Parallelism,
		string(pagesJSON),
		result.URLsVisited,
		string(resultJSON),
		model.Digest(result),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// RunMetadata is a run without its word list, for listings.
type RunMetadata struct {
	ID             string
	StartedAt      time.Time
	Duration       time.Duration
	Implementation string
	Parallelism    int
	StartPages     []string
	URLsVisited    int
	Digest         string
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (r *ResultDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, started_at, duration_ns, implementation, parallelism, start_pages, urls_visited, digest
	FROM runs
	ORDER BY started_at DESC, id
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunMetadata, 0)
	for rows.Next() {
		var (
			meta      RunMetadata
			startedAt string
			duration  int64
			pagesJSON string
		)
		if err := rows.Scan(&meta.ID, &startedAt, &duration, &meta.Implementation,
			&meta.Parallelism, &pagesJSON, &meta.URLsVisited, &meta.Digest); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		meta.Duration = time.Duration(duration)
		if err := json.Unmarshal([]byte(pagesJSON), &meta.StartPages); err != nil {
			return nil, fmt.Errorf("failed to parse start pages of run %s: %w", meta.ID, err)
		}
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRun returns the run with the given ID. A unique ID prefix is accepted
// as well, so the short IDs printed by listings can be used.
func (r *ResultDB) GetRun(ctx context.Context, id string) (*model.Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}

	query := `
	SELECT id, started_at, duration_ns, implementation, parallelism, start_pages, result_json
	FROM runs
	WHERE id = ? OR id LIKE ? ESCAPE '\'
	ORDER BY id = ? DESC
	LIMIT 2
	`

	rows, err := r.db.QueryContext(ctx, query, id, escapeLike(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	runs := make([]*model.Run, 0, 2)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	switch {
	case len(runs) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case runs[0].ID == id, len(runs) == 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}
}

// CountRunsWithDigest returns how many stored runs produced a result with
// the given digest.
func (r *ResultDB) CountRunsWithDigest(ctx context.Context, digest string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE digest = ?", digest).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

func scanRun(rows *sql.Rows) (*model.Run, error) {
	var (
		run        model.Run
		startedAt  string
		duration   int64
		pagesJSON  string
		resultJSON string
	)
	if err := rows.Scan(&run.ID, &startedAt, &duration, &run.Implementation,
		&run.Parallelism, &pagesJSON, &resultJSON); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.Duration = time.Duration(duration)
	if err := json.Unmarshal([]byte(pagesJSON), &run.StartPages); err != nil {
		return nil, fmt.Errorf("failed to parse start pages of run %s: %w", run.ID, err)
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result of run %s: %w", run.ID, err)
	}
	run.Result = &result

	return &run, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// timestampFormats are tried in order by parseTimestamp.
var timestampFormats = []string{
	startedAtLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
