package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/webcrawler/internal/config"
	"github.com/nao1215/webcrawler/internal/database"
	"github.com/nao1215/webcrawler/internal/report"
)

// shortIDLength is the run ID prefix shown in listings.
const shortIDLength = 8

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List saved crawl runs or show one of them",
		Long: `History reads the runs saved with 'webcrawler crawl --save'.

Without arguments the most recent runs are listed, newest first. With a run
ID (or a unique prefix of one) the stored result of that run is printed
through the same report formats as the crawl command.

Examples:
  # List the last 20 runs
  webcrawler history

  # Show one run as Markdown
  webcrawler history -m 3f2a9c1e`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", config.DefaultHistoryLimit, "Number of runs to list (0 = all)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json)")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data dir)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	format, err := formatFlags(cmd)
	if err != nil {
		return err
	}
	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		return showRun(ctx, db, args[0], format, out)
	}
	return listRuns(ctx, db, limit, format, out)
}

// formatFlags reads --json and --markdown.
func formatFlags(cmd *cobra.Command) (report.Format, error) {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return "", err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return "", err
	}

	switch {
	case jsonOutput && markdownOutput:
		return "", config.ErrConflictingReportFormats
	case jsonOutput:
		return report.FormatJSON, nil
	case markdownOutput:
		return report.FormatMarkdown, nil
	default:
		return report.FormatText, nil
	}
}

// openHistory opens an existing history database; it is never created by
// the read-only commands.
func openHistory(cmd *cobra.Command) (*database.ResultDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database (save a run with 'webcrawler crawl --save' first): %w", err)
	}
	return db, nil
}

func showRun(ctx context.Context, db *database.ResultDB, id string, format report.Format, out io.Writer) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	var w report.Writer
	if format == report.FormatText {
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	} else if w, err = report.NewWriter(format, out); err != nil {
		return err
	}

	_, err = w.Write(report.NewSummaryFromRun(run))
	return err
}

// historyEntry is the JSON form of a listed run.
type historyEntry struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"startedAt"`
	DurationMillis int64     `json:"durationMillis"`
	Implementation string    `json:"implementation"`
	Parallelism    int       `json:"parallelism"`
	StartPages     []string  `json:"startPages"`
	URLsVisited    int       `json:"urlsVisited"`
	Digest         string    `json:"digest"`
}

func listRuns(ctx context.Context, db *database.ResultDB, limit int, format report.Format, out io.Writer) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	switch format {
	case report.FormatJSON:
		entries := make([]historyEntry, len(runs))
		for i, r := range runs {
			entries[i] = historyEntry{
				ID:             r.ID,
				StartedAt:      r.StartedAt,
				DurationMillis: r.Duration.Milliseconds(),
				Implementation: r.Implementation,
				Parallelism:    r.Parallelism,
				StartPages:     r.StartPages,
				URLsVisited:    r.URLsVisited,
				Digest:         r.Digest,
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case report.FormatMarkdown:
		return writeHistoryMarkdown(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No saved runs found.")
		fmt.Fprintln(out, "\nUse 'webcrawler crawl --save <url>' to keep a run in the history.")
		return nil
	}

	fmt.Fprintf(out, "Saved runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-8s  %-19s  %-9s  %-7s  %s\n", "ID", "Started", "Elapsed", "Visited", "Start Pages")
	for _, r := range runs {
		fmt.Fprintf(out, "  %-8s  %-19s  %-9s  %-7d  %s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration.Round(time.Millisecond),
			r.URLsVisited,
			strings.Join(r.StartPages, " "),
		)
	}
	fmt.Fprintln(out, "\nUse 'webcrawler history <id>' to show a run.")
	fmt.Fprintln(out, "Use 'webcrawler compare <id> <id>' to compare two runs.")

	return nil
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

func writeHistoryMarkdown(out io.Writer, runs []database.RunMetadata) error {
	md := markdown.NewMarkdown(out)
	md.H1("Crawl History")
	md.PlainText("")

	if len(runs) == 0 {
		md.Note("No saved runs found.")
		return md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			"`" + shortID(r.ID) + "`",
			r.StartedAt.Format("2006-01-02 15:04:05 MST"),
			r.Duration.Round(time.Millisecond).String(),
			r.Implementation,
			fmt.Sprint(r.URLsVisited),
			strings.Join(r.StartPages, "<br>"),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Started", "Elapsed", "Implementation", "Visited", "Start Pages"},
		Rows:   rows,
	})

	return md.Build()
}
