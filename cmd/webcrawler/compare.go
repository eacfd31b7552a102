package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/webcrawler/internal/database"
	"github.com/nao1215/webcrawler/internal/model"
	"github.com/nao1215/webcrawler/internal/report"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [previous-id] [current-id]",
		Short: "Compare the results of two saved runs",
		Long: `Compare shows how the ranked words and the number of visited pages changed
between two runs saved with 'webcrawler crawl --save'.

Without arguments the two most recent runs are compared. With one ID that
run is compared with the most recent one.

Examples:
  # Compare the latest two runs
  webcrawler compare

  # Compare a run with the latest one
  webcrawler compare 3f2a9c1e

  # Compare two specific runs as JSON
  webcrawler compare --json 3f2a9c1e 81d0b7aa`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json)")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data dir)")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
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

	previous, current, err := selectRuns(ctx, db, args)
	if err != nil {
		return err
	}

	comparison := compareRuns(previous, current)
	out := cmd.OutOrStdout()
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(comparison)
	case report.FormatMarkdown:
		return writeComparisonMarkdown(out, comparison)
	default:
		writeComparisonText(out, comparison)
		return nil
	}
}

// selectRuns resolves the command arguments to the runs to compare.
func selectRuns(ctx context.Context, db *database.ResultDB, args []string) (*model.Run, *model.Run, error) {
	if len(args) == 2 {
		previous, err := db.GetRun(ctx, args[0])
		if err != nil {
			return nil, nil, err
		}
		current, err := db.GetRun(ctx, args[1])
		if err != nil {
			return nil, nil, err
		}
		return previous, current, nil
	}

	latest, err := db.ListRuns(ctx, 2)
	if err != nil {
		return nil, nil, err
	}
	if len(latest) == 0 {
		return nil, nil, errors.New("no saved runs found (use 'webcrawler crawl --save' first)")
	}

	current, err := db.GetRun(ctx, latest[0].ID)
	if err != nil {
		return nil, nil, err
	}

	if len(args) == 1 {
		previous, err := db.GetRun(ctx, args[0])
		if err != nil {
			return nil, nil, err
		}
		return previous, current, nil
	}

	if len(latest) < 2 {
		return nil, nil, fmt.Errorf("at least 2 saved runs are required for comparison (found %d)", len(latest))
	}
	previous, err := db.GetRun(ctx, latest[1].ID)
	if err != nil {
		return nil, nil, err
	}
	return previous, current, nil
}

// RunInfo identifies one side of a comparison.
type RunInfo struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"startedAt"`
	URLsVisited int       `json:"urlsVisited"`
}

// WordChange is the count of one word in both runs. A count of zero means
// the word was not ranked in that run.
type WordChange struct {
	Word     string `json:"word"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
}

// Delta returns Current - Previous.
func (c WordChange) Delta() int {
	return c.Current - c.Previous
}

// ComparisonResult is the difference between two runs.
type ComparisonResult struct {
	Previous RunInfo `json:"previous"`
	Current  RunInfo `json:"current"`

	// SameResult is true when both rankings and visit counts are identical.
	SameResult bool `json:"sameResult"`

	NewWords       []WordChange `json:"newWords"`
	DroppedWords   []WordChange `json:"droppedWords"`
	ChangedWords   []WordChange `json:"changedWords"`
	UnchangedCount int          `json:"unchangedCount"`
}

// VisitedDelta returns the change in visited pages.
func (r *ComparisonResult) VisitedDelta() int {
	return r.Current.URLsVisited - r.Previous.URLsVisited
}

// compareRuns diffs the ranked words of two runs. Output lists follow the
// current ranking, then the previous one for dropped words.
func compareRuns(previous, current *model.Run) *ComparisonResult {
	prev := resultOf(previous)
	cur := resultOf(current)

	result := &ComparisonResult{
		Previous:     RunInfo{ID: previous.ID, StartedAt: previous.StartedAt, URLsVisited: prev.URLsVisited},
		Current:      RunInfo{ID: current.ID, StartedAt: current.StartedAt, URLsVisited: cur.URLsVisited},
		SameResult:   model.Digest(prev) == model.Digest(cur),
		NewWords:     make([]WordChange, 0),
		DroppedWords: make([]WordChange, 0),
		ChangedWords: make([]WordChange, 0),
	}

	prevCounts := prev.Counts()
	curCounts := cur.Counts()

	for _, wc := range cur.WordCounts {
		before, ok := prevCounts[wc.Word]
		change := WordChange{Word: wc.Word, Previous: before, Current: wc.Count}
		switch {
		case !ok:
			result.NewWords = append(result.NewWords, change)
		case before != wc.Count:
			result.ChangedWords = append(result.ChangedWords, change)
		default:
			result.UnchangedCount++
		}
	}
	for _, wc := range prev.WordCounts {
		if _, ok := curCounts[wc.Word]; !ok {
			result.DroppedWords = append(result.DroppedWords, WordChange{Word: wc.Word, Previous: wc.Count})
		}
	}

	// Largest movement first; ties keep ranking order.
	slices.SortStableFunc(result.ChangedWords, func(a, b WordChange) int {
		return cmp.Compare(abs(b.Delta()), abs(a.Delta()))
	})

	return result
}

func resultOf(run *model.Run) *model.CrawlResult {
	if run.Result == nil {
		return model.NewCrawlResult(0)
	}
	return run.Result
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func writeComparisonText(out io.Writer, r *ComparisonResult) {
	fmt.Fprintf(out, "Run comparison: %s -> %s\n\n", shortID(r.Previous.ID), shortID(r.Current.ID))
	fmt.Fprintf(out, "Previous run: %s  (%d pages)\n", r.Previous.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Previous.URLsVisited)
	fmt.Fprintf(out, "Current run:  %s  (%d pages)\n", r.Current.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Current.URLsVisited)
	fmt.Fprintf(out, "Visited:      %s\n", signed(r.VisitedDelta()))

	if r.SameResult {
		fmt.Fprintln(out, "\nBoth runs produced the same result.")
		return
	}

	if len(r.NewWords) > 0 {
		fmt.Fprintf(out, "\nNew words (%d):\n", len(r.NewWords))
		for _, c := range r.NewWords {
			fmt.Fprintf(out, "  + %-20s %d\n", c.Word, c.Current)
		}
	}
	if len(r.DroppedWords) > 0 {
		fmt.Fprintf(out, "\nDropped words (%d):\n", len(r.DroppedWords))
		for _, c := range r.DroppedWords {
			fmt.Fprintf(out, "  - %-20s %d\n", c.Word, c.Previous)
		}
	}
	if len(r.ChangedWords) > 0 {
		fmt.Fprintf(out, "\nChanged counts (%d):\n", len(r.ChangedWords))
		for _, c := range r.ChangedWords {
			fmt.Fprintf(out, "  * %-20s %d -> %d (%s)\n", c.Word, c.Previous, c.Current, signed(c.Delta()))
		}
	}
	fmt.Fprintf(out, "\n%d word(s) unchanged\n", r.UnchangedCount)
}

func writeComparisonMarkdown(out io.Writer, r *ComparisonResult) error {
	md := markdown.NewMarkdown(out)
	md.H1("Run Comparison")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Run", "`" + shortID(r.Previous.ID) + "`", "`" + shortID(r.Current.ID) + "`", "-"},
			{"Started", r.Previous.StartedAt.Format("2006-01-02 15:04:05 MST"), r.Current.StartedAt.Format("2006-01-02 15:04:05 MST"), "-"},
			{"URLs Visited", strconv.Itoa(r.Previous.URLsVisited), strconv.Itoa(r.Current.URLsVisited), signed(r.VisitedDelta())},
		},
	})
	md.PlainText("")

	if r.SameResult {
		md.Tip("Both runs produced the same result.")
		return md.Build()
	}

	rows := make([][]string, 0, len(r.NewWords)+len(r.DroppedWords)+len(r.ChangedWords))
	for _, c := range r.NewWords {
		rows = append(rows, []string{"`" + c.Word + "`", "-", strconv.Itoa(c.Current), "new"})
	}
	for _, c := range r.DroppedWords {
		rows = append(rows, []string{"`" + c.Word + "`", strconv.Itoa(c.Previous), "-", "dropped"})
	}
	for _, c := range r.ChangedWords {
		rows = append(rows, []string{"`" + c.Word + "`", strconv.Itoa(c.Previous), strconv.Itoa(c.Current), signed(c.Delta())})
	}

	md.H2("Word Changes")
	md.PlainText("")
	if len(rows) == 0 {
		md.PlainText("The ranked words are unchanged.")
	} else {
		md.Table(markdown.TableSet{
			Header: []string{"Word", "Previous", "Current", "Change"},
			Rows:   rows,
		})
	}
	md.PlainText("")
	md.PlainTextf("*%d word(s) unchanged*", r.UnchangedCount)

	return md.Build()
}
