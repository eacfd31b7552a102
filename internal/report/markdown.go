package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// pieChartSlices caps how many words the pie chart shows.
const pieChartSlices = 10

// MarkdownWriter outputs a Markdown report with a run table, the ranked
// word table and a mermaid pie chart of the most popular words.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	w.writeWords(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	result := summary.result()

	md.H1("Web Crawler Report")
	md.PlainText("")

	rows := make([][]string, 0, 8)
	if summary.RunID != "" {
		rows = append(rows, []string{"Run", "`" + summary.RunID + "`"})
	}
	rows = append(rows,
		[]string{"Start Pages", startPagesCell(summary.StartPages)},
		[]string{"Started", formatStartedAt(summary.StartedAt)},
		[]string{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()},
		[]string{"Implementation", orDash(summary.Implementation)},
		[]string{"Parallelism", strconv.Itoa(summary.Parallelism)},
		[]string{"URLs Visited", strconv.Itoa(result.URLsVisited)},
		[]string{"Status", statusText(summary)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *Summary) {
	result := summary.result()

	switch {
	case result.URLsVisited == 0:
		md.Cautionf("No pages were visited. Check the start pages and the ignored URL patterns.")
	case summary.Interrupted:
		md.Warningf("The crawl was interrupted after visiting %d page(s); counts are partial.", result.URLsVisited)
	case result.IsEmpty():
		md.Note("Pages were visited but no words were counted.")
	default:
		return
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeWords(md *markdown.Markdown, summary *Summary) {
	result := summary.result()

	md.H2("Popular Words")
	md.PlainText("")

	if result.IsEmpty() {
		md.PlainText("No words counted.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.WordCounts))
	for i, wc := range result.WordCounts {
		rows[i] = []string{strconv.Itoa(i + 1), "`" + wc.Word + "`", strconv.Itoa(wc.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Word Distribution"),
		piechart.WithShowData(true),
	)
	for i, wc := range result.WordCounts {
		if i == pieChartSlices {
			break
		}
		chart.LabelAndIntValue(wc.Word, uint64(wc.Count)) //nolint:gosec // counts are never negative
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by webcrawler*")
}

func startPagesCell(pages []string) string {
	if len(pages) == 0 {
		return "-"
	}
	quoted := make([]string, len(pages))
	for i, p := range pages {
		quoted[i] = "`" + p + "`"
	}
	return strings.Join(quoted, "<br>")
}

func formatStartedAt(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

func statusText(summary *Summary) string {
	if summary.Interrupted {
		return "Interrupted (partial results)"
	}
	return "Complete"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
