package report

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

const ruleWidth = 60

// SimpleWriter outputs a plain text report for terminals.
// It uses ASCII rules only so that the output survives pipes and files.
type SimpleWriter struct {
	baseWriter

	// verbose adds the run details above the word list.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose adds run details to the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary as text.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeWords(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *Summary) {
	result := summary.result()

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("WEB CRAWLER REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	if summary.RunID != "" {
		fmt.Fprintf(sb, "Run:            %s\n", summary.RunID)
	}
	if w.verbose {
		for i, page := range summary.StartPages {
			label := "Start Page:"
			if i > 0 {
				label = ""
			}
			fmt.Fprintf(sb, "%-16s%s\n", label, page)
		}
		fmt.Fprintf(sb, "Started:        %s\n", formatStartedAt(summary.StartedAt))
		fmt.Fprintf(sb, "Implementation: %s (parallelism %d)\n", orDash(summary.Implementation), summary.Parallelism)
	}
	fmt.Fprintf(sb, "Elapsed:        %s\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(sb, "URLs Visited:   %d\n", result.URLsVisited)
	fmt.Fprintf(sb, "Status:         %s\n", statusText(summary))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeWords(sb *strings.Builder, summary *Summary) {
	result := summary.result()

	sb.WriteString("POPULAR WORDS\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")

	if result.IsEmpty() {
		sb.WriteString("  (no words counted)\n")
		return
	}

	width := 0
	for _, wc := range result.WordCounts {
		width = max(width, utf8.RuneCountInString(wc.Word))
	}
	for i, wc := range result.WordCounts {
		pad := width - utf8.RuneCountInString(wc.Word)
		fmt.Fprintf(sb, "%3d. %s%s  %d\n", i+1, wc.Word, strings.Repeat(" ", pad), wc.Count)
	}
}
