// Package report renders the outcome of a crawl.
//
// Three formats are available:
//   - SimpleWriter: plain text for terminals (the default)
//   - JSONWriter: the result object {"wordCounts": {...}, "urlsVisited": n}
//   - MarkdownWriter: tables plus a mermaid pie chart of the top words
//
// Every writer consumes a Summary, which carries the ranked result together
// with the facts of the run that produced it. Writers implement the Writer
// interface and can be combined with MultiWriter.
package report
