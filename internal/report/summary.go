package report

import (
	"time"

	"github.com/nao1215/webcrawler/internal/model"
)

// Summary is what a Writer renders: a crawl result and the run around it.
type Summary struct {
	// RunID is set when the run was saved to or loaded from the history.
	RunID string

	// StartPages are the addresses the crawl began from.
	StartPages []string

	// StartedAt is the wall-clock time the crawl began.
	StartedAt time.Time

	// Elapsed is the time the crawl took.
	Elapsed time.Duration

	// Implementation is the crawler that produced the result.
	Implementation string

	// Parallelism is the effective pool size of the crawl.
	Parallelism int

	// Interrupted is true when the crawl was cancelled before it finished.
	Interrupted bool

	// Result is the ranked outcome. A nil result renders as an empty one.
	Result *model.CrawlResult
}

// NewSummaryFromRun builds a Summary from a stored run.
func NewSummaryFromRun(run *model.Run) *Summary {
	return &Summary{
		RunID:          run.ID,
		StartPages:     run.StartPages,
		StartedAt:      run.StartedAt,
		Elapsed:        run.Duration,
		Implementation: run.Implementation,
		Parallelism:    run.Parallelism,
		Result:         run.Result,
	}
}

// Run converts the summary into a run suitable for the history store.
// The ID is copied as is; the store assigns one when it is empty.
func (s *Summary) Run() *model.Run {
	return &model.Run{
		ID:             s.RunID,
		StartedAt:      s.StartedAt,
		Duration:       s.Elapsed,
		StartPages:     s.StartPages,
		Implementation: s.Implementation,
		Parallelism:    s.Parallelism,
		Result:         s.result(),
	}
}

// result never returns nil.
func (s *Summary) result() *model.CrawlResult {
	if s.Result == nil {
		return model.NewCrawlResult(0)
	}
	return s.Result
}
