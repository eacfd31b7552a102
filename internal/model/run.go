package model

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Run describes one crawl invocation as stored in the history database.
type Run struct {
	// ID is a UUID assigned when the run is saved.
	ID string `json:"id"`

	// StartedAt is the wall-clock time the crawl began.
	StartedAt time.Time `json:"startedAt"`

	// Duration is how long the crawl took.
	Duration time.Duration `json:"duration"`

	// StartPages are the starting addresses of the crawl.
	StartPages []string `json:"startPages"`

	// Implementation names the crawler that produced the result.
	Implementation string `json:"implementation"`

	// Parallelism is the effective pool size used by the crawl.
	Parallelism int `json:"parallelism"`

	// Result is the ranked outcome.
	Result *CrawlResult `json:"result"`
}

// Digest returns a hex SHA3-256 fingerprint of a result.
// Two runs that ranked the same words with the same counts and visited the
// same number of pages share a digest.
func Digest(result *CrawlResult) string {
	if result == nil {
		return ""
	}

	var sb strings.Builder
	for _, wc := range result.WordCounts {
		sb.WriteString(wc.Word)
		sb.WriteByte('\t')
		sb.WriteString(strconv.Itoa(wc.Count))
		sb.WriteByte('\n')
	}
	sb.WriteString("visited\t")
	sb.WriteString(strconv.Itoa(result.URLsVisited))

	sum := sha3.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
