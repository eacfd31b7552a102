package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// WordCount is one entry of a ranked word list.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// CrawlResult is the immutable outcome of one crawl.
//
// WordCounts is already ranked; its order is meaningful and is preserved
// by the JSON encoding, which writes the words as a single object in rank
// order: {"wordCounts": {"the": 12, "go": 7}, "urlsVisited": 3}.
type CrawlResult struct {
	// WordCounts holds the most popular words in rank order.
	WordCounts []WordCount

	// URLsVisited is the number of distinct addresses claimed during the crawl.
	URLsVisited int
}

// NewCrawlResult returns a result with an empty, non-nil word list.
func NewCrawlResult(visited int) *CrawlResult {
	return &CrawlResult{
		WordCounts:  make([]WordCount, 0),
		URLsVisited: visited,
	}
}

// IsEmpty reports whether no words were counted.
func (r *CrawlResult) IsEmpty() bool {
	return len(r.WordCounts) == 0
}

// Counts returns the ranked words as a map. The rank order is lost.
func (r *CrawlResult) Counts() map[string]int {
	counts := make(map[string]int, len(r.WordCounts))
	for _, wc := range r.WordCounts {
		counts[wc.Word] = wc.Count
	}
	return counts
}

type crawlResultJSON struct {
	WordCounts  json.RawMessage `json:"wordCounts"`
	URLsVisited int             `json:"urlsVisited"`
}

// MarshalJSON encodes the word list as an object whose keys keep rank order.
func (r CrawlResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, wc := range r.WordCounts {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(wc.Word)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(wc.Count))
	}
	buf.WriteByte('}')

	return json.Marshal(crawlResultJSON{
		WordCounts:  buf.Bytes(),
		URLsVisited: r.URLsVisited,
	})
}

// UnmarshalJSON decodes the object form written by MarshalJSON, keeping
// the order in which the words appear.
func (r *CrawlResult) UnmarshalJSON(data []byte) error {
	var raw crawlResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.URLsVisited = raw.URLsVisited
	r.WordCounts = make([]WordCount, 0)
	if len(raw.WordCounts) == 0 || string(raw.WordCounts) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.WordCounts))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("wordCounts: expected a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		word, ok := tok.(string)
		if !ok {
			return fmt.Errorf("wordCounts: unexpected key %v", tok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("wordCounts[%q]: %w", word, err)
		}
		r.WordCounts = append(r.WordCounts, WordCount{Word: word, Count: count})
	}

	// closing brace
	_, err = dec.Token()
	return err
}
