package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestCrawlResultMarshalJSON tests that the word object keeps rank order.
func TestCrawlResultMarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("keeps rank order instead of sorting keys", func(t *testing.T) {
		t.Parallel()

		result := CrawlResult{
			WordCounts: []WordCount{
				{Word: "zebra", Count: 9},
				{Word: "apple", Count: 4},
				{Word: "mango", Count: 1},
			},
			URLsVisited: 3,
		}

		data, err := json.Marshal(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := `{"wordCounts":{"zebra":9,"apple":4,"mango":1},"urlsVisited":3}`
		if string(data) != want {
			t.Errorf("got %s, want %s", data, want)
		}
	})

	t.Run("empty result writes empty object", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(NewCrawlResult(0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(data), `"wordCounts":{}`) {
			t.Errorf("expected empty wordCounts object, got %s", data)
		}
	})

	t.Run("escapes words", func(t *testing.T) {
		t.Parallel()

		result := CrawlResult{WordCounts: []WordCount{{Word: `say "hi"`, Count: 1}}}
		data, err := json.Marshal(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !json.Valid(data) {
			t.Errorf("invalid JSON: %s", data)
		}
	})
}

// TestCrawlResultUnmarshalJSON tests decoding of the ordered word object.
func TestCrawlResultUnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("restores order", func(t *testing.T) {
		t.Parallel()

		var result CrawlResult
		data := `{"wordCounts":{"zebra":9,"apple":4,"mango":1},"urlsVisited":7}`
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.URLsVisited != 7 {
			t.Errorf("expected 7 visited, got %d", result.URLsVisited)
		}
		words := []string{"zebra", "apple", "mango"}
		if len(result.WordCounts) != len(words) {
			t.Fatalf("expected %d words, got %d", len(words), len(result.WordCounts))
		}
		for i, w := range words {
			if result.WordCounts[i].Word != w {
				t.Errorf("position %d: expected %q, got %q", i, w, result.WordCounts[i].Word)
			}
		}
	})

	t.Run("null word counts", func(t *testing.T) {
		t.Parallel()

		var result CrawlResult
		if err := json.Unmarshal([]byte(`{"wordCounts":null,"urlsVisited":0}`), &result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsEmpty() {
			t.Error("expected empty result")
		}
	})

	t.Run("rejects array", func(t *testing.T) {
		t.Parallel()

		var result CrawlResult
		if err := json.Unmarshal([]byte(`{"wordCounts":[1,2]}`), &result); err == nil {
			t.Error("expected error for array wordCounts")
		}
	})
}

// TestCrawlResultCounts tests conversion to a map.
func TestCrawlResultCounts(t *testing.T) {
	t.Parallel()

	result := CrawlResult{WordCounts: []WordCount{{Word: "x", Count: 3}, {Word: "y", Count: 4}}}
	counts := result.Counts()
	if counts["x"] != 3 || counts["y"] != 4 || len(counts) != 2 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
