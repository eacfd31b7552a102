package crawler

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/webcrawler/internal/model"
)

// RankWords orders counts and returns the first n entries.
//
// Order: higher count first; on equal counts the longer word (in runes)
// first; on equal length, lexical order. Words are distinct map keys, so the
// order is total and the output is the same on every call.
// When fewer than n words exist all of them are returned.
func RankWords(counts map[string]int, n int) []model.WordCount {
	ranked := make([]model.WordCount, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, model.WordCount{Word: word, Count: count})
	}

	slices.SortFunc(ranked, compareWordCounts)

	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func compareWordCounts(a, b model.WordCount) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	if c := cmp.Compare(utf8.RuneCountInString(b.Word), utf8.RuneCountInString(a.Word)); c != 0 {
		return c
	}
	return strings.Compare(a.Word, b.Word)
}
