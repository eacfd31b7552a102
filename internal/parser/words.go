package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WordFilter drops words that match any of its rules in full.
// The nil *WordFilter keeps every word.
type WordFilter struct {
	rules []*regexp.Regexp
}

// NewWordFilter compiles the ignored-word rules.
func NewWordFilter(patterns []string) (*WordFilter, error) {
	rules := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		rules = append(rules, re)
	}
	return &WordFilter{rules: rules}, nil
}

// IsIgnored reports whether word matches a rule.
func (f *WordFilter) IsIgnored(word string) bool {
	if f == nil {
		return false
	}
	for _, re := range f.rules {
		if re.MatchString(word) {
			return true
		}
	}
	return false
}

// wordCounter splits text into normalized words and counts them.
// A cases.Caser keeps state between calls, so every parse gets its own.
type wordCounter struct {
	lower  cases.Caser
	filter *WordFilter
	counts map[string]int
}

func newWordCounter(filter *WordFilter) *wordCounter {
	return &wordCounter{
		lower:  cases.Lower(language.Und),
		filter: filter,
		counts: make(map[string]int),
	}
}

// add counts every word of text.
func (c *wordCounter) add(text string) {
	for _, field := range strings.FieldsFunc(text, unicode.IsSpace) {
		word := c.normalize(field)
		if word == "" || c.filter.IsIgnored(word) {
			continue
		}
		c.counts[word]++
	}
}

// normalize strips punctuation and folds the word to lower case.
func (c *wordCounter) normalize(field string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, field)
	return c.lower.String(stripped)
}

// Words splits text the same way pages are counted and returns the words in
// order, ignoring none.
func Words(text string) []string {
	c := newWordCounter(nil)
	var out []string
	for _, field := range strings.FieldsFunc(text, unicode.IsSpace) {
		if word := c.normalize(field); word != "" {
			out = append(out, word)
		}
	}
	return out
}
