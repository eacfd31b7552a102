package crawler

import (
	"fmt"
	"regexp"
)

// URLFilter excludes addresses that match any of its rules.
// Rules are regular expressions matched against the whole address, so
// "http://example.com/.*" excludes every page below that host while
// "example" alone excludes nothing but the literal address "example".
//
// A URLFilter is read-only after construction and safe for concurrent use.
// The nil *URLFilter excludes nothing.
type URLFilter struct {
	rules []*regexp.Regexp
}

// NewURLFilter compiles the given rules.
func NewURLFilter(patterns []string) (*URLFilter, error) {
	rules := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		rules = append(rules, re)
	}
	return &URLFilter{rules: rules}, nil
}

// IsExcluded reports whether address matches any rule.
func (f *URLFilter) IsExcluded(address string) bool {
	if f == nil {
		return false
	}
	for _, re := range f.rules {
		if re.MatchString(address) {
			return true
		}
	}
	return false
}

// Len returns the number of rules.
func (f *URLFilter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rules)
}
