package crawler

import (
	"slices"
	"sync"
	"sync/atomic"
)

// VisitedSet records the addresses claimed for crawling during one run.
// It is safe for concurrent use.
type VisitedSet struct {
	addresses sync.Map
	size      atomic.Int64
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{}
}

// Add claims address and reports whether the caller won the claim.
// The test and the insert are one atomic step: when several goroutines add
// the same address at once, exactly one of them gets true.
func (s *VisitedSet) Add(address string) bool {
	if _, loaded := s.addresses.LoadOrStore(address, struct{}{}); loaded {
		return false
	}
	s.size.Add(1)
	return true
}

// Contains reports whether address has been claimed.
func (s *VisitedSet) Contains(address string) bool {
	_, ok := s.addresses.Load(address)
	return ok
}

// Len returns the number of claimed addresses.
func (s *VisitedSet) Len() int {
	return int(s.size.Load())
}

// Addresses returns the claimed addresses in lexical order.
func (s *VisitedSet) Addresses() []string {
	out := make([]string, 0, s.Len())
	s.addresses.Range(func(key, _ any) bool {
		out = append(out, key.(string)) //nolint:forcetypeassert // only strings are stored
		return true
	})
	slices.Sort(out)
	return out
}
