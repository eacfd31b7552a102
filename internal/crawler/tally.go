package crawler

import (
	"sync"
	"sync/atomic"
)

// WordTally accumulates word counts from every page fetched during one run.
// Each word has its own atomic counter, so concurrent merges of unrelated
// words never contend and merges of the same word never lose updates.
type WordTally struct {
	counters sync.Map // word -> *atomic.Int64
	size     atomic.Int64
}

// NewWordTally returns an empty tally.
func NewWordTally() *WordTally {
	return &WordTally{}
}

// Add adds n occurrences of word, starting from zero when word is new.
func (t *WordTally) Add(word string, n int) {
	if v, ok := t.counters.Load(word); ok {
		v.(*atomic.Int64).Add(int64(n)) //nolint:forcetypeassert // only counters are stored
		return
	}

	v, loaded := t.counters.LoadOrStore(word, new(atomic.Int64))
	if !loaded {
		t.size.Add(1)
	}
	v.(*atomic.Int64).Add(int64(n)) //nolint:forcetypeassert // only counters are stored
}

// Merge adds every entry of counts to the tally.
func (t *WordTally) Merge(counts map[string]int) {
	for word, n := range counts {
		t.Add(word, n)
	}
}

// Get returns the accumulated count for word.
func (t *WordTally) Get(word string) int {
	v, ok := t.counters.Load(word)
	if !ok {
		return 0
	}
	return int(v.(*atomic.Int64).Load()) //nolint:forcetypeassert // only counters are stored
}

// Len returns the number of distinct words.
func (t *WordTally) Len() int {
	return int(t.size.Load())
}

// Snapshot copies the tally into a plain map.
// Call it after all writers are done to get a consistent view.
func (t *WordTally) Snapshot() map[string]int {
	out := make(map[string]int, t.Len())
	t.counters.Range(func(key, value any) bool {
		out[key.(string)] = int(value.(*atomic.Int64).Load()) //nolint:forcetypeassert // fixed types
		return true
	})
	return out
}
