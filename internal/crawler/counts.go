package crawler

import (
	"sync"
	"sync/atomic"
)

// WordCounts maps words to the number of times they were seen across
// every visited page. It is safe for concurrent use.
//
// Design decision: Each word owns an *atomic.Int64 stored in a sync.Map.
// The first writer of a word installs the counter with LoadOrStore and every
// writer then adds to it, so an update never needs a read-modify-write under
// a lock and concurrent pages never overwrite each other's counts.
type WordCounts struct {
	counts sync.Map
}

// NewWordCounts creates an empty WordCounts.
func NewWordCounts() *WordCounts {
	return &WordCounts{}
}

// Add adds n occurrences of word. Non-positive n is ignored.
func (w *WordCounts) Add(word string, n int) {
	if n <= 0 {
		return
	}
	c, ok := w.counts.Load(word)
	if !ok {
		c, _ = w.counts.LoadOrStore(word, new(atomic.Int64))
	}
	c.(*atomic.Int64).Add(int64(n)) //nolint:forcetypeassert // only counters are stored
}

// Merge adds every entry of counts.
func (w *WordCounts) Merge(counts map[string]int) {
	for word, n := range counts {
		w.Add(word, n)
	}
}

// Snapshot returns a copy of the counts as a plain map.
func (w *WordCounts) Snapshot() map[string]int {
	out := make(map[string]int)
	w.counts.Range(func(k, v any) bool {
		out[k.(string)] = int(v.(*atomic.Int64).Load()) //nolint:forcetypeassert // see Add
		return true
	})
	return out
}
