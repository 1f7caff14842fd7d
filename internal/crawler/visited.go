package crawler

import (
	"slices"
	"sync"
)

// VisitedSet is the set of URLs already claimed by a task.
// It is safe for concurrent use.
type VisitedSet struct {
	urls sync.Map
}

// NewVisitedSet creates an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{}
}

// Claim inserts url and reports whether this call inserted it.
// When several goroutines claim the same URL at once, exactly one gets true.
func (v *VisitedSet) Claim(url string) bool {
	_, loaded := v.urls.LoadOrStore(url, struct{}{})
	return !loaded
}

// Snapshot returns the claimed URLs in lexical order.
func (v *VisitedSet) Snapshot() []string {
	urls := make([]string, 0)
	v.urls.Range(func(k, _ any) bool {
		urls = append(urls, k.(string)) //nolint:forcetypeassert // only strings are stored
		return true
	})
	slices.Sort(urls)
	return urls
}
