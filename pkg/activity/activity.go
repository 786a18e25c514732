// Package activity tracks in-flight operation labels for progress
// indicators. The engine signals the start and end of every remote phase
// through a Tracker; the registry implementation is owned by the caller.
package activity

import (
	"sort"
	"sync"

	"github.com/lantern-kg/lantern/pkg/logger"
)

// Tracker receives start/end signals for in-flight operations. Both calls
// are fire-and-forget and must be safe for concurrent use. Every Add is
// eventually paired with exactly one Remove for the same label, including
// on error paths.
type Tracker interface {
	Add(label string)
	Remove(label string)
}

// Entry is one active label together with how many in-flight operations
// currently hold it.
type Entry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Registry is the reference-counted Tracker implementation. Concurrent
// operations frequently reuse the same label (two queries mentioning the
// same identifier), so a label only becomes inactive once every holder
// has removed it; a plain set would let the first completion clear an
// indicator the second operation still needs.
type Registry struct {
	mu     sync.Mutex
	active map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]int)}
}

// Add increments the label's holder count.
func (r *Registry) Add(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[label]++
}

// Remove decrements the label's holder count and clears the label once
// the count reaches zero. An unmatched Remove is ignored.
func (r *Registry) Remove(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count, ok := r.active[label]
	if !ok {
		logger.Debug("[Activity] Remove without matching Add", "label", label)
		return
	}
	if count <= 1 {
		delete(r.active, label)
		return
	}
	r.active[label] = count - 1
}

// Active returns a snapshot of the current labels, sorted by label.
func (r *Registry) Active() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, 0, len(r.active))
	for label, count := range r.active {
		entries = append(entries, Entry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// Count returns the holder count for a single label.
func (r *Registry) Count(label string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[label]
}

type noop struct{}

func (noop) Add(string)    {}
func (noop) Remove(string) {}

// Noop returns a Tracker that discards every signal. Used where no
// progress surface is attached.
func Noop() Tracker {
	return noop{}
}
