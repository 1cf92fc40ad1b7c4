package entry

import (
	"maps"
	"slices"
	"sync"
)

// Registry tracks entries by id. The zero value is ready to use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// Add registers e, replacing any entry with the same id.
func (r *Registry) Add(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = map[string]*Entry{}
	}

	r.entries[e.ID] = e
}

func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	return e, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)
}

// IDs returns the sorted ids of every registered entry.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.entries))
}
