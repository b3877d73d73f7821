package requestlog

import "sync"

// InMemoryStore is a thread-safe, append-only in-memory Store. Appends use a
// dedicated lock so recording never contends with rule selection.
type InMemoryStore struct {
	mu         sync.RWMutex
	entries    []*Entry
	maxEntries int
}

// NewInMemoryStore creates an in-memory store. maxEntries bounds the log
// size; when the bound is exceeded the oldest entries are evicted. Pass 0
// for an unbounded log (the default for in-process test servers).
func NewInMemoryStore(maxEntries int) *InMemoryStore {
	return &InMemoryStore{maxEntries: maxEntries}
}

// Append records an entry, evicting the oldest if the store is bounded.
func (s *InMemoryStore) Append(e *Entry) {
	if e == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		overflow := len(s.entries) - s.maxEntries
		s.entries = append(s.entries[:0:0], s.entries[overflow:]...)
	}
}

// List returns a snapshot of all entries in append order.
func (s *InMemoryStore) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]*Entry, len(s.entries))
	copy(snapshot, s.entries)
	return snapshot
}

// Get retrieves an entry by ID. Returns nil if not found.
func (s *InMemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Count returns the number of stored entries.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all entries.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

var _ Store = (*InMemoryStore)(nil)
