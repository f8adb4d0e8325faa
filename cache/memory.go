package cache

import (
	"sync"
	"time"
)

// MemoryStore is a map guarded by a single RWMutex. Lookups share the read
// lock; Insert takes the write lock only for the map assignment.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	now     Clock
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		entries: make(map[Key]Entry),
		now:     o.now,
	}
}

// Lookup implements Reader.
func (m *MemoryStore) Lookup(key Key) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	return e, ok
}

// Insert implements Writer. The entry is built before the lock is taken and
// assigned as a value, so readers see either the old or the new entry.
func (m *MemoryStore) Insert(key Key, payload string) error {
	e := Entry{InsertedAt: m.stamp(), Payload: payload}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Len implements Store.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) stamp() time.Time {
	return m.now()
}
