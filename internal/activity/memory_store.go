package activity

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore implements Store using in-memory slices.
// Intended for demos and testing.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) WriteEntries(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *MemoryStore) QueryByModule(_ context.Context, module string, opts QueryOptions) ([]Entry, string, int, error) {
	s.mu.RLock()
	entries := slices.Clone(s.entries)
	s.mu.RUnlock()

	matched, cursor, total := queryEntries(entries, module, opts)
	return matched, cursor, total, nil
}

func (s *MemoryStore) Search(_ context.Context, query string, opts SearchOptions) ([]Entry, int, error) {
	s.mu.RLock()
	entries := slices.Clone(s.entries)
	s.mu.RUnlock()

	matched, total := searchEntries(entries, query, opts)
	return matched, total, nil
}
