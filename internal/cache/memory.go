package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{entries: make(map[string]Entry[T])}
}

func (s *MemoryStore[T]) Load(_ context.Context, key string) (Entry[T], bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, key string, entry Entry[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

var _ Store[int] = (*MemoryStore[int])(nil)
