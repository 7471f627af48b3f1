// Package store provides implementations of the syndication.Store port:
// an in-memory map for tests and single-process use, a Redis-backed store,
// and a SQL-backed store over a single key/value table. All three encode
// values as JSON documents with last-write-wins semantics.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/propman/backend/internal/domain/syndication"
)

// MemoryStore implements syndication.Store with an in-process map.
// Values are kept JSON-encoded so Get/Set behave exactly like the durable
// backends, including serialization errors.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get reads the value at key into dest
func (s *MemoryStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set writes value at key
func (s *MemoryStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

// Delete removes the key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

var _ syndication.Store = (*MemoryStore)(nil)
