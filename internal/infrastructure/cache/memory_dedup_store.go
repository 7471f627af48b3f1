// Package cache provides webhook deduplication stores. Platforms redeliver
// callbacks, so each remote event id is remembered for a TTL and replays
// within that window are dropped.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/propman/backend/internal/domain/syndication"
)

// dedupEntry represents a seen remote event id with expiration
type dedupEntry struct {
	expiresAt time.Time
}

// MemoryDedupStore implements syndication.IdempotencyStore with an in-memory
// map. Suitable for single-instance deployments and testing.
type MemoryDedupStore struct {
	mu        sync.RWMutex
	entries   map[string]dedupEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryDedupStore creates an in-memory dedup store and starts a
// background goroutine that sweeps expired entries.
func NewMemoryDedupStore() *MemoryDedupStore {
	s := &MemoryDedupStore{
		entries:  make(map[string]dedupEntry),
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweepLoop()

	return s
}

// MarkProcessed records the event id with a TTL. Returns true if the id was
// newly recorded, false if a live entry already exists.
func (s *MemoryDedupStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[eventID]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	s.entries[eventID] = dedupEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// IsProcessed reports whether a live entry exists for the event id.
// Expired entries count as not processed.
func (s *MemoryDedupStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[eventID]
	if !exists {
		return false, nil
	}
	if time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Forget drops the entry for the event id, if any.
func (s *MemoryDedupStore) Forget(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, eventID)
	return nil
}

// Close stops the sweep goroutine. Safe to call multiple times.
func (s *MemoryDedupStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *MemoryDedupStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes expired entries
func (s *MemoryDedupStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for eventID, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, eventID)
		}
	}
}

// Size returns the number of entries (for testing/monitoring)
func (s *MemoryDedupStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ syndication.IdempotencyStore = (*MemoryDedupStore)(nil)
