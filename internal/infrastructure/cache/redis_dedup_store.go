package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/propman/backend/internal/domain/syndication"
)

const defaultDedupKeyPrefix = "syndication:webhook:seen:"

// RedisDedupStore implements syndication.IdempotencyStore on Redis, for
// deployments where multiple instances receive callbacks behind one
// load balancer and must share dedup state.
type RedisDedupStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDedupStore creates a dedup store sharing an existing Redis client.
// An empty keyPrefix selects the default.
func NewRedisDedupStore(client *redis.Client, keyPrefix string) *RedisDedupStore {
	if keyPrefix == "" {
		keyPrefix = defaultDedupKeyPrefix
	}
	return &RedisDedupStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed records the event id with a TTL using SETNX, so the
// check-and-set is a single atomic operation. Returns true if the id was
// newly recorded.
func (s *RedisDedupStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+eventID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: mark event %s: %w", eventID, err)
	}
	return ok, nil
}

// IsProcessed reports whether the event id is recorded
func (s *RedisDedupStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("cache: check event %s: %w", eventID, err)
	}
	return n > 0, nil
}

// Forget deletes the recorded event id so a redelivery is accepted again
func (s *RedisDedupStore) Forget(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, s.keyPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("cache: forget event %s: %w", eventID, err)
	}
	return nil
}

var _ syndication.IdempotencyStore = (*RedisDedupStore)(nil)
