package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/propman/backend/internal/domain/syndication"
)

// RedisStore implements syndication.Store on Redis. Each key holds one JSON
// document; there is no TTL, retention is handled by the domain's list caps.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given Redis client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get reads the value at key into dest
func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("store: redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

// Set writes value at key
func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("store: redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("store: redis del %s: %w", key, err)
	}
	return nil
}

var _ syndication.Store = (*RedisStore)(nil)
