// Package redis provides a Redis-backed implementation of the storage.KV interface.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/weighbill/internal/storage"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "weighbill:"

// Ensure RedisStore implements storage.KV
var _ storage.KV = (*RedisStore)(nil)

// RedisStore implements storage.KV on top of plain Redis strings without TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// New connects to the Redis server described by url (redis://host:port/db)
// and verifies the connection.
func New(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewWithClient(client, prefix), nil
}

// NewWithClient wraps an existing client. An empty prefix uses DefaultPrefix.
func NewWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get retrieves the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying client so other components, such as rate
// limiting, can share the connection pool.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}
