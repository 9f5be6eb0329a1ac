// Package redis provides a Redis-backed cart store for deployments where
// the basket is shared across terminals (e.g. in-store kiosks). The local
// SQLite store remains the default; both sit behind the same cart.Storage
// port.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Storage persists one value under a namespaced key.
type Storage struct {
	client *goredis.Client
	key    string
}

// New connects to the Redis instance at addr. The stored key is
// namespaced as "<serviceName>:<key>" so several clients can share one
// instance without colliding.
func New(addr, serviceName, key string) *Storage {
	return &Storage{
		client: goredis.NewClient(&goredis.Options{Addr: addr}),
		key:    fmt.Sprintf("%s:%s", serviceName, key),
	}
}

// Load returns the persisted value, or ok=false when the key is absent.
func (s *Storage) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: load %q: %w", s.key, err)
	}
	return data, true, nil
}

// Save overwrites the value under the key. The cart has no natural expiry,
// so no TTL is set.
func (s *Storage) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: save %q: %w", s.key, err)
	}
	return nil
}

// Close releases the client's connections.
func (s *Storage) Close() error {
	return s.client.Close()
}
