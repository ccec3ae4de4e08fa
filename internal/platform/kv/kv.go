// Package kv is the device-facing key-value storage boundary. The draft
// store and case cache persist their whole structure as one JSON blob per
// key through this interface and never touch the backing store directly.
package kv

import (
	"context"
	"errors"
	"path"
	"sync"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("kv: key not found")

// Store is a string key-value store. Both operations may fail; callers own
// the degrade policy (treat a failed Get as empty, drop a failed Set).
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// KeyScanner is implemented by stores that can enumerate keys by glob
// pattern. The maintenance sweep needs it to find per-device draft stores.
type KeyScanner interface {
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// RedisStore backs Store with a Redis client. Values carry no TTL; lifecycle
// is owned by the components above (explicit sweeps, bounded caches).
type RedisStore struct {
	c *redis.Client
}

func NewRedisStore(c *redis.Client) *RedisStore { return &RedisStore{c: c} }

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.c.Set(ctx, key, value, 0).Err()
}

// Ping reports whether the backing Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

// ScanKeys returns every key matching pattern. Used by the maintenance sweep
// to find per-device draft stores.
func (r *RedisStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// MemStore is an in-process Store used in tests and single-node development.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

func (m *MemStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Ping always succeeds; the store lives in process memory.
func (m *MemStore) Ping(_ context.Context) error { return nil }

// Keys returns all stored keys, in no particular order.
func (m *MemStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// ScanKeys returns every key matching the glob pattern, mirroring
// RedisStore.ScanKeys for the sweep path in development.
func (m *MemStore) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
