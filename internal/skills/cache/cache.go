// Package cache provides the key-value store skills consult before calling
// out to read-only collaborators. Every implementation is an optimization
// only; callers treat errors as misses.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"outreach/internal/config"
	"outreach/internal/textutil"
)

// Cache stores opaque values under string keys.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key builds "skill:<name>:<normalized parts>".
func Key(skill string, parts ...string) string {
	return "skill:" + skill + ":" + textutil.JoinTokens(parts...)
}

// Nop never hits and accepts every write.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Redis is a Cache backed by a redis server.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps client. Keys are stored as "<prefix>:<key>" when prefix is set.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: strings.TrimSpace(prefix)}
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements Cache. A non-positive ttl stores without expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Open returns a redis cache when cfg.RedisURL is set and Nop otherwise.
// The returned close function is always safe to call.
func Open(cfg config.Cache) (Cache, func() error, error) {
	url := strings.TrimSpace(cfg.RedisURL)
	if url == "" {
		return Nop{}, func() error { return nil }, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	r := NewRedis(redis.NewClient(opts), cfg.KeyPrefix)
	return r, r.Close, nil
}
