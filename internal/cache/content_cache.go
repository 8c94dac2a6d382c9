// Package cache provides an optional read-through cache for the public
// content endpoints (testimonials, clients). With no redis address configured
// the nil cache is used and every read goes to the store.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent from the cache.
var ErrMiss = errors.New("cache miss")

// ContentCache stores pre-serialized JSON payloads keyed by endpoint+language.
type ContentCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}

type contentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a redis-backed content cache.
func New(client *redis.Client, ttl time.Duration) ContentCache {
	return &contentCache{client: client, ttl: ttl}
}

func (c *contentCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, "content:"+key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	return data, err
}

func (c *contentCache) Set(ctx context.Context, key string, payload []byte) error {
	return c.client.Set(ctx, "content:"+key, payload, c.ttl).Err()
}

// Disabled is a no-op cache that always misses.
type Disabled struct{}

func (Disabled) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }
func (Disabled) Set(context.Context, string, []byte) error   { return nil }
