package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewCache constructs a cache helper. Keys are stored under "catalog:".
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, prefix: "catalog:"}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

// CachedSource is a read-through cache in front of another Source. Cache
// failures degrade to the underlying source; misses are never cached.
type CachedSource struct {
	Source Source
	Cache  *Cache
}

func cached[T any](ctx context.Context, c *Cache, key string, load func() (T, error)) (T, error) {
	var v T
	if hit, err := c.GetJSON(ctx, key, &v); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if hit {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := c.SetJSON(ctx, key, v); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return v, nil
}

// Rooms implements Source.
func (s CachedSource) Rooms(ctx context.Context) ([]Room, error) {
	return cached(ctx, s.Cache, "rooms", func() ([]Room, error) { return s.Source.Rooms(ctx) })
}

// Room implements Source.
func (s CachedSource) Room(ctx context.Context, id string) (Room, error) {
	return cached(ctx, s.Cache, "room:"+id, func() (Room, error) { return s.Source.Room(ctx, id) })
}

// ProductByID implements Source.
func (s CachedSource) ProductByID(ctx context.Context, id string) (Product, error) {
	return cached(ctx, s.Cache, "product:id:"+id, func() (Product, error) { return s.Source.ProductByID(ctx, id) })
}

// ProductBySlug implements Source.
func (s CachedSource) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	return cached(ctx, s.Cache, "product:slug:"+slug, func() (Product, error) { return s.Source.ProductBySlug(ctx, slug) })
}
