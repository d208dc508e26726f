package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON cache over Redis. A Cache with a nil client always misses.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb. rdb may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON loads key into dest. found is false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (found bool, err error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside serves dest from the cache, or fills it with fetch and stores the
// result. Cache failures are logged and fall through to fetch.
func (c *Cache) Aside(ctx context.Context, name, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		observability.CacheResults.WithLabelValues(name, "hit").Inc()
		return nil
	}
	observability.CacheResults.WithLabelValues(name, "miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	if err := c.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate deletes keys; errors are logged only.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// Version returns the current generation of a namespace. Keys built from it
// go stale together when BumpVersion is called.
func (c *Cache) Version(ctx context.Context, namespace string) int64 {
	if !c.Enabled() {
		return 0
	}
	v, err := c.rdb.Get(ctx, versionKey(namespace)).Int64()
	if err != nil {
		return 0
	}
	return v
}

// BumpVersion invalidates every key of namespace at once.
func (c *Cache) BumpVersion(ctx context.Context, namespace string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, versionKey(namespace)).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache version bump failed", slog.String("namespace", namespace), slog.String("error", err.Error()))
	}
}

func versionKey(namespace string) string {
	return namespace + ":version"
}
