package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisContentCache caches enhanced article content in Redis, keyed by a
// hash of the source URL. Any Redis error degrades silently to a cache miss
// — a cache outage must never fail the run, only slow it down (every URL
// looks "uncached" and gets re-fetched).
type RedisContentCache struct {
	client *redis.Client
}

// NewRedisContentCache builds a RedisContentCache from a redis:// endpoint.
// A malformed endpoint is not fatal: the cache falls back to always-miss.
func NewRedisContentCache(endpoint string) *RedisContentCache {
	opts, err := redis.ParseURL(endpoint)
	if err != nil {
		slog.Warn("invalid cache endpoint, content cache disabled", slog.String("endpoint", endpoint), slog.Any("error", err))
		return &RedisContentCache{client: nil}
	}
	return &RedisContentCache{client: redis.NewClient(opts)}
}

// Get returns the cached content for url, if present.
func (c *RedisContentCache) Get(ctx context.Context, url string) (string, bool) {
	if c.client == nil {
		return "", false
	}

	val, err := c.client.Get(ctx, cacheKey(url)).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("content cache read failed, treating as miss", slog.String("url", url), slog.Any("error", err))
		}
		return "", false
	}
	return val, true
}

// Set stores content for url with the given TTL. Write failures are logged
// and otherwise ignored.
func (c *RedisContentCache) Set(ctx context.Context, url, content string, ttl time.Duration) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(url), content, ttl).Err(); err != nil {
		slog.Warn("content cache write failed", slog.String("url", url), slog.Any("error", err))
	}
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "talkless:content:" + hex.EncodeToString(sum[:])
}
