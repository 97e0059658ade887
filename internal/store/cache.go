package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/gamebook/internal/core"
)

// DefaultCachePrefix namespaces every key the cache writes.
const DefaultCachePrefix = "gamebook:"

// NewRedisClient connects to redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// CachedStore is a read-through Redis cache in front of another store.
// Redis failures are logged and the request falls through to next, so a
// cache outage slows exports down but never fails them.
type CachedStore struct {
	next   core.DocumentStore
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewCachedStore wraps next. An empty prefix uses DefaultCachePrefix.
func NewCachedStore(next core.DocumentStore, client redis.Cmdable, ttl time.Duration, prefix string, logger *slog.Logger) *CachedStore {
	if prefix == "" {
		prefix = DefaultCachePrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{next: next, client: client, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *CachedStore) slugsKey() string         { return c.prefix + "slugs" }
func (c *CachedStore) docKey(slug string) string { return c.prefix + "doc:" + slug }

func (c *CachedStore) List(ctx context.Context) ([]string, error) {
	cached, err := c.client.Get(ctx, c.slugsKey()).Bytes()
	switch {
	case err == nil:
		var slugs []string
		if jsonErr := json.Unmarshal(cached, &slugs); jsonErr == nil {
			return slugs, nil
		}
		c.logger.Warn("discarding corrupt cached slug list", "key", c.slugsKey())
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", "key", c.slugsKey(), "error", err)
	}

	slugs, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(slugs); err == nil {
		c.set(ctx, c.slugsKey(), encoded)
	}
	return slugs, nil
}

func (c *CachedStore) Read(ctx context.Context, slug string) (string, error) {
	key := c.docKey(slug)
	content, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	content, err = c.next.Read(ctx, slug)
	if err != nil {
		return "", err
	}
	c.set(ctx, key, content)
	return content, nil
}

func (c *CachedStore) set(ctx context.Context, key string, value any) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Invalidate deletes every key under the cache prefix and returns how many
// were removed.
func (c *CachedStore) Invalidate(ctx context.Context) (int, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan cache keys: %w", err)
	}

	for start := 0; start < len(keys); start += 100 {
		end := min(start+100, len(keys))
		if err := c.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return start, fmt.Errorf("delete cache keys: %w", err)
		}
	}
	return len(keys), nil
}
