package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/songmatch/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

// NewWithClient wraps an existing client, e.g. one pointed at miniredis.
func NewWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForFeed generates the Redis key of a viewer's feed for one window.
// A new window means a new key, so stale feeds simply age out.
func (c *RedisCache) KeyForFeed(viewerID string, windowStart time.Time) string {
	return fmt.Sprintf("feed:%s:%d", viewerID, windowStart.Unix())
}

// GetJSON decodes the value at key into dst. ok is false on a cache miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil // cache miss
	} else if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value as JSON under key with the given TTL.
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Client.Set(ctx, key, raw, ttl).Err()
}

// InvalidateFeeds drops every cached feed of the viewer, whatever window it
// was built for.
func (c *RedisCache) InvalidateFeeds(ctx context.Context, viewerID string) error {
	pattern := fmt.Sprintf("feed:%s:*", viewerID)
	iter := c.Client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}
