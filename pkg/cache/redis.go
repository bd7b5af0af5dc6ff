package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by a Redis server. It is shared by all
// replicas of the API server so centrality is computed once per matrix.
type RedisCache struct {
	client *redis.Client
	retry  time.Duration
}

// NewRedisCache connects to the Redis server at url
// (redis://[:password@]host:port/db) and pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := &RedisCache{client: redis.NewClient(opts), retry: 200 * time.Millisecond}
	if err := c.do(ctx, func() error { return c.client.Ping(ctx).Err() }); err != nil {
		c.client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.do(ctx, func() error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.do(ctx, func() error { return c.client.Set(ctx, key, data, ttl).Err() })
}

// Delete implements Cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func() error { return c.client.Del(ctx, key).Err() })
}

// Clear deletes every reefrank entry under prefix (the ScopedKeyer prefix,
// or "" for unscoped keys) and returns how many were removed. Other keys in
// the database are left alone.
func (c *RedisCache) Clear(ctx context.Context, prefix string) (int, error) {
	var n int
	for _, pattern := range []string{prefix + "centrality:*", prefix + "run:*"} {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return n, err
		}
		if len(batch) == 0 {
			continue
		}
		deleted, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return n, err
		}
		n += int(deleted)
	}
	return n, nil
}

// Close implements Cache.
func (c *RedisCache) Close() error { return c.client.Close() }

// do runs fn, retrying transient network failures.
func (c *RedisCache) do(ctx context.Context, fn func() error) error {
	return retryWithBackoff(ctx, redisAttempts, c.retry, func() error {
		err := fn()
		if isTransient(err) {
			return Retryable(err)
		}
		return err
	})
}

func isTransient(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne)
}

var _ Cache = (*RedisCache)(nil)
