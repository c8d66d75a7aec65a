// Package cache is a thin TTL cache over redis. Every entry is a derived,
// regenerable view: consumers treat a miss as "recompute from the store",
// never as an error.
package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/redis/go-redis/v9"
)

// Cache wraps a redis client with JSON helpers and hit/miss accounting
type Cache struct {
	rdb    *redis.Client
	hits   atomic.Int64
	misses atomic.Int64
}

// New connects to redis and verifies the connection
func New(ctx context.Context, addr, password string, db int) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errs.Transient("cache.ping", err)
	}
	return &Cache{rdb: rdb}, nil
}

// Close releases the client
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// GetJSON loads key into dest. found is false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.misses.Add(1)
		return false, nil
	}
	if err != nil {
		return false, errs.Transient("cache.get", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry is as good as a miss; the caller recomputes.
		c.misses.Add(1)
		return false, nil
	}
	c.hits.Add(1)
	return true, nil
}

// SetJSON stores value under key with the given TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return errs.Transient("cache.set", err)
	}
	return nil
}

// Delete removes a key; deleting an absent key is not an error
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return errs.Transient("cache.delete", err)
	}
	return nil
}

// Age returns how long ago the key was written, derived from its remaining
// TTL against the original one. ok is false when the key is gone or has no TTL.
func (c *Cache) Age(ctx context.Context, key string, originalTTL time.Duration) (time.Duration, bool, error) {
	remaining, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, errs.Transient("cache.ttl", err)
	}
	if remaining < 0 {
		return 0, false, nil
	}
	return originalTTL - remaining, true, nil
}

// DeleteByPattern removes all keys matching a glob pattern, scanning in
// pages to avoid blocking redis. Used by the housekeeping job.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return deleted, errs.Transient("cache.scan", err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, errs.Transient("cache.delete", err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// HitRate reports the hit share of all lookups since process start.
// Returns 1.0 before any lookup happened.
func (c *Cache) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 1.0
	}
	return float64(hits) / float64(total)
}
