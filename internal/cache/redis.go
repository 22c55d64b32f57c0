package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

const keyPattern = "case:*"

// RedisCache shares cached records between server instances.
type RedisCache struct {
	rdb    *goredis.Client
	ttl    time.Duration
	logger *logger.Logger

	mu    sync.Mutex
	stats CacheStats
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(addr string, db int, ttl time.Duration, log *logger.Logger) (*RedisCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisCache(rdb, ttl, log), nil
}

func newRedisCache(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	return &RedisCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: log.With("component", "redis_cache"),
		stats:  CacheStats{Backend: "redis"},
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*model.CaseRecord, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var record *model.CaseRecord
		if record, err = DeserializeCaseRecord(data); err == nil {
			c.record(true)
			return record, true
		}
	}
	if !errors.Is(err, goredis.Nil) {
		c.logger.Warn("Redis cache read failed", "key", key, "error", err)
	}
	c.record(false)
	return nil, false
}

func (c *RedisCache) Set(ctx context.Context, key string, value *model.CaseRecord) error {
	if value == nil {
		return fmt.Errorf("cannot cache nil record for %s", key)
	}
	data, err := SerializeCaseRecord(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Redis cache delete failed", "key", key, "error", err)
	}
}

// Clear removes every cached case record; other keys in the database are
// left alone.
func (c *RedisCache) Clear(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, keyPattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("Redis cache clear failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Redis cache scan failed", "error", err)
	}

	c.mu.Lock()
	c.stats = CacheStats{Backend: c.stats.Backend}
	c.mu.Unlock()
}

func (c *RedisCache) Stats() CacheStats {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c.mu.Lock()
	stats := c.stats
	c.mu.Unlock()

	if size, err := c.rdb.DBSize(ctx).Result(); err == nil {
		stats.Size = int(size)
	}
	return stats
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func (c *RedisCache) record(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
}
