package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/patrickmn/go-cache"
)

// Cache holds the latest record per query key.
type Cache interface {
	Get(ctx context.Context, key string) (*model.CaseRecord, bool)
	Set(ctx context.Context, key string, value *model.CaseRecord) error
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
	Stats() CacheStats
}

type CacheStats struct {
	Backend    string    `json:"backend"`
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	LastAccess time.Time `json:"last_access"`
}

type LRUCache struct {
	cache   *cache.Cache
	mu      sync.RWMutex
	stats   CacheStats
	maxSize int
}

func NewCache(maxSize int, ttl time.Duration) Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache{
		cache:   cache.New(ttl, ttl*2),
		maxSize: maxSize,
		stats:   CacheStats{Backend: "memory"},
	}
}

func (c *LRUCache) Get(_ context.Context, key string) (*model.CaseRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	if data, found := c.cache.Get(key); found {
		if record, ok := data.(*model.CaseRecord); ok {
			c.stats.Hits++
			return record, true
		}
	}

	c.stats.Misses++
	return nil, false
}

func (c *LRUCache) Set(_ context.Context, key string, value *model.CaseRecord) error {
	if value == nil {
		return fmt.Errorf("cannot cache nil record for %s", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.cache.Get(key); !found && c.cache.ItemCount() >= c.maxSize {
		c.removeOldest()
	}

	c.cache.Set(key, value, cache.DefaultExpiration)
	return nil
}

func (c *LRUCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
}

func (c *LRUCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Flush()
	c.stats = CacheStats{Backend: c.stats.Backend}
}

func (c *LRUCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = c.cache.ItemCount()
	return stats
}

// removeOldest evicts the entry closest to expiry, which is the one written
// longest ago since every entry shares the same TTL.
func (c *LRUCache) removeOldest() {
	items := c.cache.Items()
	if len(items) == 0 {
		return
	}

	var oldestKey string
	var oldest int64

	for key, item := range items {
		if oldestKey == "" || item.Expiration < oldest {
			oldestKey = key
			oldest = item.Expiration
		}
	}

	c.cache.Delete(oldestKey)
}

func GenerateCacheKey(key model.QueryKey) string {
	return fmt.Sprintf("case:%s:%s:%s", key.CaseType, key.CaseNumber, key.FilingYear)
}

func SerializeCaseRecord(record *model.CaseRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DeserializeCaseRecord(data []byte) (*model.CaseRecord, error) {
	var record model.CaseRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
