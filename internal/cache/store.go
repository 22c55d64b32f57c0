package cache

import (
	"context"
	"sync"

	"github.com/JustJay7/court-case-engine/internal/database"
	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
)

// CachedStore puts a Cache in front of the latest-record reads of a
// database.Store. Writes commit to the database and then invalidate the
// cached entry; only reads fill the cache.
type CachedStore struct {
	*database.Store
	cache  Cache
	logger *logger.Logger

	// mu orders cache fills against invalidations. generation counts writes;
	// a fill is dropped when a write landed after its database read began.
	mu         sync.Mutex
	generation uint64
}

func NewCachedStore(store *database.Store, cache Cache, log *logger.Logger) *CachedStore {
	return &CachedStore{
		Store:  store,
		cache:  cache,
		logger: log.With("component", "cached_store"),
	}
}

func (s *CachedStore) Put(ctx context.Context, key model.QueryKey, record *model.CaseRecord) error {
	if err := s.Store.Put(ctx, key, record); err != nil {
		return err
	}
	s.invalidate(ctx, GenerateCacheKey(key))
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, cacheKey string) {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
	s.cache.Delete(ctx, cacheKey)
}

// GetLatest reads through the cache.
func (s *CachedStore) GetLatest(ctx context.Context, key model.QueryKey) (*model.CaseRecord, error) {
	record, _, err := s.Lookup(ctx, key)
	return record, err
}

// Lookup is GetLatest that also reports whether the cache answered.
func (s *CachedStore) Lookup(ctx context.Context, key model.QueryKey) (*model.CaseRecord, bool, error) {
	cacheKey := GenerateCacheKey(key)
	if record, found := s.cache.Get(ctx, cacheKey); found {
		s.logger.Debug("Cache hit", "key", cacheKey)
		return record, true, nil
	}

	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	record, err := s.Store.GetLatest(ctx, key)
	if err != nil {
		return nil, false, err
	}
	s.fill(ctx, key, generation, record)
	return record, false, nil
}

func (s *CachedStore) fill(ctx context.Context, key model.QueryKey, generation uint64, record *model.CaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		s.logger.Debug("Skipping cache fill after concurrent write", "case", key.String())
		return
	}
	if err := s.cache.Set(ctx, GenerateCacheKey(key), record); err != nil {
		s.logger.Warn("Failed to cache record", "case", key.String(), "error", err)
	}
}

// Purge clears the database history and the cache.
func (s *CachedStore) Purge(ctx context.Context) (database.PurgeResult, error) {
	result, err := s.Store.Purge(ctx)
	if err != nil {
		return result, err
	}
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
	s.cache.Clear(ctx)
	return result, nil
}

func (s *CachedStore) Stats() CacheStats {
	return s.cache.Stats()
}
