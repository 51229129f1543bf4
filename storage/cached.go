package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vecdb/vecdb/record"
)

// Compile-time check to ensure CachedStore satisfies the Store interface.
var _ Store = (*CachedStore)(nil)

// CachedStore wraps a Store with a read-through LRU cache over GetVector.
//
// The cache is invalidated on StoreVector and DeleteVector; scan-based
// operations bypass it entirely. Cached records are shared between callers
// and must not be mutated.
type CachedStore struct {
	Store

	cache *lru.Cache[string, *record.Record]
}

// NewCachedStore creates a caching wrapper holding at most size records.
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, *record.Record](size)
	if err != nil {
		return nil, err
	}

	return &CachedStore{
		Store: inner,
		cache: cache,
	}, nil
}

// StoreVector upserts through to the inner store and invalidates the
// cached entry so the next read observes the new version.
func (s *CachedStore) StoreVector(ctx context.Context, rec *record.Record) error {
	if err := s.Store.StoreVector(ctx, rec); err != nil {
		return err
	}
	s.cache.Remove(rec.ID)
	return nil
}

// GetVector serves from the cache when possible and fills it on miss.
func (s *CachedStore) GetVector(ctx context.Context, id string) (*record.Record, bool, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, true, nil
	}

	rec, found, err := s.Store.GetVector(ctx, id)
	if err != nil || !found {
		return rec, found, err
	}

	s.cache.Add(id, rec)
	return rec, true, nil
}

// DeleteVector deletes through to the inner store and drops the cached
// entry.
func (s *CachedStore) DeleteVector(ctx context.Context, id string) (bool, error) {
	existed, err := s.Store.DeleteVector(ctx, id)
	s.cache.Remove(id)
	return existed, err
}
