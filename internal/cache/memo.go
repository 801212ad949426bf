package cache

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Memo fronts an LRUCache with a loader. Concurrent misses for the same key
// share one load.
type Memo[T any] struct {
	cache *LRUCache[T]
	group singleflight.Group
}

// NewMemo wraps an existing cache.
func NewMemo[T any](c *LRUCache[T]) *Memo[T] {
	return &Memo[T]{cache: c}
}

// Get returns the cached value for key, loading and storing it on a miss.
// Failed loads are not cached. hit reports whether the value came from the
// cache.
func (m *Memo[T]) Get(key string, load func() (T, error)) (value T, hit bool, err error) {
	if v, ok := m.cache.Get(key); ok {
		return v, true, nil
	}

	res, err, _ := m.group.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		m.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("load %q: %w", key, err)
	}
	return res.(T), false, nil
}

// Cache exposes the underlying cache, for stats and registration.
func (m *Memo[T]) Cache() *LRUCache[T] {
	return m.cache
}
