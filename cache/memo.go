package cache

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"
)

// Memo caches the results of an expensive computation in a bounded LRU.
// Concurrent misses for the same key run the computation once and share
// its result. Errors are returned to every waiter and are not cached.
type Memo[K comparable, V any] struct {
	lru     *LRU[K, V]
	key     Key[K]
	group   singleflight.Group
	compute func(context.Context, K) (V, error)
}

// NewMemo returns a Memo holding at most capacity computed values. The
// key marshaller deduplicates in-flight computations, so two keys must
// never marshal to the same string.
func NewMemo[K comparable, V any](capacity int, key Key[K], compute func(context.Context, K) (V, error)) (*Memo[K, V], error) {
	if key == nil {
		return nil, errors.New("cache: memo requires a key marshaller")
	}
	if compute == nil {
		return nil, errors.New("cache: memo requires a compute function")
	}
	lru, err := New[K, V](capacity)
	if err != nil {
		return nil, err
	}
	return &Memo[K, V]{
		lru:     lru,
		key:     key,
		compute: compute,
	}, nil
}

// Get returns the cached value for key, computing and storing it on a
// miss.
func (m *Memo[K, V]) Get(ctx context.Context, key K) (V, error) {
	if value, ok := m.lru.Get(key); ok {
		return value, nil
	}

	value, err, _ := m.group.Do(m.key.Marshal(key), func() (any, error) {
		// Double-check after the singleflight barrier.
		if value, ok := m.lru.Get(key); ok {
			return value, nil
		}
		value, err := m.compute(ctx, key)
		if err != nil {
			return nil, err
		}
		m.lru.Set(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return value.(V), nil
}

// Forget drops the cached value for key, forcing the next Get to
// recompute.
func (m *Memo[K, V]) Forget(key K) bool {
	return m.lru.Remove(key)
}

// Purge drops every cached value.
func (m *Memo[K, V]) Purge() {
	m.lru.Clear()
}

// Len returns the number of cached values.
func (m *Memo[K, V]) Len() int {
	return m.lru.Len()
}
