package cache

import (
	"container/list"
	"errors"
	"sync"
)

// ErrCapacity is returned by constructors given a capacity below one.
var ErrCapacity = errors.New("cache: capacity must be at least 1")

// LRU is a fixed-capacity key/value store with least-recently-used
// eviction. Get and Set both promote the touched key to most recently
// used; inserting a new key at capacity first evicts the key that has
// gone longest without access. Updating an existing key replaces its
// value and promotes it without counting as an insertion.
//
// Safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu    sync.RWMutex
	cap   int
	ll    *list.List // Front = most recently used
	items map[K]*list.Element
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// New returns an LRU holding at most capacity entries.
func New[K comparable, V any](capacity int) (*LRU[K, V], error) {
	if capacity < 1 {
		return nil, ErrCapacity
	}
	return &LRU[K, V]{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[K]*list.Element, capacity),
	}, nil
}

// Set inserts or updates key and promotes it. Returns true if an entry
// was evicted to make room.
func (c *LRU[K, V]) Set(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry[K, V]).value = value
		c.ll.MoveToFront(el)
		return false
	}

	c.items[key] = c.ll.PushFront(&lruEntry[K, V]{key: key, value: value})
	if c.ll.Len() <= c.cap {
		return false
	}
	last := c.ll.Back()
	c.ll.Remove(last)
	delete(c.items, last.Value.(*lruEntry[K, V]).key)
	return true
}

// Get returns the value stored under key and promotes it to most
// recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruEntry[K, V]).value, true
}

// Peek returns the value stored under key without updating recency.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*lruEntry[K, V]).value, true
}

// Contains reports whether key is present without updating recency.
func (c *LRU[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[key]
	return ok
}

// Remove deletes key if present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.ll.Remove(el)
	delete(c.items, key)
	return true
}

// Clear removes every entry. The configured capacity is unchanged.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[K]*list.Element, c.cap)
}

// Len returns the current entry count.
func (c *LRU[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ll.Len()
}

// Cap returns the configured capacity.
func (c *LRU[K, V]) Cap() int {
	return c.cap
}

// Keys returns the cached keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]K, 0, c.ll.Len())
	for el := c.ll.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*lruEntry[K, V]).key)
	}
	return out
}
