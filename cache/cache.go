// Package cache provides the caching primitives used by the keyword
// research services: a bounded recency (LRU) cache, a memoizer for
// expensive lookups, a TTL-bounded local cache, and a two-tier cache that
// keeps local tiers coherent across instances through a shared storage
// backend.
package cache

import (
	"errors"
)

// ErrNotFound is returned by storage backends when a key is absent.
// A miss is a normal control-flow outcome, not a failure.
var ErrNotFound = errors.New("cache: key not found")

// Entry is a single cached key/value pair.
type Entry[K comparable, V any] struct {
	Key   K
	Value *V
}

type EventType int

const (
	EventSet EventType = iota
	EventRemove
	EventRemovePrefix
)

// Event describes a mutation observed on a storage backend. For
// EventRemovePrefix the Entry is nil and KeyPrefix carries the removed
// marshalled-key prefix.
type Event[K comparable, V any] struct {
	Entry     *Entry[K, V]
	Type      EventType
	KeyPrefix string
}

// Cache is the method set shared by the in-process caches.
type Cache[K comparable, V any] interface {
	Get(K) (V, bool)
	Set(K, V) bool
	Remove(K) bool
	Contains(K) bool
	Len() int
}
