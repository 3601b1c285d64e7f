package cache

import (
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Local is an in-process cache with optional per-entry TTL, backed by an
// expirable LRU. Keys are marshalled to strings so a Local can mirror
// the contents of a string-keyed storage backend.
type Local[K comparable, V any] struct {
	options *LocalOptions[K]
	lru     *expirable.LRU[string, *Entry[K, V]]
}

// Options passed to NewLocal.
//
// TTL: time to live for each entry. Set to 0 to disable expiration.
// Size: maximum number of entries. Set to 0 for unlimited size.
// Key: marshaller for the key type. Required.
type LocalOptions[K comparable] struct {
	TTL  time.Duration
	Size int
	Key  Key[K]
}

func NewLocal[K comparable, V any](options *LocalOptions[K]) (*Local[K, V], error) {
	if options == nil || options.Key == nil {
		return nil, errors.New("cache: local cache requires a key marshaller")
	}
	return &Local[K, V]{
		options: options,
		lru:     expirable.NewLRU[string, *Entry[K, V]](options.Size, nil, options.TTL),
	}, nil
}

func (c *Local[K, V]) Get(key K) (V, bool) {
	entry, ok := c.lru.Get(c.options.Key.Marshal(key))
	if !ok || entry == nil || entry.Value == nil {
		var zero V
		return zero, false
	}
	return *entry.Value, true
}

func (c *Local[K, V]) Set(key K, value V) bool {
	return c.lru.Add(c.options.Key.Marshal(key), &Entry[K, V]{
		Key:   key,
		Value: &value,
	})
}

func (c *Local[K, V]) Remove(key K) bool {
	return c.lru.Remove(c.options.Key.Marshal(key))
}

func (c *Local[K, V]) Contains(key K) bool {
	return c.lru.Contains(c.options.Key.Marshal(key))
}

func (c *Local[K, V]) Len() int {
	return c.lru.Len()
}

// Entries returns a snapshot of the cached entries, oldest first.
func (c *Local[K, V]) Entries() []Entry[K, V] {
	values := c.lru.Values()
	out := make([]Entry[K, V], 0, len(values))
	for _, entry := range values {
		if entry != nil {
			out = append(out, *entry)
		}
	}
	return out
}

// removePrefix drops every entry whose marshalled key starts with prefix.
func (c *Local[K, V]) removePrefix(prefix string) {
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}
