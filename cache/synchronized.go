package cache

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Synchronized is a two-tier cache: a local expirable LRU in front of a
// shared storage backend. Writes go through to the backend, and the
// backend's mutation events keep the local tiers of peer instances
// coherent.
type Synchronized[K comparable, V any] struct {
	options *SynchronizedOptions[K, V]
	local   *Local[K, V]
	backend StorageBackend[K, V]
	tracer  trace.Tracer
}

// Options passed to NewSynchronized.
//
// LocalTTL: time to live for entries in the local tier. Set to 0 to
// disable expiration.
// LocalSize: maximum number of entries in the local tier. Set to 0 for
// unlimited size.
// Key: marshaller for the key type. Required.
// Backend: shared storage backend. Required.
// Preload: copy the backend's current contents into the local tier at
// construction.
type SynchronizedOptions[K comparable, V any] struct {
	LocalTTL  time.Duration
	LocalSize int
	Key       Key[K]
	Backend   StorageBackend[K, V]
	Preload   bool
}

func NewSynchronized[K comparable, V any](options *SynchronizedOptions[K, V]) (*Synchronized[K, V], error) {
	if options == nil || options.Backend == nil {
		return nil, errors.New("cache: synchronized cache requires a storage backend")
	}

	local, err := NewLocal[K, V](&LocalOptions[K]{
		TTL:  options.LocalTTL,
		Size: options.LocalSize,
		Key:  options.Key,
	})
	if err != nil {
		return nil, err
	}

	c := &Synchronized[K, V]{
		options: options,
		local:   local,
		backend: options.Backend,
		tracer:  otel.Tracer("github.com/omni-keywords/go-memo/cache"),
	}

	c.backend.AddCallback(c.apply)

	if options.Preload {
		entries, err := c.backend.Load(context.Background())
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.Value != nil {
				c.local.Set(entry.Key, *entry.Value)
			}
		}
	}

	return c, nil
}

// apply folds a backend event into the local tier.
func (c *Synchronized[K, V]) apply(event Event[K, V]) {
	switch event.Type {
	case EventSet:
		if event.Entry != nil && event.Entry.Value != nil {
			c.local.Set(event.Entry.Key, *event.Entry.Value)
		}
	case EventRemove:
		if event.Entry != nil {
			c.local.Remove(event.Entry.Key)
		}
	case EventRemovePrefix:
		c.local.removePrefix(event.KeyPrefix)
	}
}

// Get serves from the local tier when possible and falls back to the
// backend, populating the local tier on a backend hit. A miss in both
// tiers returns false with a nil error.
func (c *Synchronized[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	ctx, span := c.tracer.Start(ctx, "cache.Synchronized.Get")
	defer span.End()

	if value, ok := c.local.Get(key); ok {
		return value, true, nil
	}

	value, err := c.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		var zero V
		return zero, false, nil
	}
	if err != nil {
		span.RecordError(err)
		var zero V
		return zero, false, err
	}

	c.local.Set(key, *value)
	return *value, true, nil
}

// Set writes through to the backend and updates the local tier.
func (c *Synchronized[K, V]) Set(ctx context.Context, key K, value V) error {
	ctx, span := c.tracer.Start(ctx, "cache.Synchronized.Set")
	defer span.End()

	if err := c.backend.Set(ctx, key, value); err != nil {
		span.RecordError(err)
		return err
	}

	c.local.Set(key, value)
	return nil
}

// Remove deletes key from the backend and the local tier.
func (c *Synchronized[K, V]) Remove(ctx context.Context, key K) error {
	ctx, span := c.tracer.Start(ctx, "cache.Synchronized.Remove")
	defer span.End()

	if err := c.backend.Remove(ctx, key); err != nil {
		span.RecordError(err)
		return err
	}

	c.local.Remove(key)
	return nil
}

// RemovePrefix deletes every key whose marshalled form starts with
// keyPrefix from the backend and the local tier.
func (c *Synchronized[K, V]) RemovePrefix(ctx context.Context, keyPrefix string) error {
	ctx, span := c.tracer.Start(ctx, "cache.Synchronized.RemovePrefix")
	defer span.End()

	if err := c.backend.RemovePrefix(ctx, keyPrefix); err != nil {
		span.RecordError(err)
		return err
	}

	c.local.removePrefix(keyPrefix)
	return nil
}

// Contains reports whether key is present in either tier.
func (c *Synchronized[K, V]) Contains(ctx context.Context, key K) (bool, error) {
	if c.local.Contains(key) {
		return true, nil
	}
	return c.backend.Contains(ctx, key)
}

// Close tears down the backend subscription.
func (c *Synchronized[K, V]) Close() error {
	return c.backend.Close()
}
