package cache

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// RedisBackend stores msgpack-encoded values in redis and, when PubSub is
// enabled, fans mutation events out to every instance subscribed to the
// same channel.
type RedisBackend[K comparable, V any] struct {
	Options      *RedisBackendOptions[K]
	Client       *redis.Client
	callbacks    []func(Event[K, V])
	callbacksMu  sync.RWMutex
	cancelPubSub context.CancelFunc
	pubSubWg     sync.WaitGroup
}

type RedisBackendOptions[K comparable] struct {
	Redis     *redis.Options
	TTL       time.Duration
	Key       Key[K]
	KeyPrefix string
	PubSub    bool
	Channel   string
	ScanCount int64
}

func NewRedisBackend[K comparable, V any](options *RedisBackendOptions[K]) (*RedisBackend[K, V], error) {
	if options == nil || options.Key == nil {
		return nil, errors.New("cache: redis backend requires a key marshaller")
	}
	if options.PubSub && options.Channel == "" {
		return nil, errors.New("cache: Channel is required when PubSub is enabled")
	}

	client := redis.NewClient(options.Redis)

	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, err
	}

	if err := redisotel.InstrumentMetrics(client); err != nil {
		client.Close()
		return nil, err
	}

	b := &RedisBackend[K, V]{
		Options: options,
		Client:  client,
	}

	if b.Options.PubSub {
		ctx, cancel := context.WithCancel(context.Background())
		b.cancelPubSub = cancel

		b.pubSubWg.Add(1)
		go b.subscribeLoop(ctx)
	}

	return b, nil
}

func (b *RedisBackend[K, V]) stringKey(key K) string {
	if b.Options.KeyPrefix == "" {
		return b.Options.Key.Marshal(key)
	}
	return b.Options.KeyPrefix + ":" + b.Options.Key.Marshal(key)
}

// Get returns the value stored under key, or ErrNotFound on a miss.
func (b *RedisBackend[K, V]) Get(ctx context.Context, key K) (*V, error) {
	data, err := b.Client.Get(ctx, b.stringKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var value V
	if err := msgpack.Unmarshal(data, &value); err != nil {
		return nil, err
	}

	return &value, nil
}

// TTL returns the remaining time to live of key.
func (b *RedisBackend[K, V]) TTL(ctx context.Context, key K) (time.Duration, error) {
	return b.Client.TTL(ctx, b.stringKey(key)).Result()
}

func (b *RedisBackend[K, V]) Set(ctx context.Context, key K, value V) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}

	if err := b.Client.Set(ctx, b.stringKey(key), data, b.Options.TTL).Err(); err != nil {
		return err
	}

	if b.Options.PubSub {
		return b.publishEvent(ctx, &Event[K, V]{
			Entry: &Entry[K, V]{
				Key:   key,
				Value: &value,
			},
			Type: EventSet,
		})
	}

	return nil
}

func (b *RedisBackend[K, V]) Remove(ctx context.Context, key K) error {
	if err := b.Client.Del(ctx, b.stringKey(key)).Err(); err != nil {
		return err
	}

	if b.Options.PubSub {
		return b.publishEvent(ctx, &Event[K, V]{
			Entry: &Entry[K, V]{
				Key: key,
			},
			Type: EventRemove,
		})
	}

	return nil
}

// RemovePrefix deletes every key whose marshalled form starts with
// keyPrefix, in batches of 1000.
func (b *RedisBackend[K, V]) RemovePrefix(ctx context.Context, keyPrefix string) error {
	keys, err := b.fetchKeysWithPrefix(ctx, keyPrefix)
	if err != nil {
		return err
	}

	var errs []error
	for i := 0; i < len(keys); i += 1000 {
		end := i + 1000
		if end > len(keys) {
			end = len(keys)
		}

		batchKeys := make([]string, end-i)
		for j, key := range keys[i:end] {
			batchKeys[j] = b.stringKey(key)
		}

		if err := b.Client.Del(ctx, batchKeys...).Err(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	if b.Options.PubSub {
		return b.publishEvent(ctx, &Event[K, V]{
			Type:      EventRemovePrefix,
			KeyPrefix: keyPrefix,
		})
	}

	return nil
}

func (b *RedisBackend[K, V]) Contains(ctx context.Context, key K) (bool, error) {
	return b.Client.Exists(ctx, b.stringKey(key)).Val() == 1, nil
}

func (b *RedisBackend[K, V]) Load(ctx context.Context) ([]Entry[K, V], error) {
	data, err := b.fetchEntriesWithPrefix(ctx, "", 100)
	if err != nil {
		return nil, err
	}

	var entries []Entry[K, V]
	for key, value := range data {
		entries = append(entries, Entry[K, V]{
			Key:   key,
			Value: &value,
		})
	}

	return entries, nil
}

func (b *RedisBackend[K, V]) AddCallback(callback func(Event[K, V])) {
	b.callbacksMu.Lock()
	defer b.callbacksMu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

func (b *RedisBackend[K, V]) publishEvent(ctx context.Context, event *Event[K, V]) error {
	data, err := msgpack.Marshal(event)
	if err != nil {
		return err
	}

	return b.Client.Publish(ctx, b.Options.Channel, data).Err()
}

func (b *RedisBackend[K, V]) subscribeLoop(ctx context.Context) {
	defer b.pubSubWg.Done()
	backoff := 100 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		pubsub := b.Client.Subscribe(ctx, b.Options.Channel)
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					pubsub.Close()
					return
				}
				log.Printf("go-memo: pubsub error, reconnecting: %s", err)
				break
			}

			backoff = 100 * time.Millisecond

			var event Event[K, V]
			if err := msgpack.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("go-memo: error unmarshalling cache event message: %s", err)
				continue
			}

			b.callbacksMu.RLock()
			for _, callback := range b.callbacks {
				callback(event)
			}
			b.callbacksMu.RUnlock()
		}
		pubsub.Close()

		select {
		case <-time.After(backoff):
			if backoff < maxBackoff {
				backoff *= 2
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *RedisBackend[K, V]) Close() error {
	if b.cancelPubSub != nil {
		b.cancelPubSub()
	}
	// Close the client to unblock any TCP reads in the PubSub goroutine,
	// then wait for the goroutine to finish.
	err := b.Client.Close()
	b.pubSubWg.Wait()
	return err
}
