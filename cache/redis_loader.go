package cache

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

func (b *RedisBackend[K, V]) keyPattern(prefix string) string {
	if b.Options.KeyPrefix == "" {
		return prefix + "*"
	}
	return b.Options.KeyPrefix + ":" + prefix + "*"
}

func (b *RedisBackend[K, V]) trimKey(key string) string {
	if b.Options.KeyPrefix == "" {
		return key
	}
	return strings.TrimPrefix(key, b.Options.KeyPrefix+":")
}

func (b *RedisBackend[K, V]) fetchValues(ctx context.Context, keys []string, resultsChan chan<- map[string]V, wg *sync.WaitGroup) {
	defer wg.Done()
	keyValues := make(map[string]V)
	for _, key := range keys {
		value, err := b.Client.Get(ctx, key).Bytes()
		if err != nil {
			log.Printf("go-memo: error fetching value for key %s: %v", key, err)
			continue
		}

		var unmarshalledValue V
		if err := msgpack.Unmarshal(value, &unmarshalledValue); err != nil {
			log.Printf("go-memo: error unmarshalling value for key %s: %v", key, err)
			continue
		}
		keyValues[key] = unmarshalledValue
	}
	resultsChan <- keyValues
}

func (b *RedisBackend[K, V]) fetchEntriesWithPrefix(ctx context.Context, prefix string, batchSize int) (map[K]V, error) {
	var cursor uint64
	var err error
	resultsChan := make(chan map[string]V)
	var wg sync.WaitGroup

	keyPattern := b.keyPattern(prefix)

	for {
		var scanKeys []string
		scanKeys, cursor, err = b.Client.Scan(ctx, cursor, keyPattern, b.Options.ScanCount).Result()
		if err != nil {
			close(resultsChan)
			return nil, err
		}

		// Fetch the scanned keys in batches.
		for i := 0; i < len(scanKeys); i += batchSize {
			end := i + batchSize
			if end > len(scanKeys) {
				end = len(scanKeys)
			}
			wg.Add(1)
			go b.fetchValues(ctx, scanKeys[i:end], resultsChan, &wg)
		}

		if cursor == 0 {
			break
		}
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	entries := make(map[K]V)
	for keyMap := range resultsChan {
		for key, value := range keyMap {
			key = b.trimKey(key)
			unmarshalledKey, err := b.Options.Key.Unmarshal(key)
			if err != nil {
				log.Printf("go-memo: error unmarshalling key %v: %v", key, err)
				continue
			}

			entries[unmarshalledKey] = value
		}
	}

	return entries, nil
}

func (b *RedisBackend[K, V]) fetchKeysWithPrefix(ctx context.Context, prefix string) ([]K, error) {
	var cursor uint64
	var err error

	keyPattern := b.keyPattern(prefix)

	var stringKeys []string

	for {
		var scanKeys []string
		scanKeys, cursor, err = b.Client.Scan(ctx, cursor, keyPattern, b.Options.ScanCount).Result()
		if err != nil {
			return nil, err
		}

		stringKeys = append(stringKeys, scanKeys...)

		if cursor == 0 {
			break
		}
	}

	keys := []K{}

	for _, key := range stringKeys {
		key = b.trimKey(key)
		unmarshalledKey, err := b.Options.Key.Unmarshal(key)
		if err != nil {
			log.Printf("go-memo: error unmarshalling key %v: %v", key, err)
			continue
		}

		keys = append(keys, unmarshalledKey)
	}

	return keys, nil
}
