package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// Key marshals cache keys to and from the string form used by external
// storage backends.
type Key[K comparable] interface {
	Marshal(K) string
	Unmarshal(string) (K, error)
}

type StringKey struct {
}

func (k *StringKey) Marshal(key string) string {
	return key
}

func (k *StringKey) Unmarshal(data string) (string, error) {
	return data, nil
}

type IntKey struct {
}

func (k *IntKey) Marshal(key int) string {
	return strconv.Itoa(key)
}

func (k *IntKey) Unmarshal(data string) (int, error) {
	return strconv.Atoi(data)
}

// Query identifies a keyword lookup: the search term and the locale it
// was requested for.
type Query struct {
	Locale string
	Term   string
}

// QueryKey marshals Query keys as "locale/term". The locale must not
// contain a slash; the term may.
type QueryKey struct {
}

func (k *QueryKey) Marshal(key Query) string {
	return key.Locale + "/" + key.Term
}

func (k *QueryKey) Unmarshal(data string) (Query, error) {
	locale, term, ok := strings.Cut(data, "/")
	if !ok {
		return Query{}, errors.New("cache: malformed query key: " + data)
	}
	return Query{Locale: locale, Term: term}, nil
}

// StorageBackend is a shared, out-of-process store that a Synchronized
// cache writes through to. Implementations publish mutation events to
// registered callbacks so peer instances can keep their local tiers
// coherent.
type StorageBackend[K comparable, V any] interface {
	Get(context.Context, K) (*V, error)
	Set(context.Context, K, V) error
	Remove(context.Context, K) error
	RemovePrefix(context.Context, string) error
	Contains(context.Context, K) (bool, error)
	Load(context.Context) ([]Entry[K, V], error)
	AddCallback(func(Event[K, V]))
	Close() error
}
