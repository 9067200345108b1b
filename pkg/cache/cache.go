package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Config selects and tunes the cache backend. Redis is used when the
// redis client is configured; otherwise entries live in process memory.
type Config struct {
	TTL        time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	MaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"1000"`
	Prefix     string        `env:"CACHE_PREFIX" envDefault:"atelier"`
}

// Cache is a key-value cache with per-entry TTL.
//
// A zero TTL in Set means the backend default; a negative TTL never expires.
type Cache[V any] interface {
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Loader fills a cache on miss, computing each missing key at most once
// across concurrent callers.
type Loader[V any] struct {
	cache Cache[V]
	ttl   time.Duration
	group singleflight.Group
}

// NewLoader wraps c. Loaded values are stored with ttl.
func NewLoader[V any](c Cache[V], ttl time.Duration) *Loader[V] {
	return &Loader[V]{cache: c, ttl: ttl}
}

// Get returns the cached value for key or computes it with fn.
// Errors from fn are returned and nothing is cached. A failure to store the
// computed value is ignored; the value is still returned.
func (l *Loader[V]) Get(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (V, error) {
	if v, err := l.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(ctx, key, val, l.ttl)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Forget removes key from the underlying cache.
func (l *Loader[V]) Forget(ctx context.Context, key string) error {
	l.group.Forget(key)
	return l.cache.Delete(ctx, key)
}

func marshal[V any](v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func unmarshal[V any](data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}
