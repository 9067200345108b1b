package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func newRedisCache(t *testing.T) (*Redis[item], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis[item](client, "test", time.Minute), mr
}

func TestBackends(t *testing.T) {
	t.Parallel()

	backends := map[string]func(t *testing.T) Cache[item]{
		"memory": func(t *testing.T) Cache[item] {
			m := NewMemory[item](time.Minute, 0, 0)
			t.Cleanup(func() { _ = m.Close() })
			return m
		},
		"redis": func(t *testing.T) Cache[item] {
			c, _ := newRedisCache(t)
			return c
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := build(t)
			ctx := context.Background()

			_, err := c.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, c.Set(ctx, "a", item{Name: "a", N: 1}, 0))
			got, err := c.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, item{Name: "a", N: 1}, got)

			require.NoError(t, c.Set(ctx, "a", item{Name: "a", N: 2}, 0))
			got, err = c.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, 2, got.N)

			require.NoError(t, c.Delete(ctx, "a"))
			_, err = c.Get(ctx, "a")
			require.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, c.Delete(ctx, "a"))
		})
	}
}

func TestMemoryExpiry(t *testing.T) {
	t.Parallel()

	m := NewMemory[string](time.Minute, 0, 0)
	defer m.Close()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", "x", time.Second))
	require.NoError(t, m.Set(ctx, "forever", "y", -1))

	now = now.Add(2 * time.Hour)
	_, err := m.Get(ctx, "short")
	require.ErrorIs(t, err, ErrNotFound)
	v, err := m.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "y", v)
}

func TestMemorySweep(t *testing.T) {
	t.Parallel()

	m := NewMemory[int](time.Minute, 0, 0)
	defer m.Close()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", 1, time.Second))
	require.NoError(t, m.Set(ctx, "b", 2, time.Hour))
	now = now.Add(time.Minute)
	m.sweep()
	assert.Equal(t, 1, m.Len())
}

func TestMemoryLRU(t *testing.T) {
	t.Parallel()

	m := NewMemory[int](time.Minute, 2, 0)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", 1, 0))
	require.NoError(t, m.Set(ctx, "b", 2, 0))
	_, err := m.Get(ctx, "a") // b becomes least recently used
	require.NoError(t, err)
	require.NoError(t, m.Set(ctx, "c", 3, 0))

	_, err = m.Get(ctx, "b")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestMemoryClosed(t *testing.T) {
	t.Parallel()

	m := NewMemory[int](time.Minute, 0, time.Millisecond)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	require.ErrorIs(t, m.Set(context.Background(), "a", 1, 0), ErrClosed)
	require.ErrorIs(t, m.Delete(context.Background(), "a"), ErrClosed)
}

func TestRedisTTLAndPrefix(t *testing.T) {
	t.Parallel()

	c, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", item{Name: "k"}, 10*time.Second))
	assert.True(t, mr.Exists("test:k"))
	assert.Equal(t, 10*time.Second, mr.TTL("test:k"))

	mr.FastForward(11 * time.Second)
	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "p", item{Name: "p"}, -1))
	assert.Zero(t, mr.TTL("test:p"))
}

func TestRedisUnmarshalError(t *testing.T) {
	t.Parallel()

	c, mr := newRedisCache(t)
	require.NoError(t, mr.Set("test:bad", "{not json"))
	_, err := c.Get(context.Background(), "bad")
	require.ErrorIs(t, err, ErrUnmarshal)
}

func TestLoader(t *testing.T) {
	t.Parallel()

	m := NewMemory[int](time.Minute, 0, 0)
	defer m.Close()
	l := NewLoader[int](m, time.Minute)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get(ctx, "k", fn)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}

	v, err := l.Get(ctx, "k", func(context.Context) (int, error) { return 0, errors.New("not called") })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	require.NoError(t, l.Forget(ctx, "k"))
	_, err = l.Get(ctx, "k", func(context.Context) (int, error) { return 0, errors.New("boom") })
	require.EqualError(t, err, "boom")
	_, err = m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}
