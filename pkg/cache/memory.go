package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time // zero = never
}

// Memory is an in-process cache with TTL expiry and LRU eviction once
// maxEntries is reached.
type Memory[V any] struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front = most recently used
	defaultTTL time.Duration
	maxEntries int
	now        func() time.Time
	done       chan struct{}
	closed     bool
}

// NewMemory creates a Memory cache. cleanup > 0 starts a janitor that drops
// expired entries on that interval; maxEntries <= 0 means unbounded.
func NewMemory[V any](defaultTTL time.Duration, maxEntries int, cleanup time.Duration) *Memory[V] {
	if defaultTTL == 0 {
		defaultTTL = time.Hour
	}
	m := &Memory[V]{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	if cleanup > 0 {
		go m.janitor(cleanup)
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	el, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	e := el.Value.(*entry[V])
	if m.expired(e) {
		m.remove(el)
		return zero, ErrNotFound
	}
	m.order.MoveToFront(el)
	return e.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl == 0 {
		ttl = m.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}

	if el, ok := m.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value, e.expiresAt = value, expiresAt
		m.order.MoveToFront(el)
		return nil
	}

	if m.maxEntries > 0 && len(m.items) >= m.maxEntries {
		if oldest := m.order.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.items[key] = m.order.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included until swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the janitor. It is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *Memory[V]) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *Memory[V]) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if m.expired(el.Value.(*entry[V])) {
			m.remove(el)
		}
		el = prev
	}
}

func (m *Memory[V]) expired(e *entry[V]) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}

func (m *Memory[V]) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*entry[V]).key)
}

var _ Cache[any] = (*Memory[any])(nil)
