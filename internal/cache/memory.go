package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
	storedAt  time.Time
}

// Memory is a bounded, mutex-guarded TTL map shared by concurrent
// requests. A value is only returned while now < expiresAt; expired
// entries are dropped on read, and Set sweeps expired entries before
// evicting the oldest live one when full.
type Memory[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]entry[V]
	now     func() time.Time
}

func NewMemory[V any](ttl time.Duration, max int) *Memory[V] {
	if max <= 0 {
		max = 1024
	}
	return &Memory[V]{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero V
	e, ok := m.entries[key]
	if !ok {
		return zero, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under the cache's default TTL.
func (m *Memory[V]) Set(key string, value V) {
	m.SetTTL(key, value, m.ttl)
}

// SetTTL stores value with an explicit TTL.
func (m *Memory[V]) SetTTL(key string, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.max {
		m.evictLocked(now)
	}
	m.entries[key] = entry[V]{value: value, expiresAt: now.Add(ttl), storedAt: now}
}

func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictLocked drops expired entries first, then the oldest live entry if
// the map is still at capacity.
func (m *Memory[V]) evictLocked(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	if len(m.entries) < m.max {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey = k
			oldest = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
