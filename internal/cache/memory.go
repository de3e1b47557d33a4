package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	storedAt  time.Time
	expiresAt time.Time
}

// Memory is a concurrency-safe in-process cache with TTL and size retention.
type Memory struct {
	mu sync.RWMutex

	items map[string]entry

	ttl        time.Duration
	maxEntries int // 0 = unlimited
	now        clock
}

// NewMemory creates a Memory cache. If maxEntries is <= 0, it is treated as unlimited.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	return &Memory{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.items[key]
	if !ok || m.now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores value and enforces retention.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = entry{data: value, storedAt: now, expiresAt: now.Add(m.ttl)}

	// Enforce retention by age.
	for k, e := range m.items {
		if now.After(e.expiresAt) {
			delete(m.items, k)
		}
	}

	// Enforce retention by count, oldest first.
	for m.maxEntries > 0 && len(m.items) > m.maxEntries {
		var (
			oldestKey string
			oldest    time.Time
		)
		for k, e := range m.items {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
			}
		}
		delete(m.items, oldestKey)
	}
	return nil
}

// Len reports the number of retained entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
