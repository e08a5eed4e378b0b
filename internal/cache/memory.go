// internal/cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process cache with per-key TTLs. It is the default when no
// Redis address is configured.
type Memory struct {
	mu     sync.RWMutex
	items  map[string]memoryItem
	closed bool
	stopCh chan struct{}
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemory creates an in-memory cache. Expired entries are swept every
// cleanupInterval; pass 0 to disable sweeping (expired entries are still
// invisible to Get, they just linger until overwritten).
func NewMemory(cleanupInterval time.Duration) *Memory {
	m := &Memory{
		items:  make(map[string]memoryItem),
		stopCh: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.sweep(cleanupInterval)
	}
	return m
}

// Get retrieves a value by key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	it, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		return nil, ErrNotFound
	}

	// Copy so callers can't mutate the stored value.
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set stores a value with the given TTL.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	it := memoryItem{value: stored}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	m.items[key] = it
	return nil
}

// Delete removes a key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

// Close stops the sweeper and drops all entries.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.stopCh)
	m.items = nil
	return nil
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			if m.closed {
				m.mu.Unlock()
				return
			}
			for key, it := range m.items {
				if !it.expiresAt.IsZero() && now.After(it.expiresAt) {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
