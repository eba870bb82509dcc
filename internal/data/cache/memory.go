package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local cache. Entries older than ttl are evicted on read;
// a zero ttl keeps entries until Delete.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: make(map[string][]byte), ttl: ttl, now: time.Now}
}

// WithClock swaps the time source. Used by tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Get(ctx context.Context, key string, dest any) (time.Duration, bool, error) {
	m.mu.RLock()
	raw, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return 0, false, nil
	}
	age, err := decode(raw, dest, m.now())
	if err != nil {
		return 0, false, err
	}
	if m.ttl > 0 && age > m.ttl {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return 0, false, nil
	}
	return age, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value any) error {
	raw, err := encode(value, m.now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
