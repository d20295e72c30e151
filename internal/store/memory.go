package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	updatedAt time.Time
}

// MemoryTier is the in-process, last-resort backend. It survives nothing
// but lets a write "succeed" from the caller's perspective when every
// durable tier is down.
type MemoryTier struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	capacity int // 0 means unbounded
	now      func() time.Time
}

// MemoryOption configures a MemoryTier.
type MemoryOption func(*MemoryTier)

// WithCapacity bounds the number of stored keys; further inserts report
// ErrQuotaExceeded until space is freed.
func WithCapacity(n int) MemoryOption {
	return func(t *MemoryTier) { t.capacity = n }
}

// WithMemoryClock substitutes the timestamp source used for eviction order.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(t *MemoryTier) { t.now = now }
}

func NewMemoryTier(opts ...MemoryOption) *MemoryTier {
	t := &MemoryTier{
		entries: map[string]memoryEntry{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *MemoryTier) Name() string { return "memory" }

func (t *MemoryTier) Get(_ context.Context, key string) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (t *MemoryTier) Set(_ context.Context, key string, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[key]; !exists && t.capacity > 0 && len(t.entries) >= t.capacity {
		return ErrQuotaExceeded
	}
	t.entries[key] = memoryEntry{value: append([]byte(nil), value...), updatedAt: t.now()}
	return nil
}

func (t *MemoryTier) Remove(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
	return nil
}

func (t *MemoryTier) HealthCheck(context.Context) error { return nil }

// EvictOldestHalf drops the least recently written half of the keys.
func (t *MemoryTier) EvictOldestHalf(context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) == 0 {
		return 0, nil
	}

	type aged struct {
		key string
		at  time.Time
	}
	keys := make([]aged, 0, len(t.entries))
	for k, e := range t.entries {
		keys = append(keys, aged{key: k, at: e.updatedAt})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].at.Before(keys[j].at) })

	half := (len(keys) + 1) / 2
	for _, k := range keys[:half] {
		delete(t.entries, k.key)
	}
	return half, nil
}

func (t *MemoryTier) ListKeys(_ context.Context, prefix string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
