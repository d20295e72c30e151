// Package store implements the multi-tier persistence layer: an ordered
// list of storage backends tried in priority order, with silent per-tier
// degradation, a compact codec for distribution-heavy payloads, debounced
// auto-save and session recovery.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a tier when it holds no value for a key.
// Corrupt or unreadable values are reported the same way: absent, not broken.
var ErrNotFound = errors.New("key not found")

// ErrQuotaExceeded is returned by a tier that is out of room. The fallback
// orchestrator answers it with one eviction-and-retry pass.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Tier is a single storage backend. Implementations must make Set an atomic
// replace: a reader never observes a torn value.
type Tier interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}

// Evicter is an optional tier capability: drop the oldest half of stored
// keys to make room.
type Evicter interface {
	EvictOldestHalf(ctx context.Context) (int, error)
}

// Lister is an optional tier capability used by maintenance flows.
type Lister interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
