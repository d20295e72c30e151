package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenTier fails every operation, standing in for an unavailable backend.
type brokenTier struct{ name string }

func (b brokenTier) Name() string                                { return b.name }
func (b brokenTier) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (b brokenTier) Set(context.Context, string, []byte) error   { return errors.New("down") }
func (b brokenTier) Remove(context.Context, string) error        { return errors.New("down") }
func (b brokenTier) HealthCheck(context.Context) error           { return errors.New("down") }

func TestFallbackSetSucceedsWhenAnyTierAccepts(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryTier()
	fb := NewFallback(nil, brokenTier{name: "sql"}, mem)

	require.NoError(t, fb.Set(ctx, "k", []byte("v")))

	got, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestFallbackSetFailsOnlyWhenAllTiersFail(t *testing.T) {
	fb := NewFallback(nil, brokenTier{name: "sql"}, brokenTier{name: "file"})

	err := fb.Set(context.Background(), "k", []byte("v"))

	require.Error(t, err)
	// Per-tier errors are aggregated for the caller.
	assert.Contains(t, err.Error(), "sql")
	assert.Contains(t, err.Error(), "file")
}

func TestFallbackSetEvictsAndRetriesOnQuota(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryTier(WithCapacity(2))
	fb := NewFallback(nil, mem)

	require.NoError(t, fb.Set(ctx, "a", []byte("1")))
	require.NoError(t, fb.Set(ctx, "b", []byte("2")))
	// Tier is full; the orchestrator evicts the oldest half and retries once.
	require.NoError(t, fb.Set(ctx, "c", []byte("3")))

	_, err := mem.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := mem.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}

func TestFallbackGetTagsServingTier(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryTier()
	secondary := NewMemoryTier()
	fb := NewFallback(nil, primary, secondary)

	require.NoError(t, secondary.Set(ctx, "k", []byte("v")))

	// Only the secondary holds the key; the read must fall through.
	_, tier, err := fb.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "memory", tier)

	_, _, err = fb.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFallbackGetFirstHitWins(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryTier()
	secondary := NewMemoryTier()
	fb := NewFallback(nil, primary, secondary)

	require.NoError(t, primary.Set(ctx, "k", []byte("new")))
	require.NoError(t, secondary.Set(ctx, "k", []byte("stale")))

	got, _, err := fb.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestFallbackRemoveHitsEveryTier(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryTier()
	secondary := NewMemoryTier()
	fb := NewFallback(nil, primary, secondary)

	require.NoError(t, fb.Set(ctx, "k", []byte("v")))
	require.NoError(t, fb.Remove(ctx, "k"))

	_, err := primary.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = secondary.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFallbackHealth(t *testing.T) {
	fb := NewFallback(nil, NewMemoryTier(), brokenTier{name: "sql"})

	health := fb.Health(context.Background())

	assert.NoError(t, health["memory"])
	assert.Error(t, health["sql"])
}

func TestMemoryTierEvictOldestHalf(t *testing.T) {
	ctx := context.Background()
	clock := &tickClock{}
	mem := NewMemoryTier(WithMemoryClock(clock.Now))

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, mem.Set(ctx, k, []byte(k)))
	}

	n, err := mem.EvictOldestHalf(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = mem.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = mem.Get(ctx, "d")
	assert.NoError(t, err)
}
