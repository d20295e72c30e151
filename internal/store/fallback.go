package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Fallback orchestrates an ordered list of tiers. Writes succeed when at
// least one tier accepts; reads fall through in tier order and report which
// tier served the hit. Per-tier failures are swallowed here, once, instead
// of being sprinkled through call sites.
type Fallback struct {
	tiers  []Tier
	logger *zap.Logger
}

func NewFallback(logger *zap.Logger, tiers ...Tier) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{tiers: tiers, logger: logger}
}

// Tiers exposes the configured backends for health reporting.
func (f *Fallback) Tiers() []Tier { return f.tiers }

// Set writes to every tier in order. A tier that fails gets one
// eviction-and-retry pass when it supports eviction. The overall write only
// fails when every tier refused, with all per-tier errors aggregated.
func (f *Fallback) Set(ctx context.Context, key string, value []byte) error {
	var errs []error
	stored := false
	for _, tier := range f.tiers {
		if err := f.setWithRetry(ctx, tier, key, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
			f.logger.Warn("tier write failed",
				zap.String("tier", tier.Name()), zap.String("key", key), zap.Error(err))
			continue
		}
		stored = true
	}
	if !stored {
		return fmt.Errorf("all tiers failed: %w", errors.Join(errs...))
	}
	return nil
}

func (f *Fallback) setWithRetry(ctx context.Context, tier Tier, key string, value []byte) error {
	err := tier.Set(ctx, key, value)
	if err == nil {
		return nil
	}
	ev, ok := tier.(Evicter)
	if !ok {
		return err
	}
	evicted, evictErr := ev.EvictOldestHalf(ctx)
	if evictErr != nil {
		return errors.Join(err, evictErr)
	}
	f.logger.Info("evicted oldest keys to make room",
		zap.String("tier", tier.Name()), zap.Int("evicted", evicted))
	return tier.Set(ctx, key, value)
}

// Get returns the first hit in tier order along with the serving tier's
// name. Tier errors other than a miss are treated as misses too; a value we
// cannot read is a value we do not have.
func (f *Fallback) Get(ctx context.Context, key string) ([]byte, string, error) {
	for _, tier := range f.tiers {
		value, err := tier.Get(ctx, key)
		if err == nil {
			return value, tier.Name(), nil
		}
		if !errors.Is(err, ErrNotFound) {
			f.logger.Warn("tier read failed",
				zap.String("tier", tier.Name()), zap.String("key", key), zap.Error(err))
		}
	}
	return nil, "", ErrNotFound
}

// Remove deletes the key from every tier. Partial cleanup is a defect, so
// removal keeps going through later tiers even when an earlier one fails.
func (f *Fallback) Remove(ctx context.Context, key string) error {
	var errs []error
	for _, tier := range f.tiers {
		if err := tier.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Health reports per-tier health keyed by tier name.
func (f *Fallback) Health(ctx context.Context) map[string]error {
	out := make(map[string]error, len(f.tiers))
	for _, tier := range f.tiers {
		out[tier.Name()] = tier.HealthCheck(ctx)
	}
	return out
}

// ListKeys merges key listings from every tier that supports listing.
func (f *Fallback) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	seen := map[string]bool{}
	var keys []string
	listed := false
	for _, tier := range f.tiers {
		l, ok := tier.(Lister)
		if !ok {
			continue
		}
		listed = true
		tierKeys, err := l.ListKeys(ctx, prefix)
		if err != nil {
			f.logger.Warn("tier list failed", zap.String("tier", tier.Name()), zap.Error(err))
			continue
		}
		for _, k := range tierKeys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	if !listed {
		return nil, errors.New("no tier supports listing")
	}
	return keys, nil
}
