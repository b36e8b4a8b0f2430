// Package strategy - soft-TTL rule cache
package strategy

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"bundle-pricing/core/rule"
	"bundle-pricing/internal/logging"
)

// DefaultCacheTTL is the soft time-to-live for cached rule sets
const DefaultCacheTTL = 60 * time.Second

type cacheCell struct {
	rules    []rule.Rule
	loadedAt time.Time
}

// CachedRepository wraps a Repository with a process-wide soft-TTL
// cache. Reads within the TTL may observe stale rules; a reload on
// expiry is lazy and idempotent, so concurrent cache-miss reloads
// race harmlessly. Explicit invalidation forces the next read to
// reload.
type CachedRepository struct {
	inner Repository
	ttl   time.Duration

	mu    sync.Mutex
	cells map[string]cacheCell

	// now is injectable for TTL tests
	now func() time.Time

	log *zap.Logger
}

// NewCachedRepository wraps a repository; a non-positive ttl uses
// DefaultCacheTTL
func NewCachedRepository(inner Repository, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{
		inner: inner,
		ttl:   ttl,
		cells: make(map[string]cacheCell),
		now:   time.Now,
		log:   logging.Named("rulecache"),
	}
}

// WithClock replaces the staleness clock
func (c *CachedRepository) WithClock(now func() time.Time) *CachedRepository {
	c.now = now
	return c
}

// LoadRules returns the cached strategy rules, reloading lazily when
// the cell is stale or absent
func (c *CachedRepository) LoadRules(ctx context.Context, strategyID string) ([]rule.Rule, error) {
	return c.load(ctx, strategyID, func() ([]rule.Rule, error) {
		return c.inner.LoadRules(ctx, strategyID)
	})
}

// LoadDefaultRules returns the cached default rule set
func (c *CachedRepository) LoadDefaultRules(ctx context.Context) ([]rule.Rule, error) {
	return c.load(ctx, "", func() ([]rule.Rule, error) {
		return c.inner.LoadDefaultRules(ctx)
	})
}

func (c *CachedRepository) load(ctx context.Context, key string, fetch func() ([]rule.Rule, error)) ([]rule.Rule, error) {
	c.mu.Lock()
	cell, ok := c.cells[key]
	fresh := ok && c.now().Sub(cell.loadedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		return cell.rules, nil
	}

	// Fetch outside the lock; overwriting a concurrent reload's cell
	// is harmless because reloads are idempotent.
	rules, err := fetch()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cells[key] = cacheCell{rules: rules, loadedAt: c.now()}
	c.mu.Unlock()

	c.log.Debug("rule cache reloaded",
		zap.String("strategy", key),
		zap.Int("rules", len(rules)))
	return rules, nil
}

// Invalidate drops every cached cell and forwards to the inner
// repository
func (c *CachedRepository) Invalidate() {
	c.mu.Lock()
	c.cells = make(map[string]cacheCell)
	c.mu.Unlock()
	c.inner.Invalidate()
	c.log.Info("rule cache invalidated")
}
