/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"context"
	"time"

	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

// CatalogProvider fetches the full commercial catalog.
type CatalogProvider interface {
	FetchCommercialPool(ctx context.Context) ([]models.Spot, error)
}

// CachedSpot is the cached form of a catalog entry. Durations are stored in
// nanoseconds so a round trip never loses precision.
type CachedSpot struct {
	Ref        string `json:"ref"`
	DurationNS int64  `json:"duration_ns"`
	Subject    string `json:"subject,omitempty"`
}

// CatalogCache serves catalog snapshots from Redis and falls back to the
// wrapped provider on a miss.
type CatalogCache struct {
	cache *Cache
	inner CatalogProvider
	key   string
	ttl   time.Duration
}

// NewCatalogCache wraps inner. Snapshots live under source so that different
// catalog backends never share an entry.
func NewCatalogCache(c *Cache, inner CatalogProvider, source string) *CatalogCache {
	ttl := c.config.CatalogTTL
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{cache: c, inner: inner, key: KeyCatalog + source, ttl: ttl}
}

// FetchCommercialPool returns a fresh copy of the catalog on every call.
func (cc *CatalogCache) FetchCommercialPool(ctx context.Context) ([]models.Spot, error) {
	var cached []CachedSpot
	found, err := cc.cache.get(ctx, cc.key, &cached)
	switch {
	case err != nil:
		telemetry.CatalogCacheTotal.WithLabelValues("error").Inc()
	case found:
		telemetry.CatalogCacheTotal.WithLabelValues("hit").Inc()
		cc.cache.logger.Debug().Int("count", len(cached)).Msg("catalog cache hit")
		spots := make([]models.Spot, len(cached))
		for i, s := range cached {
			spots[i] = models.Spot{Ref: s.Ref, Duration: time.Duration(s.DurationNS), Subject: s.Subject}
		}
		return spots, nil
	default:
		telemetry.CatalogCacheTotal.WithLabelValues("miss").Inc()
	}

	spots, err := cc.inner.FetchCommercialPool(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := make([]CachedSpot, len(spots))
	for i, s := range spots {
		snapshot[i] = CachedSpot{Ref: s.Ref, DurationNS: int64(s.Duration), Subject: s.Subject}
	}
	if err := cc.cache.set(ctx, cc.key, snapshot, cc.ttl); err != nil {
		cc.cache.logger.Debug().Err(err).Msg("caching catalog failed")
	}
	return spots, nil
}

// Invalidate drops the cached snapshot.
func (cc *CatalogCache) Invalidate(ctx context.Context) error {
	return cc.cache.delete(ctx, cc.key)
}

// InvalidateCatalog drops the snapshot of one catalog source, for example
// after a catalog import.
func (c *Cache) InvalidateCatalog(ctx context.Context, source string) error {
	c.logger.Debug().Str("source", source).Msg("invalidating catalog cache")
	return c.delete(ctx, KeyCatalog+source)
}
