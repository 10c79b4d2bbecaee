/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"context"
	"time"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// MetadataSource probes media files.
type MetadataSource interface {
	Probe(ctx context.Context, ref string) (models.Metadata, error)
}

// MetadataCache remembers probe results per content ref. Episodes air many
// times, and ffprobe on network storage is slow.
type MetadataCache struct {
	cache *Cache
	inner MetadataSource
	ttl   time.Duration
}

// NewMetadataCache wraps inner.
func NewMetadataCache(c *Cache, inner MetadataSource) *MetadataCache {
	ttl := c.config.MetadataTTL
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	return &MetadataCache{cache: c, inner: inner, ttl: ttl}
}

// Probe returns cached metadata or probes and caches it.
func (mc *MetadataCache) Probe(ctx context.Context, ref string) (models.Metadata, error) {
	var meta models.Metadata
	if found, err := mc.cache.get(ctx, KeyMetadata+ref, &meta); err == nil && found {
		mc.cache.logger.Debug().Str("ref", ref).Msg("metadata cache hit")
		return meta, nil
	}

	meta, err := mc.inner.Probe(ctx, ref)
	if err != nil {
		return models.Metadata{}, err
	}
	if err := mc.cache.set(ctx, KeyMetadata+ref, meta, mc.ttl); err != nil {
		mc.cache.logger.Debug().Err(err).Str("ref", ref).Msg("caching metadata failed")
	}
	return meta, nil
}
