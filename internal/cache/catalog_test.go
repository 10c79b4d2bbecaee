/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendsincode/technicaldirector/internal/models"
)

type countingCatalog struct {
	spots []models.Spot
	err   error
	calls int
}

func (c *countingCatalog) FetchCommercialPool(context.Context) ([]models.Spot, error) {
	c.calls++
	return c.spots, c.err
}

func TestDisabledCacheFallsThrough(t *testing.T) {
	inner := &countingCatalog{spots: []models.Spot{{Ref: "a.mp4", Duration: 15 * time.Second, Subject: "cars"}}}
	cc := NewCatalogCache(Disabled(zerolog.Nop()), inner, "db")

	for i := 0; i < 2; i++ {
		spots, err := cc.FetchCommercialPool(context.Background())
		require.NoError(t, err)
		assert.Equal(t, inner.spots, spots)
	}
	assert.Equal(t, 2, inner.calls)
	assert.NoError(t, cc.Invalidate(context.Background()))
}

func TestDisabledCachePropagatesErrors(t *testing.T) {
	inner := &countingCatalog{err: errors.New("catalog down")}
	cc := NewCatalogCache(Disabled(zerolog.Nop()), inner, "scheduler")

	_, err := cc.FetchCommercialPool(context.Background())
	assert.ErrorContains(t, err, "catalog down")
}

func TestNewWithUnreachableRedisIsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	c := New(cfg, zerolog.Nop())
	defer c.Close()

	assert.False(t, c.IsAvailable())
	_, err := c.Purge(context.Background(), ScopeAll)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRedisErrorBypassesForCooldown(t *testing.T) {
	clock := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	c := &Cache{
		client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1}),
		logger: zerolog.Nop(),
		config: Config{Cooldown: time.Minute},
		now:    func() time.Time { return clock },
	}
	defer c.Close()
	require.True(t, c.IsAvailable())

	inner := &countingCatalog{spots: []models.Spot{{Ref: "a.mp4", Duration: 15 * time.Second}}}
	cc := NewCatalogCache(c, inner, "db")

	spots, err := cc.FetchCommercialPool(context.Background())
	require.NoError(t, err, "a Redis failure must not fail planning")
	assert.Equal(t, inner.spots, spots)
	assert.False(t, c.IsAvailable())

	clock = clock.Add(59 * time.Second)
	assert.False(t, c.IsAvailable())
	clock = clock.Add(time.Second)
	assert.True(t, c.IsAvailable(), "Redis is retried once the cooldown has passed")
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		pattern string
	}{
		{"catalog", "technicaldirector:cache:catalog:*"},
		{"metadata", "technicaldirector:cache:metadata:*"},
		{"all", "technicaldirector:cache:*"},
	}
	for _, tt := range tests {
		scope, err := ParseScope(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.pattern, scope.pattern())
	}

	_, err := ParseScope("everything")
	assert.Error(t, err)
}

func TestCatalogKeyIncludesSource(t *testing.T) {
	c := Disabled(zerolog.Nop())
	assert.Equal(t, "technicaldirector:cache:catalog:db", NewCatalogCache(c, &countingCatalog{}, "db").key)
	assert.Equal(t, DefaultCatalogTTL, NewCatalogCache(c, &countingCatalog{}, "db").ttl)
}

type countingProbe struct {
	meta  models.Metadata
	calls int
}

func (p *countingProbe) Probe(context.Context, string) (models.Metadata, error) {
	p.calls++
	return p.meta, nil
}

func TestMetadataCacheDisabledFallsThrough(t *testing.T) {
	inner := &countingProbe{meta: models.Metadata{StreamDuration: 22 * time.Minute}}
	mc := NewMetadataCache(Disabled(zerolog.Nop()), inner)

	meta, err := mc.Probe(context.Background(), "/media/ep1.mkv")
	require.NoError(t, err)
	assert.Equal(t, 22*time.Minute, meta.Duration())
	assert.Equal(t, 1, inner.calls)
}
