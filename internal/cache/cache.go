/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache keeps snapshots of the commercial catalog and of probed
// content metadata in Redis. Planning never depends on it: every miss or
// Redis failure falls through to the wrapped source.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultCatalogTTL  = 5 * time.Minute
	DefaultMetadataTTL = time.Hour

	// DefaultCooldown is how long Redis is bypassed after an error.
	DefaultCooldown = 30 * time.Second
)

const (
	KeyPrefix   = "technicaldirector:cache:"
	KeyCatalog  = KeyPrefix + "catalog:"  // + catalog source
	KeyMetadata = KeyPrefix + "metadata:" // + content ref
)

// ErrUnavailable is returned by operations that need Redis when it cannot be
// reached.
var ErrUnavailable = errors.New("redis cache unavailable")

// Scope selects the snapshots Purge removes.
type Scope string

const (
	ScopeCatalog  Scope = "catalog"
	ScopeMetadata Scope = "metadata"
	ScopeAll      Scope = "all"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch scope := Scope(s); scope {
	case ScopeCatalog, ScopeMetadata, ScopeAll:
		return scope, nil
	default:
		return "", fmt.Errorf("unknown cache scope %q (want catalog, metadata or all)", s)
	}
}

func (s Scope) pattern() string {
	switch s {
	case ScopeCatalog:
		return KeyCatalog + "*"
	case ScopeMetadata:
		return KeyMetadata + "*"
	default:
		return KeyPrefix + "*"
	}
}

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CatalogTTL  time.Duration
	MetadataTTL time.Duration

	// Cooldown is how long Redis is bypassed after a failed command.
	Cooldown time.Duration
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:   "localhost:6379",
		CatalogTTL:  DefaultCatalogTTL,
		MetadataTTL: DefaultMetadataTTL,
		Cooldown:    DefaultCooldown,
	}
}

// Cache is a Redis client that steps aside for Cooldown whenever Redis
// misbehaves, so a flapping Redis slows nothing down.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config
	now    func() time.Time

	mu       sync.Mutex
	offUntil time.Time
}

// New connects to Redis. An unreachable Redis yields a disabled cache rather
// than an error.
func New(cfg Config, logger zerolog.Logger) *Cache {
	logger = logger.With().Str("component", "cache").Logger()
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, planning without cache")
		_ = client.Close()
		return Disabled(logger)
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("redis cache connected")
	return &Cache{client: client, logger: logger, config: cfg, now: time.Now}
}

// Disabled returns a cache that always misses.
func Disabled(logger zerolog.Logger) *Cache {
	return &Cache{logger: logger, config: DefaultConfig(), now: time.Now}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IsAvailable reports whether commands currently go to Redis.
func (c *Cache) IsAvailable() bool {
	if c.client == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.now().Before(c.offUntil)
}

// trip bypasses Redis for the cooldown after a failed command.
func (c *Cache) trip(err error, op string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}
	c.mu.Lock()
	c.offUntil = c.now().Add(c.config.Cooldown)
	c.mu.Unlock()
	c.logger.Warn().Err(err).Str("op", op).Dur("cooldown", c.config.Cooldown).Msg("redis command failed, bypassing cache")
}

func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		c.trip(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// A snapshot from an older build is treated as a miss and overwritten.
		c.logger.Debug().Err(err).Str("key", key).Msg("discarding unreadable snapshot")
		return false, nil
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.trip(err, "set")
		return err
	}
	return nil
}

func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.trip(err, "del")
		return err
	}
	return nil
}

// Purge removes every snapshot in scope and returns how many keys went.
// Operators run it after re-encoding media or editing the catalog by hand.
func (c *Cache) Purge(ctx context.Context, scope Scope) (int, error) {
	if !c.IsAvailable() {
		return 0, ErrUnavailable
	}

	removed := 0
	iter := c.client.Scan(ctx, 0, scope.pattern(), 200).Iterator()
	batch := make([]string, 0, 200)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Unlink(ctx, batch...).Result()
		if err != nil {
			return err
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				c.trip(err, "unlink")
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		c.trip(err, "scan")
		return removed, err
	}
	if err := flush(); err != nil {
		c.trip(err, "unlink")
		return removed, err
	}

	c.logger.Info().Str("scope", string(scope)).Int("removed", removed).Msg("cache purged")
	return removed, nil
}
