/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/friendsincode/technicaldirector/internal/cache"
	"github.com/friendsincode/technicaldirector/internal/commercial"
	"github.com/friendsincode/technicaldirector/internal/config"
	"github.com/friendsincode/technicaldirector/internal/db"
	"github.com/friendsincode/technicaldirector/internal/events"
	"github.com/friendsincode/technicaldirector/internal/planner"
	"github.com/friendsincode/technicaldirector/internal/player"
	"github.com/friendsincode/technicaldirector/internal/playout"
	"github.com/friendsincode/technicaldirector/internal/probe"
	"github.com/friendsincode/technicaldirector/internal/schedule"
	"github.com/friendsincode/technicaldirector/internal/store"
)

// stopper is implemented by sinks that own a player.
type stopper interface {
	Stop() error
}

// services holds the collaborators shared by serve and plan.
type services struct {
	db          *gorm.DB
	cache       *cache.Cache
	client      *schedule.Client
	programming playout.ProgrammingSource
	catalog     planner.CatalogProvider
	metadata    playout.MetadataSource
	planner     *planner.Planner
	closers     []func() error
}

// close releases resources in reverse order.
func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn().Err(err).Msg("cleanup failed")
		}
	}
}

func (s *services) database() (*gorm.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	database, err := db.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	s.db = database
	s.closers = append(s.closers, func() error { return db.Close(database) })
	return database, nil
}

func (s *services) scheduler() (*schedule.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	client, err := schedule.NewClient(cfg.SchedulerURL, cfg.Channel, logger)
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

// buildServices wires the programming source, catalog, metadata source and
// planner selected by the configuration.
func buildServices(bus *events.Bus) (*services, error) {
	s := &services{}
	ok := false
	defer func() {
		if !ok {
			s.close()
		}
	}()

	if cfg.RedisEnabled {
		s.cache = newCache()
		s.closers = append(s.closers, s.cache.Close)
	}

	switch cfg.ProgrammingSource {
	case config.SourceScheduler:
		client, err := s.scheduler()
		if err != nil {
			return nil, err
		}
		s.programming = client
	case config.SourceGrid:
		grid, err := schedule.LoadGrid(cfg.GridFile)
		if err != nil {
			return nil, err
		}
		s.programming = grid
	case config.SourceDB:
		database, err := s.database()
		if err != nil {
			return nil, err
		}
		s.programming = store.NewListings(database, cfg.Channel)
	default:
		return nil, fmt.Errorf("unsupported programming source %q", cfg.ProgrammingSource)
	}

	switch cfg.CatalogSource {
	case config.SourceScheduler:
		client, err := s.scheduler()
		if err != nil {
			return nil, err
		}
		s.catalog = client
	case config.SourceDB:
		database, err := s.database()
		if err != nil {
			return nil, err
		}
		s.catalog = store.NewCatalog(database, logger)
	default:
		return nil, fmt.Errorf("unsupported catalog source %q", cfg.CatalogSource)
	}
	if s.cache != nil {
		s.catalog = cache.NewCatalogCache(s.cache, s.catalog, cfg.CatalogSource)
	}

	switch cfg.MetadataSource {
	case config.SourceFFprobe:
		s.metadata = probe.NewFFprobe(cfg.FFprobeBin, logger)
	case config.SourceStatic:
		s.metadata = probe.NewStatic(nil, cfg.StaticDuration)
	default:
		return nil, fmt.Errorf("unsupported metadata source %q", cfg.MetadataSource)
	}
	if s.cache != nil {
		s.metadata = cache.NewMetadataCache(s.cache, s.metadata)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	filler := commercial.NewFiller(commercial.FillerConfig{
		OvershootTolerance: cfg.OvershootTolerance,
		MaxAttempts:        cfg.MaxAttempts,
	}, rng, logger)
	assembler := commercial.NewAssembler(filler, logger)

	var opts []planner.Option
	if bus != nil {
		opts = append(opts, planner.WithBus(bus))
	}
	s.planner = planner.New(s.catalog, assembler, rng, logger, opts...)

	logger.Info().
		Str("programming", cfg.ProgrammingSource).
		Str("catalog", cfg.CatalogSource).
		Str("metadata", cfg.MetadataSource).
		Bool("cache", s.cache != nil).
		Int64("seed", seed).
		Msg("collaborators wired")

	ok = true
	return s, nil
}

func newCache() *cache.Cache {
	cc := cache.DefaultConfig()
	cc.RedisAddr = cfg.RedisAddr
	cc.RedisPassword = cfg.RedisPassword
	cc.RedisDB = cfg.RedisDB
	cc.CatalogTTL = cfg.CatalogCacheTTL
	return cache.New(cc, logger)
}

func buildSink() (playout.PlaybackSink, error) {
	switch cfg.Player {
	case config.PlayerSimulated:
		return player.NewSimulated(cfg.SimulatedSpeed, logger), nil
	case config.PlayerProcess:
		return player.NewProcess(cfg.PlayerBin, logger), nil
	default:
		return nil, fmt.Errorf("unsupported player %q", cfg.Player)
	}
}
