/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/friendsincode/technicaldirector/internal/asrun"
	"github.com/friendsincode/technicaldirector/internal/db"
	"github.com/friendsincode/technicaldirector/internal/eventbus"
	"github.com/friendsincode/technicaldirector/internal/events"
	"github.com/friendsincode/technicaldirector/internal/leadership"
	"github.com/friendsincode/technicaldirector/internal/player"
	"github.com/friendsincode/technicaldirector/internal/playout"
	"github.com/friendsincode/technicaldirector/internal/server"
	"github.com/friendsincode/technicaldirector/internal/telemetry"
	"github.com/friendsincode/technicaldirector/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the playout director and HTTP API",
	Long:  "Keep the channel's playout queue filled, drive the player and serve the queue, as-run log, logs, events and metrics over HTTP.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Str("version", version.String()).Int("channel", cfg.Channel).Msg("technical director starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "technicaldirector",
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	bus := events.NewBus()

	svc, err := buildServices(bus)
	if err != nil {
		return err
	}
	defer svc.close()

	sink, err := buildSink()
	if err != nil {
		return err
	}
	if s, ok := sink.(stopper); ok {
		defer func() {
			if err := s.Stop(); err != nil {
				logger.Warn().Err(err).Msg("player stop failed")
			}
		}()
	}

	directorOpts := []playout.Option{playout.WithBus(bus)}
	if sim, ok := sink.(*player.Simulated); ok {
		// Drain projections must follow the sped-up playback.
		directorOpts = append(directorOpts, playout.WithClock(sim.Now))
	}
	director := playout.NewDirector(playout.Config{
		PollInterval:       cfg.PollInterval,
		ReplenishThreshold: cfg.ReplenishThreshold,
	}, svc.planner, svc.programming, svc.metadata, sink, logger, directorOpts...)

	deps := server.Dependencies{Queue: director, Bus: bus, LogBuffer: logBuffer}

	var recorder *asrun.Recorder
	if cfg.AsRunEnabled {
		database, err := svc.database()
		if err != nil {
			return err
		}
		recorder = asrun.NewRecorder(database, cfg.Channel, logger)
		deps.AsRun = recorder
	}

	var forwarder *eventbus.Forwarder
	if cfg.NATSURL != "" {
		natsCfg := eventbus.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		conn, err := eventbus.Connect(natsCfg, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		forwarder = eventbus.NewForwarder(bus, conn, logger)
	}

	var election *leadership.Election
	if cfg.LeaderElection {
		electionCfg := leadership.DefaultConfig(cfg.Channel)
		electionCfg.RedisAddr = cfg.RedisAddr
		electionCfg.RedisPassword = cfg.RedisPassword
		electionCfg.RedisDB = cfg.RedisDB
		election, err = leadership.NewElection(electionCfg, logger)
		if err != nil {
			return fmt.Errorf("leader election: %w", err)
		}
		defer func() {
			if err := election.Stop(); err != nil {
				logger.Warn().Err(err).Msg("leader election stop failed")
			}
		}()
	}

	srv := server.New(cfg, deps, logger)
	httpServer := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down gracefully...")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(timeoutCtx)
	})

	if recorder != nil {
		g.Go(func() error { return recorder.Run(gctx, bus) })
	}
	if forwarder != nil {
		g.Go(func() error { return forwarder.Run(gctx) })
	}
	if svc.db != nil {
		g.Go(func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				db.UpdateConnectionMetrics(svc.db)
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}

	g.Go(func() error {
		if election != nil {
			election.Start(gctx)
			logger.Info().Msg("standing by for channel leadership")
			if err := election.Await(gctx); err != nil {
				return nil
			}
			g.Go(func() error { return election.Watch(gctx) })
		}
		director.Start(gctx)
		if err := director.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	err = g.Wait()
	logger.Info().Msg("technical director stopped")
	return err
}
