/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server exposes the playout queue over HTTP.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/technicaldirector/internal/config"
	"github.com/friendsincode/technicaldirector/internal/events"
	"github.com/friendsincode/technicaldirector/internal/logbuffer"
	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/playout"
	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

// Queue is the part of the director the API reads and controls.
type Queue interface {
	Snapshot() playout.Snapshot
	RequestAdvance()
}

// AsRunLog lists recently aired segments.
type AsRunLog interface {
	Recent(ctx context.Context, limit int) ([]models.AsRunEntry, error)
}

// Dependencies are the services the API serves. AsRun and LogBuffer may be
// nil; their routes then answer 404.
type Dependencies struct {
	Queue     Queue
	Bus       *events.Bus
	LogBuffer *logbuffer.Buffer
	AsRun     AsRunLog
}

// Server bundles the router and the net/http server.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	queue     Queue
	bus       *events.Bus
	logBuffer *logbuffer.Buffer
	asrun     AsRunLog
}

// New constructs the server and registers routes.
func New(cfg *config.Config, deps Dependencies, logger zerolog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("technicaldirector-api"))
	router.Use(telemetry.MetricsMiddleware)
	// Skip timeout for the event stream
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(30 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv := &Server{
		cfg:       cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		router:    router,
		queue:     deps.Queue,
		bus:       deps.Bus,
		logBuffer: deps.LogBuffer,
		asrun:     deps.AsRun,
	}

	srv.configureRoutes()

	srv.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		// WriteTimeout stays 0 for the websocket stream; the middleware
		// timeout covers everything else.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Shutdown stops accepting requests and runs the registered cleanup hooks in
// reverse order.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i](); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", telemetry.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/queue", s.handleQueue)
		r.Post("/queue/advance", s.handleAdvance)
		r.Get("/asrun", s.handleAsRun)
		r.Get("/logs", s.handleLogs)
		r.Get("/logs/stats", s.handleLogStats)
		r.Get("/events", s.handleEvents)
	})
}
