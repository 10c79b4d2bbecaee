/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// API metrics
var (
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "technicaldirector_api_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "technicaldirector_api_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "technicaldirector_api_active_connections",
		Help: "In-flight HTTP requests.",
	})

	APIWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "technicaldirector_api_websocket_connections",
		Help: "Open event stream websockets.",
	})
)

// Queue metrics
var (
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "technicaldirector_queue_depth",
		Help: "Segments waiting in the playout queue.",
	})

	QueueRemainingSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "technicaldirector_queue_remaining_seconds",
		Help: "Summed duration of queued segments.",
	})

	SegmentsAdvancedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "technicaldirector_segments_advanced_total",
		Help: "Segments handed to the player, by kind.",
	}, []string{"kind"})

	DeadAirTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "technicaldirector_dead_air_total",
		Help: "Advances attempted against an empty queue.",
	})

	ReplenishTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "technicaldirector_replenish_total",
		Help: "Successful queue replenishments.",
	})

	ReplenishErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "technicaldirector_replenish_errors_total",
		Help: "Failed queue replenishments, by stage.",
	}, []string{"stage"})

	PlayerErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "technicaldirector_player_errors_total",
		Help: "Segments the player failed to load or start.",
	})
)

// Planning metrics
var (
	BlocksPlannedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "technicaldirector_blocks_planned_total",
		Help: "Programming blocks planned, by branch (full or truncated).",
	}, []string{"branch"})

	PlanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "technicaldirector_plan_duration_seconds",
		Help:    "Time spent planning one block, catalog fetch included.",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	})

	BreaksAssembledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "technicaldirector_breaks_assembled_total",
		Help: "Commercial breaks assembled.",
	})

	BreaksUnderfilledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "technicaldirector_breaks_underfilled_total",
		Help: "Commercial breaks shorter than their target because the pool ran out.",
	})

	BreakFillRatio = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "technicaldirector_break_fill_ratio",
		Help:    "Filled duration divided by target duration per break.",
		Buckets: []float64{0, .25, .5, .75, .9, 1, 1.05, 1.1, 1.25, 1.5, 2},
	})

	SpotsForcedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "technicaldirector_spots_forced_total",
		Help: "Spots accepted past the overshoot tolerance.",
	})
)

// Collaborator metrics
var (
	CatalogCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "technicaldirector_catalog_cache_total",
		Help: "Catalog snapshot cache lookups, by result.",
	}, []string{"result"})

	EventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "technicaldirector_events_dropped_total",
		Help: "Bus payloads dropped because a subscriber fell behind, by type.",
	}, []string{"type"})

	EventsForwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "technicaldirector_events_forwarded_total",
		Help: "Bus events forwarded to NATS, by type.",
	}, []string{"type"})

	AsRunWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "technicaldirector_asrun_write_errors_total",
		Help: "As-run entries that could not be stored.",
	})
)

// Leader election metrics
var (
	LeaderElectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "technicaldirector_leader",
		Help: "1 while this instance holds the channel lease.",
	})

	LeaderElectionChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "technicaldirector_leader_changes_total",
		Help: "Leadership transitions, by direction.",
	}, []string{"change"})
)

// Database metrics
var (
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "technicaldirector_database_query_duration_seconds",
		Help:    "Database operation latency, by operation and table.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation", "table"})

	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "technicaldirector_database_errors_total",
		Help: "Failed database operations, by operation.",
	}, []string{"operation", "error_type"})

	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "technicaldirector_database_connections_active",
		Help: "Open connections in the database pool.",
	})
)

// Handler exposes metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
