/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Source names for programming and catalog data.
const (
	SourceScheduler = "scheduler"
	SourceGrid      = "grid"
	SourceDB        = "db"
	SourceFFprobe   = "ffprobe"
	SourceStatic    = "static"
)

// Player names.
const (
	PlayerSimulated = "simulated"
	PlayerProcess   = "process"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	Channel     int
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string

	// Collaborators
	SchedulerURL      string
	ProgrammingSource string // scheduler | grid | db
	CatalogSource     string // scheduler | db
	MetadataSource    string // ffprobe | static
	GridFile          string
	Player            string // simulated | process
	PlayerBin         string
	SimulatedSpeed    float64
	FFprobeBin        string
	StaticDuration    time.Duration

	// Queue assembly
	PollInterval       time.Duration
	ReplenishThreshold time.Duration
	OvershootTolerance time.Duration
	MaxAttempts        int
	Seed               int64 // 0 seeds from the clock

	// Redis catalog cache
	RedisEnabled    bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration

	NATSURL      string
	AsRunEnabled bool

	// LeaderElection runs the player only while this instance holds the
	// channel lease in Redis.
	LeaderElection bool

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	LegacyEnvWarnings []string
}

// LoadDotEnv loads variables from an optional .env file without overriding
// variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	schedulerURL := getEnvAny([]string{"TD_SCHEDULER_URL", "SCHEDULER_URL"}, "")
	remoteDefault := func(fallback string) string {
		if schedulerURL != "" {
			return SourceScheduler
		}
		return fallback
	}

	cfg := &Config{
		Environment: getEnvAny([]string{"TD_ENV"}, "development"),
		Channel:     getEnvIntAny([]string{"TD_CHANNEL"}, 3),
		HTTPBind:    getEnvAny([]string{"TD_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"TD_HTTP_PORT"}, 8080),
		DBBackend:   DatabaseBackend(getEnvAny([]string{"TD_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:       getEnvAny([]string{"TD_DB_DSN"}, "technicaldirector.db"),

		SchedulerURL:      schedulerURL,
		ProgrammingSource: strings.ToLower(getEnvAny([]string{"TD_PROGRAMMING_SOURCE"}, remoteDefault(SourceGrid))),
		CatalogSource:     strings.ToLower(getEnvAny([]string{"TD_CATALOG_SOURCE"}, remoteDefault(SourceDB))),
		MetadataSource:    strings.ToLower(getEnvAny([]string{"TD_METADATA_SOURCE"}, SourceFFprobe)),
		GridFile:          getEnvAny([]string{"TD_GRID_FILE"}, "grid.yaml"),
		Player:            strings.ToLower(getEnvAny([]string{"TD_PLAYER"}, PlayerSimulated)),
		PlayerBin:         getEnvAny([]string{"TD_PLAYER_BIN"}, "mpv"),
		SimulatedSpeed:    getEnvFloatAny([]string{"TD_SIMULATED_SPEED"}, 1.0),
		FFprobeBin:        getEnvAny([]string{"TD_FFPROBE_BIN"}, "ffprobe"),
		StaticDuration:    time.Duration(getEnvIntAny([]string{"TD_STATIC_DURATION_MINUTES"}, 24)) * time.Minute,

		PollInterval:       time.Duration(getEnvIntAny([]string{"TD_POLL_INTERVAL_MS"}, 500)) * time.Millisecond,
		ReplenishThreshold: time.Duration(getEnvIntAny([]string{"TD_REPLENISH_THRESHOLD_MINUTES"}, 30)) * time.Minute,
		OvershootTolerance: time.Duration(getEnvIntAny([]string{"TD_OVERSHOOT_TOLERANCE_SECONDS"}, 10)) * time.Second,
		MaxAttempts:        getEnvIntAny([]string{"TD_MAX_ATTEMPTS"}, 5),
		Seed:               int64(getEnvIntAny([]string{"TD_SEED"}, 0)),

		RedisEnabled:    getEnvBoolAny([]string{"TD_REDIS_ENABLED"}, false),
		RedisAddr:       getEnvAny([]string{"TD_REDIS_ADDR"}, "localhost:6379"),
		RedisPassword:   getEnvAny([]string{"TD_REDIS_PASSWORD"}, ""),
		RedisDB:         getEnvIntAny([]string{"TD_REDIS_DB"}, 0),
		CatalogCacheTTL: time.Duration(getEnvIntAny([]string{"TD_CATALOG_CACHE_TTL_SECONDS"}, 300)) * time.Second,

		NATSURL:      getEnvAny([]string{"TD_NATS_URL"}, ""),
		AsRunEnabled: getEnvBoolAny([]string{"TD_ASRUN_ENABLED"}, true),

		LeaderElection: getEnvBoolAny([]string{"TD_LEADER_ELECTION"}, false),

		TracingEnabled:    getEnvBoolAny([]string{"TD_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"TD_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"TD_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

// Validate checks option values and combinations.
func (c *Config) Validate() error {
	if c.DBBackend != DatabasePostgres && c.DBBackend != DatabaseMySQL && c.DBBackend != DatabaseSQLite {
		return fmt.Errorf("unsupported database backend %q", c.DBBackend)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("TD_DB_DSN must be provided")
	}

	switch c.ProgrammingSource {
	case SourceScheduler, SourceGrid, SourceDB:
	default:
		return fmt.Errorf("unsupported programming source %q", c.ProgrammingSource)
	}
	switch c.CatalogSource {
	case SourceScheduler, SourceDB:
	default:
		return fmt.Errorf("unsupported catalog source %q", c.CatalogSource)
	}
	switch c.MetadataSource {
	case SourceFFprobe, SourceStatic:
	default:
		return fmt.Errorf("unsupported metadata source %q", c.MetadataSource)
	}
	if (c.ProgrammingSource == SourceScheduler || c.CatalogSource == SourceScheduler) && c.SchedulerURL == "" {
		return fmt.Errorf("TD_SCHEDULER_URL must be provided when the scheduler is a source")
	}

	switch c.Player {
	case PlayerSimulated, PlayerProcess:
	default:
		return fmt.Errorf("unsupported player %q", c.Player)
	}

	if c.PollInterval <= 0 || c.PollInterval > time.Second {
		return fmt.Errorf("TD_POLL_INTERVAL_MS must be between 1 and 1000, got %d", c.PollInterval.Milliseconds())
	}
	if c.ReplenishThreshold <= 0 {
		return fmt.Errorf("TD_REPLENISH_THRESHOLD_MINUTES must be positive")
	}
	if c.OvershootTolerance < 0 {
		return fmt.Errorf("TD_OVERSHOOT_TOLERANCE_SECONDS must not be negative")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("TD_MAX_ATTEMPTS must not be negative")
	}
	if c.LeaderElection && c.RedisAddr == "" {
		return fmt.Errorf("TD_REDIS_ADDR must be provided for leader election")
	}
	if c.Channel < 1 {
		return fmt.Errorf("TD_CHANNEL must be at least 1")
	}
	return nil
}

// HTTPAddr returns the listen address for the API server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"SCHEDULER_URL": "use TD_SCHEDULER_URL",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
