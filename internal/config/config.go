// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load layers an optional .env file, an optional YAML file and GOLFR_
//     environment variables on top of those defaults.
//   - Validation failures wrap ErrInvalidConfig; provider failures wrap
//     ErrLoadConfig.
package config

import (
	"runtime"
)

// Backend kinds accepted by the backend setting.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Backend selects the storage adapter: memory, bolt, postgres or sqlite.
	Backend string `koanf:"backend"`

	// DSN is handed to the selected backend. A file path for bolt and
	// sqlite, a connection string for postgres.
	DSN string `koanf:"dsn"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of event workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the capacity of the idempotency key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// SessionLimit caps concurrent in-progress round entries.
	SessionLimit int `koanf:"session_limit"`

	// FeedLimit is the default number of feed items.
	FeedLimit int `koanf:"feed_limit"`

	// MaxLimit caps list endpoints' ?limit.
	MaxLimit int `koanf:"max_limit"`

	// LeaderboardCron schedules periodic leaderboard rebuilds. Empty disables.
	LeaderboardCron string `koanf:"leaderboard_cron"`

	// SeedCatalog inserts the built-in course catalog on start.
	SeedCatalog bool `koanf:"seed_catalog"`

	// ShutdownTimeoutSec bounds graceful HTTP shutdown.
	ShutdownTimeoutSec int `koanf:"shutdown_timeout_sec"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "json",
		Addr:               ":8080",
		Backend:            BackendMemory,
		EventQueueSize:     1024,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         10_000,
		SessionLimit:       1000,
		FeedLimit:          20,
		MaxLimit:           100,
		LeaderboardCron:    "*/15 * * * *",
		SeedCatalog:        true,
		ShutdownTimeoutSec: 10,
	}
}
