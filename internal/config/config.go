// Package config loads this service's runtime configuration from the
// environment, grounded on taibuivan-yomira's internal/platform/config
// package: a single immutable struct populated once via caarlos0/env
// and passed down explicitly, never read from a package-level global.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every environment-tunable setting for the `serve`
// subcommand. CLI flags (cmd/wikipath) take precedence when both are
// set; Config only supplies the defaults a deployment environment
// wants baked in rather than passed on every invocation.
type Config struct {
	// ListenAddr is the address the HTTP service host binds to.
	ListenAddr string `env:"WIKIPATH_LISTEN_ADDR" envDefault:":1789"`

	// DatabasePath is the path to the sqlite graph database to serve.
	DatabasePath string `env:"WIKIPATH_DATABASE_PATH" envDefault:"wikipath.sqlite3"`

	// DirectionStrategy is either "frontier_size" or "edge_count_query"
	// (spec.md §6's configuration knob for the solver's bidirectional
	// BFS direction heuristic).
	DirectionStrategy string `env:"WIKIPATH_DIRECTION_STRATEGY" envDefault:"frontier_size"`

	// Tier1EntryCap bounds each Tier-1 memoization map's entry count; 0 means unbounded.
	Tier1EntryCap int `env:"WIKIPATH_TIER1_ENTRY_CAP" envDefault:"1000000"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `env:"WIKIPATH_LOG_LEVEL" envDefault:"info"`

	// LogJSON selects slog's JSON handler over its text handler.
	LogJSON bool `env:"WIKIPATH_LOG_JSON" envDefault:"true"`
}

// Load parses Config from the process environment.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
