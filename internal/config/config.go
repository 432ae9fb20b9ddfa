// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package config loads server configuration from an optional YAML file with
// command-line flag overrides.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/warrenmud/warren/internal/gen"
)

// Config is the full server configuration.
type Config struct {
	// ListenAddr is the gateway's HTTP listen address.
	ListenAddr string `koanf:"listen_addr"`

	// WSPath is the websocket endpoint path.
	WSPath string `koanf:"ws_path"`

	// AllowedOrigins lists acceptable Origin headers; "*" allows all.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// MoveCooldownMs and TurnCooldownMs gate action rates server-side.
	MoveCooldownMs int `koanf:"move_cooldown_ms"`
	TurnCooldownMs int `koanf:"turn_cooldown_ms"`

	// WorldSeed seeds a fresh world in memory mode. Ignored for stored
	// worlds, whose seed is fixed at creation.
	WorldSeed uint32 `koanf:"world_seed"`

	// GeneratorVersion tags newly created worlds.
	GeneratorVersion string `koanf:"generator_version"`

	// DatabaseURL is the PostgreSQL connection string. Empty selects the
	// in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// MetricsAddr serves /metrics and health probes; empty disables.
	MetricsAddr string `koanf:"metrics_addr"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		ListenAddr:       ":8420",
		WSPath:           "/ws",
		AllowedOrigins:   []string{"*"},
		MoveCooldownMs:   500,
		TurnCooldownMs:   150,
		GeneratorVersion: gen.VersionMaze,
		MetricsAddr:      "127.0.0.1:9100",
		LogFormat:        "json",
	}
}

// MoveCooldown returns the move cooldown as a duration.
func (c Config) MoveCooldown() time.Duration {
	return time.Duration(c.MoveCooldownMs) * time.Millisecond
}

// TurnCooldown returns the turn cooldown as a duration.
func (c Config) TurnCooldown() time.Duration {
	return time.Duration(c.TurnCooldownMs) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen_addr cannot be empty")
	}
	if c.WSPath == "" || c.WSPath[0] != '/' {
		return oops.Code("CONFIG_INVALID").With("ws_path", c.WSPath).Errorf("ws_path must start with /")
	}
	if c.MoveCooldownMs < 0 || c.TurnCooldownMs < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("cooldowns cannot be negative")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").With("log_format", c.LogFormat).Errorf("log_format must be json or text")
	}
	if _, err := gen.ForVersion(c.GeneratorVersion); err != nil {
		return oops.Code("CONFIG_INVALID").With("generator_version", c.GeneratorVersion).Wrap(err)
	}
	return nil
}

// Load merges defaults, an optional YAML file, and explicitly set flags, in
// that order of precedence (later wins).
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
