// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the shields service.
//
// Configuration is loaded from a single YAML file specified by:
//   - SHIELDS_CONFIG environment variable, or
//   - --config flag passed to the binary
//
// Every field has a usable default, so running without a config file is
// supported for local development. When a file is given it is the single
// source of truth: environment variables do not override its values.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for shields.
type Config struct {
	// Server configures the badge HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Matrix configures the upstream homeserver client.
	Matrix MatrixConfig `yaml:"matrix"`

	// Cache configures the badge result cache.
	Cache CacheConfig `yaml:"cache"`
}

// ServerConfig configures the badge HTTP listener.
type ServerConfig struct {
	// Listen is the TCP listen address (e.g., ":8080").
	Listen string `yaml:"listen"`

	// ShutdownTimeout bounds graceful shutdown after SIGTERM.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// MatrixConfig configures the upstream homeserver client.
type MatrixConfig struct {
	// RequestTimeout bounds each client-API call (registration, room
	// state). The pipeline performs no retries of its own, so this is
	// the only time bound on upstream calls.
	RequestTimeout Duration `yaml:"request_timeout"`

	// ProbeTimeout bounds the /versions reachability probe issued
	// against SRV-discovered hosts. Kept short: a discovered host that
	// doesn't answer quickly is discarded in favor of the nominal one.
	ProbeTimeout Duration `yaml:"probe_timeout"`
}

// CacheConfig configures the badge result cache.
type CacheConfig struct {
	// TTL is how long a computed member count is served without
	// re-querying the homeserver.
	TTL Duration `yaml:"ttl"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the default configuration. These defaults are a
// complete working configuration; the config file overrides them.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Matrix: MatrixConfig{
			RequestTimeout: Duration(20 * time.Second),
			ProbeTimeout:   Duration(5 * time.Second),
		},
		Cache: CacheConfig{
			TTL: Duration(30 * time.Second),
		},
	}
}

// Load loads configuration from the file named by SHIELDS_CONFIG, or
// returns the defaults when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("SHIELDS_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging over
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, fmt.Errorf("server.listen is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be positive"))
	}
	if c.Matrix.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("matrix.request_timeout must be positive"))
	}
	if c.Matrix.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("matrix.probe_timeout must be positive"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
