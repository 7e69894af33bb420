// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package config loads and validates application configuration with a
// clear precedence: environment variables > optional YAML file > built-in
// defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Model   ModelConfig   `koanf:"model"`
	Stream  StreamConfig  `koanf:"stream"`
	NATS    NATSConfig    `koanf:"nats"`
	Traffic TrafficConfig `koanf:"traffic"`
	Drift   DriftConfig   `koanf:"drift"`
	API     APIConfig     `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string        `koanf:"host"`
	Port      int           `koanf:"port"`
	Timeout   time.Duration `koanf:"timeout"`
	StaticDir string        `koanf:"static_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ModelConfig holds classifier settings. When Path is empty the server
// trains the bootstrap model at startup instead of loading an artifact.
type ModelConfig struct {
	Path     string `koanf:"path"`
	Trees    int    `koanf:"trees"`
	MaxDepth int    `koanf:"max_depth"`
	MinLeaf  int    `koanf:"min_leaf"`
	Seed     uint64 `koanf:"seed"`
}

// StreamConfig holds stream channel settings.
type StreamConfig struct {
	Topic      string `koanf:"topic"`
	Partition  int    `koanf:"partition"`
	Capacity   int    `koanf:"capacity"`
	FullPolicy string `koanf:"full_policy"`
}

// NATSConfig holds the optional JetStream backend settings (only used by
// -tags nats builds).
type NATSConfig struct {
	Enabled     bool   `koanf:"enabled"`
	URL         string `koanf:"url"`
	Embedded    bool   `koanf:"embedded"`
	StoreDir    string `koanf:"store_dir"`
	DurableName string `koanf:"durable_name"`
}

// TrafficConfig holds synthetic traffic generator settings.
type TrafficConfig struct {
	Enabled       bool          `koanf:"enabled"`
	DriftViz      bool          `koanf:"drift_viz"`
	MinInterval   time.Duration `koanf:"min_interval"`
	MaxInterval   time.Duration `koanf:"max_interval"`
	MaliciousBias float64       `koanf:"malicious_bias"`
	MaxRate       float64       `koanf:"max_rate"`
	Burst         int           `koanf:"burst"`
}

// DriftConfig holds drift monitor settings.
type DriftConfig struct {
	ConnectRetry time.Duration `koanf:"connect_retry"`
	PollWait     time.Duration `koanf:"poll_wait"`
	IdleWait     time.Duration `koanf:"idle_wait"`
	Jitter       float64       `koanf:"jitter"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}

	if c.Model.Trees <= 0 {
		return fmt.Errorf("model.trees must be positive, got %d", c.Model.Trees)
	}
	if c.Model.MaxDepth <= 0 {
		return fmt.Errorf("model.max_depth must be positive, got %d", c.Model.MaxDepth)
	}
	if c.Model.MinLeaf <= 0 {
		return fmt.Errorf("model.min_leaf must be positive, got %d", c.Model.MinLeaf)
	}

	if c.Stream.Topic == "" {
		return fmt.Errorf("stream.topic must not be empty")
	}
	switch c.Stream.FullPolicy {
	case "block", "drop":
	default:
		return fmt.Errorf("stream.full_policy %q must be block or drop", c.Stream.FullPolicy)
	}

	if c.Traffic.MaliciousBias < 0 || c.Traffic.MaliciousBias > 1 {
		return fmt.Errorf("traffic.malicious_bias %v out of range [0, 1]", c.Traffic.MaliciousBias)
	}
	if c.Traffic.MinInterval < 0 || c.Traffic.MaxInterval < 0 {
		return fmt.Errorf("traffic intervals must not be negative")
	}
	if c.Traffic.MinInterval > 0 && c.Traffic.MaxInterval > 0 && c.Traffic.MaxInterval < c.Traffic.MinInterval {
		return fmt.Errorf("traffic.max_interval %v below traffic.min_interval %v",
			c.Traffic.MaxInterval, c.Traffic.MinInterval)
	}

	if c.Drift.Jitter < 0 || c.Drift.Jitter > 0.4 {
		return fmt.Errorf("drift.jitter %v out of range [0, 0.4]", c.Drift.Jitter)
	}
	if c.Drift.ConnectRetry <= 0 || c.Drift.PollWait <= 0 || c.Drift.IdleWait <= 0 {
		return fmt.Errorf("drift intervals must be positive")
	}

	if !c.API.RateLimitDisabled && c.API.RateLimitReqs <= 0 {
		return fmt.Errorf("api.rate_limit_requests must be positive, got %d", c.API.RateLimitReqs)
	}

	if c.NATS.Enabled && !c.NATS.Embedded && c.NATS.URL == "" {
		return fmt.Errorf("nats.url required when nats is enabled without an embedded server")
	}

	return nil
}
