// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/phishstream/config.yaml",
	"/etc/phishstream/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. Defaults are applied
// first, then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			Timeout:   30 * time.Second,
			StaticDir: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Model: ModelConfig{
			Path:     "",
			Trees:    50,
			MaxDepth: 10,
			MinLeaf:  1,
			Seed:     42,
		},
		Stream: StreamConfig{
			Topic:      "phishing-traffic",
			Partition:  0,
			Capacity:   1024,
			FullPolicy: "block",
		},
		NATS: NATSConfig{
			Enabled:     false,
			URL:         "nats://127.0.0.1:4222",
			Embedded:    true,
			StoreDir:    "/data/nats/jetstream",
			DurableName: "drift-monitor",
		},
		Traffic: TrafficConfig{
			Enabled:       true,
			DriftViz:      true,
			MinInterval:   0, // 0 = mode default
			MaxInterval:   0,
			MaliciousBias: 0.4,
			MaxRate:       20,
			Burst:         5,
		},
		Drift: DriftConfig{
			ConnectRetry: 5 * time.Second,
			PollWait:     100 * time.Millisecond,
			IdleWait:     100 * time.Millisecond,
			Jitter:       0.1,
		},
		API: APIConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when set through environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated strings to slices for the
// known slice fields. Env vars arrive as strings; YAML values are already
// slices and pass through.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths.
//
// Examples:
//   - SERVER_PORT -> server.port
//   - STREAM_FULL_POLICY -> stream.full_policy
//   - PORT -> server.port (platform convention)
//
// Unknown variables map to "" and are skipped, so unrelated environment
// noise cannot pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Platform conventions.
		"port":      "server.port",
		"log_level": "logging.level",

		"server_host":       "server.host",
		"server_port":       "server.port",
		"server_timeout":    "server.timeout",
		"server_static_dir": "server.static_dir",

		"logging_level":  "logging.level",
		"logging_format": "logging.format",
		"logging_caller": "logging.caller",

		"model_path":      "model.path",
		"model_trees":     "model.trees",
		"model_max_depth": "model.max_depth",
		"model_min_leaf":  "model.min_leaf",
		"model_seed":      "model.seed",

		"stream_topic":       "stream.topic",
		"stream_partition":   "stream.partition",
		"stream_capacity":    "stream.capacity",
		"stream_full_policy": "stream.full_policy",

		"nats_enabled":      "nats.enabled",
		"nats_url":          "nats.url",
		"nats_embedded":     "nats.embedded",
		"nats_store_dir":    "nats.store_dir",
		"nats_durable_name": "nats.durable_name",

		"traffic_enabled":        "traffic.enabled",
		"traffic_drift_viz":      "traffic.drift_viz",
		"traffic_min_interval":   "traffic.min_interval",
		"traffic_max_interval":   "traffic.max_interval",
		"traffic_malicious_bias": "traffic.malicious_bias",
		"traffic_max_rate":       "traffic.max_rate",
		"traffic_burst":          "traffic.burst",

		"drift_connect_retry": "drift.connect_retry",
		"drift_poll_wait":     "drift.poll_wait",
		"drift_idle_wait":     "drift.idle_wait",
		"drift_jitter":        "drift.jitter",

		"api_cors_origins":        "api.cors_origins",
		"api_rate_limit_requests": "api.rate_limit_requests",
		"api_rate_limit_window":   "api.rate_limit_window",
		"api_rate_limit_disabled": "api.rate_limit_disabled",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
