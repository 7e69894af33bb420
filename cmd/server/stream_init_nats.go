// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

//go:build nats

package main

import (
	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/config"
	"github.com/tomtom215/phishstream/internal/logging"
	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/stream"
)

// newStreamBackend returns the JetStream-backed channel when NATS is
// enabled, otherwise the in-process ordered channel.
func newStreamBackend(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) streamBackend {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS stream backend disabled (NATS_ENABLED=false); using in-process channel")
		return stream.NewChannel(streamConfig(cfg), logger, m)
	}

	natsCfg := stream.DefaultNATSConfig()
	natsCfg.Embedded = cfg.NATS.Embedded
	if cfg.NATS.URL != "" {
		natsCfg.URL = cfg.NATS.URL
	}
	if cfg.NATS.StoreDir != "" {
		natsCfg.StoreDir = cfg.NATS.StoreDir
	}
	if cfg.NATS.DurableName != "" {
		natsCfg.DurableName = cfg.NATS.DurableName
	}

	logging.Info().
		Bool("embedded", natsCfg.Embedded).
		Str("url", natsCfg.URL).
		Msg("Using NATS JetStream stream backend")
	return stream.NewNATSChannel(streamConfig(cfg), natsCfg, logger, m, logging.NewWatermillAdapter(logger))
}

func streamConfig(cfg *config.Config) stream.Config {
	sc := stream.DefaultConfig()
	sc.Topic = cfg.Stream.Topic
	sc.Partition = cfg.Stream.Partition
	if cfg.Stream.Capacity > 0 {
		sc.Capacity = cfg.Stream.Capacity
	}
	if cfg.Stream.FullPolicy == "drop" {
		sc.FullPolicy = stream.PolicyDrop
	}
	return sc
}
