// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

//go:build !nats

package main

import (
	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/config"
	"github.com/tomtom215/phishstream/internal/logging"
	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/stream"
)

// newStreamBackend returns the in-process ordered channel. This is the
// default backend; build with -tags nats for JetStream.
func newStreamBackend(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) streamBackend {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED is set but this binary was built without -tags nats; using in-process channel")
	}
	return stream.NewChannel(streamConfig(cfg), logger, m)
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
