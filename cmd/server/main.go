// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package main is the entry point for the Phishstream server.
//
// Phishstream scores URLs for phishing risk with a random forest trained
// on lexical URL features, streams every prediction through an ordered
// in-process channel (or NATS JetStream with -tags nats), and derives a
// live concept-drift signal from the prediction stream.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables over config.yaml over defaults (Koanf v2)
//  2. Model: load a trained artifact, or train the bootstrap corpus at startup
//  3. Stream channel: ordered prediction stream with a circuit-broken producer
//  4. Scoring service: feature extraction, inference, signal overlay
//  5. Supervisor tree: websocket hub, traffic generator, drift monitor, HTTP server
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, then config.yaml, then built-in
// defaults. Common settings:
//
//	export PORT=8080
//	export MODEL_PATH=/data/model.bin     # optional trained artifact
//	export TRAFFIC_ENABLED=true           # synthetic traffic generator
//	export TRAFFIC_DRIFT_VIZ=true         # fast cadence for drift visualization
//	export DRIFT_JITTER=0.1
//	./phishstream
//
// # Build Tags
//
//	go build ./cmd/server               # in-process stream channel
//	go build -tags nats ./cmd/server    # NATS JetStream stream backend
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the supervisor
// tree stops all pipeline workers, the HTTP server drains in-flight
// requests (10s timeout), and the stream channel is closed last so the
// drift monitor can consume any remaining buffered events.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/phishstream/internal/api"
	"github.com/tomtom215/phishstream/internal/classifier"
	"github.com/tomtom215/phishstream/internal/config"
	"github.com/tomtom215/phishstream/internal/drift"
	"github.com/tomtom215/phishstream/internal/logging"
	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/scoring"
	"github.com/tomtom215/phishstream/internal/stream"
	"github.com/tomtom215/phishstream/internal/supervisor"
	"github.com/tomtom215/phishstream/internal/supervisor/services"
	"github.com/tomtom215/phishstream/internal/traffic"
	ws "github.com/tomtom215/phishstream/internal/websocket"
)

// streamBackend is the stream surface main needs, satisfied by both the
// in-process channel and the NATS-backed channel.
type streamBackend interface {
	stream.Producer
	stream.Consumer
	Open() error
	Close() error
	Depth() int64
}

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("topic", cfg.Stream.Topic).
		Bool("traffic", cfg.Traffic.Enabled).
		Msg("Starting Phishstream with supervisor tree")

	model := loadModel(cfg)
	m := metrics.New()
	logger := logging.Logger()

	// Stream backend is selected at build time; see stream_init.go and
	// stream_init_nats.go.
	backend := newStreamBackend(cfg, m, logger)
	defer func() {
		if err := backend.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing stream channel")
		}
	}()

	// The producer side is wrapped in a circuit breaker so a wedged
	// channel sheds publishes instead of stalling scoring.
	producer := stream.NewBreakerProducer(backend, stream.DefaultBreakerConfig(), logger)

	scorer := scoring.NewService(model, producer, m, logger)

	hub := ws.NewHub(logger)
	scorer.SetBroadcaster(hub)

	monitor := drift.NewMonitor(backend, m, logger, drift.Config{
		ConnectRetry: cfg.Drift.ConnectRetry,
		PollWait:     cfg.Drift.PollWait,
		IdleWait:     cfg.Drift.IdleWait,
		Jitter:       cfg.Drift.Jitter,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Pipeline layer services.
	tree.AddPipelineService(hub)
	tree.AddPipelineService(monitor)
	if cfg.Traffic.Enabled {
		generator := traffic.NewGenerator(scorer, m, logger, traffic.Config{
			DriftViz:      cfg.Traffic.DriftViz,
			MinInterval:   cfg.Traffic.MinInterval,
			MaxInterval:   cfg.Traffic.MaxInterval,
			MaliciousBias: cfg.Traffic.MaliciousBias,
			MaxRate:       cfg.Traffic.MaxRate,
			Burst:         cfg.Traffic.Burst,
		})
		tree.AddPipelineService(generator)
		logging.Info().
			Bool("drift_viz", cfg.Traffic.DriftViz).
			Float64("malicious_bias", cfg.Traffic.MaliciousBias).
			Msg("Traffic generator added to supervisor tree")
	} else {
		logging.Info().Msg("Traffic generator disabled (TRAFFIC_ENABLED=false)")
	}

	// API layer services.
	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.API.CORSOrigins
	mwCfg.RateLimitRequests = cfg.API.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.API.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.API.RateLimitDisabled
	if cfg.API.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (API_RATE_LIMIT_DISABLED=true)")
	}

	handler := api.NewHandler(scorer, monitor, backend, hub, logger)
	router := api.NewRouter(handler, api.NewChiMiddleware(mwCfg), m, cfg.Server.StaticDir)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Open the channel before the tree starts so the first predictions
	// are retained for the drift monitor.
	if err := backend.Open(); err != nil {
		logging.Fatal().Err(err).Msg("Failed to open stream channel")
	}
	logging.Info().Str("topic", cfg.Stream.Topic).Msg("Stream channel open")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// loadModel loads the configured artifact, falling back to training the
// bootstrap corpus at startup when no artifact is available.
func loadModel(cfg *config.Config) *classifier.Model {
	trainCfg := classifier.TrainConfig{
		Trees:    cfg.Model.Trees,
		MaxDepth: cfg.Model.MaxDepth,
		MinLeaf:  cfg.Model.MinLeaf,
		Seed:     cfg.Model.Seed,
	}

	if cfg.Model.Path != "" {
		model, err := classifier.Load(cfg.Model.Path)
		if err == nil {
			logging.Info().Str("path", cfg.Model.Path).Msg("Model artifact loaded")
			return model
		}
		logging.Warn().Err(err).Str("path", cfg.Model.Path).
			Msg("Failed to load model artifact, training bootstrap model instead")
	}

	start := time.Now()
	model := classifier.Bootstrap(trainCfg)
	logging.Info().
		Int("trees", trainCfg.Trees).
		Dur("elapsed", time.Since(start)).
		Msg("Bootstrap model trained")
	return model
}
