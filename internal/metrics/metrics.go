// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package metrics provides Prometheus instrumentation for the scoring
// pipeline: prediction counters, inference latency, the live drift gauge,
// stream channel depth, and background loop error counters.
//
// All collectors live on an explicitly constructed registry owned by the
// Metrics value; there are no package-level collectors. The registry is
// exposed through Handler() for the /metrics endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prediction source label values.
const (
	SourceUser      = "user"
	SourceAutomated = "automated_traffic"
)

// Metrics holds all pipeline collectors. Construct with New; every
// component receives it by reference at startup.
type Metrics struct {
	registry *prometheus.Registry

	// PredictionsTotal counts scored URLs by (pred_class, source).
	PredictionsTotal *prometheus.CounterVec

	// PredictionLatency observes wall-clock scoring duration.
	PredictionLatency prometheus.Histogram

	// DriftScore is the current concept drift gauge, always in [0.1, 0.9].
	DriftScore prometheus.Gauge

	// StreamDepth tracks events enqueued but not yet consumed.
	StreamDepth prometheus.Gauge

	// StreamEnqueued counts events accepted by the stream channel.
	StreamEnqueued prometheus.Counter

	// StreamEnqueueFailures counts producer-side send failures by reason.
	StreamEnqueueFailures *prometheus.CounterVec

	// GeneratorIterations counts traffic generator iterations by outcome.
	GeneratorIterations *prometheus.CounterVec

	// ConsumerErrors counts per-event failures in the drift monitor.
	ConsumerErrors prometheus.Counter

	// APIRequestsTotal counts HTTP requests by method, endpoint, status.
	APIRequestsTotal *prometheus.CounterVec

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration *prometheus.HistogramVec
}

// New creates a Metrics value with its own registry (plus the standard Go
// and process collectors).
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		PredictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishing_predictions_total",
				Help: "Total predictions",
			},
			[]string{"pred_class", "source"},
		),

		PredictionLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "prediction_latency_seconds",
				Help:    "Time taken for prediction",
				Buckets: prometheus.DefBuckets,
			},
		),

		DriftScore: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "model_drift_score",
				Help: "Current concept drift score",
			},
		),

		StreamDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "stream_channel_depth",
				Help: "Events enqueued on the stream channel but not yet consumed",
			},
		),

		StreamEnqueued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stream_events_enqueued_total",
				Help: "Total events accepted by the stream channel",
			},
		),

		StreamEnqueueFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stream_enqueue_failures_total",
				Help: "Producer-side stream send failures",
			},
			[]string{"reason"}, // "not_ready", "full", "breaker_open", "publish"
		),

		GeneratorIterations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traffic_generator_iterations_total",
				Help: "Traffic generator iterations by outcome",
			},
			[]string{"outcome"}, // "ok", "error"
		),

		ConsumerErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "drift_consumer_errors_total",
				Help: "Per-event processing failures in the drift monitor",
			},
		),

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "endpoint"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePrediction records the counter and latency side effects for one
// scoring call. Called exactly once per call, before the stream enqueue.
func (m *Metrics) ObservePrediction(label, source string, elapsed time.Duration) {
	m.PredictionLatency.Observe(elapsed.Seconds())
	m.PredictionsTotal.WithLabelValues(label, source).Inc()
}
