// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package drift derives a live concept-drift signal from the prediction
// stream. The monitor is the channel's single consumer: it polls for
// batches and overwrites the drift gauge per event, so the exported value
// always reflects the most recently scored URL.
package drift

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/stream"
)

// Monitor states, exposed for health reporting.
const (
	StateConnecting = "connecting"
	StateConnected  = "connected"
)

// Config tunes the monitor's connect and poll behavior.
type Config struct {
	// ConnectRetry is the fixed backoff between Subscribe attempts while
	// the channel is not ready. Default: 5s.
	ConnectRetry time.Duration

	// PollWait bounds how long DequeueBatch waits for events. Default: 100ms.
	PollWait time.Duration

	// IdleWait is the sleep after an empty batch. Default: 100ms.
	IdleWait time.Duration

	// Jitter is the half-width of the uniform noise added to the drift
	// base signal. Default: 0.1. Zero disables jitter.
	Jitter float64
}

// DefaultConfig returns the reference monitor settings.
func DefaultConfig() Config {
	return Config{
		ConnectRetry: 5 * time.Second,
		PollWait:     100 * time.Millisecond,
		IdleWait:     100 * time.Millisecond,
		Jitter:       0.1,
	}
}

// Monitor consumes the prediction stream and maintains the drift gauge.
// It implements suture.Service; the subscription is permanent for the
// service's life, and a lost subscription is fatal to the task (the
// supervisor decides whether to restart).
type Monitor struct {
	cfg      Config
	consumer stream.Consumer
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	state atomic.Value // string
}

// NewMonitor creates a drift monitor over the given consumer.
func NewMonitor(consumer stream.Consumer, m *metrics.Metrics, logger zerolog.Logger, cfg Config) *Monitor {
	if cfg.ConnectRetry <= 0 {
		cfg.ConnectRetry = 5 * time.Second
	}
	if cfg.PollWait <= 0 {
		cfg.PollWait = 100 * time.Millisecond
	}
	if cfg.IdleWait <= 0 {
		cfg.IdleWait = 100 * time.Millisecond
	}

	mon := &Monitor{
		cfg:      cfg,
		consumer: consumer,
		metrics:  m,
		logger:   logger.With().Str("component", "drift").Logger(),
	}
	mon.state.Store(StateConnecting)
	return mon
}

// String names the service in supervisor logs.
func (m *Monitor) String() string {
	return "drift-monitor"
}

// State reports the monitor's connection state.
func (m *Monitor) State() string {
	return m.state.Load().(string)
}

// Serve runs the monitor until the context is canceled or the
// subscription is lost.
func (m *Monitor) Serve(ctx context.Context) error {
	m.state.Store(StateConnecting)

	if err := m.connect(ctx); err != nil {
		return err
	}

	m.state.Store(StateConnected)
	m.logger.Info().Msg("Drift monitor connected to stream")

	return m.poll(ctx)
}

// connect retries Subscribe with a fixed backoff until the channel is
// ready. Unavailability at startup is expected and never surfaced.
func (m *Monitor) connect(ctx context.Context) error {
	for {
		err := m.consumer.Subscribe(ctx)
		if err == nil {
			return nil
		}
		// A restarted monitor finds its previous subscription still
		// attached; reuse it.
		if errors.Is(err, stream.ErrAlreadySubscribed) {
			return nil
		}

		m.logger.Warn().
			Err(err).
			Dur("retry_in", m.cfg.ConnectRetry).
			Msg("Stream not ready, consumer connect retry")

		select {
		case <-time.After(m.cfg.ConnectRetry):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Monitor) poll(ctx context.Context) error {
	for {
		batch, err := m.consumer.DequeueBatch(ctx, m.cfg.PollWait)

		// Process whatever was drained before inspecting the error; a
		// closing channel still hands over its buffered events.
		for i := range batch {
			m.processEvent(&batch[i])
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, stream.ErrSubscriptionLost) {
				return fmt.Errorf("drift monitor subscription lost: %w", err)
			}
			if m.metrics != nil {
				m.metrics.ConsumerErrors.Inc()
			}
			m.logger.Warn().Err(err).Msg("Stream poll failed")
			continue
		}

		if len(batch) == 0 {
			select {
			case <-time.After(m.cfg.IdleWait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// processEvent updates the drift gauge from one event. Failures are
// contained: a panic here is logged and counted, never fatal.
func (m *Monitor) processEvent(ev *stream.Event) {
	defer func() {
		if r := recover(); r != nil {
			if m.metrics != nil {
				m.metrics.ConsumerErrors.Inc()
			}
			m.logger.Error().
				Interface("panic", r).
				Uint64("offset", ev.Offset).
				Msg("Drift computation panicked")
		}
	}()

	score := m.score(ev.Prediction.Probability)
	if m.metrics != nil {
		m.metrics.DriftScore.Set(score)
	}

	m.logger.Debug().
		Uint64("offset", ev.Offset).
		Float64("probability", ev.Prediction.Probability).
		Float64("drift_score", score).
		Msg("Drift score updated")
}

// score derives the gauge value for one prediction: the base signal plus
// uniform jitter, clamped to the reporting range.
func (m *Monitor) score(p float64) float64 {
	s := Compute(p)
	if m.cfg.Jitter > 0 {
		s += (rand.Float64()*2 - 1) * m.cfg.Jitter
	}
	return clampScore(s)
}

// Compute returns the drift base signal for a phishing probability:
// |p - 0.5| * 2, i.e. how far the model's confidence sits from maximal
// uncertainty, scaled to [0, 1].
func Compute(p float64) float64 {
	d := p - 0.5
	if d < 0 {
		d = -d
	}
	return d * 2
}

// clampScore bounds the exported gauge to [0.1, 0.9] so dashboards always
// see a live, non-degenerate signal.
func clampScore(s float64) float64 {
	if s < 0.1 {
		return 0.1
	}
	if s > 0.9 {
		return 0.9
	}
	return s
}
