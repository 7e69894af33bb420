// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package stream

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker guarding the enqueue path.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker. Default: 5.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before probing.
	// Default: 10s.
	OpenTimeout time.Duration
}

// DefaultBreakerConfig returns the reference breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		OpenTimeout:         10 * time.Second,
	}
}

// BreakerProducer wraps a Producer with a circuit breaker so a wedged or
// persistently failing channel cannot slow the scoring path. Producing is
// fire-and-forget; when the breaker is open the enqueue fails fast and the
// caller logs and moves on.
type BreakerProducer struct {
	inner   Producer
	breaker *gobreaker.CircuitBreaker[*Event]
}

// NewBreakerProducer wraps inner with a breaker per cfg.
func NewBreakerProducer(inner Producer, cfg BreakerConfig, logger zerolog.Logger) *BreakerProducer {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "stream-producer",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Stream producer breaker state change")
		},
		IsSuccessful: func(err error) bool {
			// ErrNotReady is expected before the channel opens; counting
			// it would hold the breaker open through startup.
			return err == nil || errors.Is(err, ErrNotReady)
		},
	}

	return &BreakerProducer{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*Event](settings),
	}
}

// Enqueue forwards to the wrapped producer under breaker protection.
func (b *BreakerProducer) Enqueue(ctx context.Context, p Prediction) (*Event, error) {
	return b.breaker.Execute(func() (*Event, error) {
		return b.inner.Enqueue(ctx, p)
	})
}

// State reports the breaker state, for health reporting.
func (b *BreakerProducer) State() gobreaker.State {
	return b.breaker.State()
}
