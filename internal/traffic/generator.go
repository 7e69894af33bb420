// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package traffic runs the synthetic traffic generator: a supervised
// background loop that scores template URLs at a configurable cadence so
// the drift gauge and dashboards stay live without real users.
package traffic

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/scoring"
)

// Scorer is the scoring surface the generator drives. *scoring.Service
// satisfies it.
type Scorer interface {
	Score(ctx context.Context, rawURL, source string) scoring.Result
}

// Config tunes the generator's cadence and mix.
type Config struct {
	// DriftViz selects the fast interval defaults (200-800ms) instead of
	// the quiet ones (2-5s). Explicit intervals override either default.
	DriftViz bool

	// MinInterval and MaxInterval bound the uniform sleep between
	// iterations.
	MinInterval time.Duration
	MaxInterval time.Duration

	// MaliciousBias is the probability of synthesizing a phishing-style
	// URL. Default: 0.4.
	MaliciousBias float64

	// MaxRate caps iterations per second regardless of intervals; Burst
	// is the limiter burst size. MaxRate <= 0 disables the cap.
	MaxRate float64
	Burst   int
}

// DefaultConfig returns the drift-viz reference settings.
func DefaultConfig() Config {
	return Config{
		DriftViz:      true,
		MaliciousBias: 0.4,
		MaxRate:       20,
		Burst:         5,
	}
}

// Generator is the supervised traffic loop. Per-iteration failures are
// recovered, logged, and counted; only context cancellation stops it.
type Generator struct {
	cfg     Config
	scorer  Scorer
	metrics *metrics.Metrics
	logger  zerolog.Logger
	limiter *rate.Limiter
}

// NewGenerator creates a generator, resolving interval defaults from the
// mode when not set explicitly.
func NewGenerator(scorer Scorer, m *metrics.Metrics, logger zerolog.Logger, cfg Config) *Generator {
	if cfg.MinInterval <= 0 || cfg.MaxInterval <= 0 {
		if cfg.DriftViz {
			cfg.MinInterval = 200 * time.Millisecond
			cfg.MaxInterval = 800 * time.Millisecond
		} else {
			cfg.MinInterval = 2 * time.Second
			cfg.MaxInterval = 5 * time.Second
		}
	}
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MaxInterval = cfg.MinInterval
	}
	if cfg.MaliciousBias < 0 {
		cfg.MaliciousBias = 0
	}
	if cfg.MaliciousBias > 1 {
		cfg.MaliciousBias = 1
	}

	var limiter *rate.Limiter
	if cfg.MaxRate > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRate), burst)
	}

	return &Generator{
		cfg:     cfg,
		scorer:  scorer,
		metrics: m,
		logger:  logger.With().Str("component", "traffic").Logger(),
		limiter: limiter,
	}
}

// String names the service in supervisor logs.
func (g *Generator) String() string {
	return "traffic-generator"
}

// Serve runs the generator loop until the context is canceled.
func (g *Generator) Serve(ctx context.Context) error {
	mode := "quiet"
	if g.cfg.DriftViz {
		mode = "drift-viz"
	}
	g.logger.Info().
		Str("mode", mode).
		Dur("min_interval", g.cfg.MinInterval).
		Dur("max_interval", g.cfg.MaxInterval).
		Float64("malicious_bias", g.cfg.MaliciousBias).
		Msg("Traffic generator started")

	for {
		if err := g.sleep(ctx); err != nil {
			return err
		}
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
		}

		if err := g.iterate(ctx); err != nil {
			if g.metrics != nil {
				g.metrics.GeneratorIterations.WithLabelValues("error").Inc()
			}
			g.logger.Warn().Err(err).Msg("Traffic iteration failed")
			continue
		}
		if g.metrics != nil {
			g.metrics.GeneratorIterations.WithLabelValues("ok").Inc()
		}
	}
}

// sleep waits a uniform duration in [MinInterval, MaxInterval].
func (g *Generator) sleep(ctx context.Context) error {
	span := g.cfg.MaxInterval - g.cfg.MinInterval
	wait := g.cfg.MinInterval
	if span > 0 {
		wait += time.Duration(rand.Int64N(int64(span)))
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// iterate synthesizes and scores one URL. A panic in the scoring path is
// converted to an error so the loop survives it.
func (g *Generator) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &iterationPanicError{value: r}
		}
	}()

	url := SynthesizeURL(g.cfg.MaliciousBias)
	res := g.scorer.Score(ctx, url, metrics.SourceAutomated)

	g.logger.Debug().
		Str("url", res.URL).
		Str("label", res.Label).
		Float64("probability", res.Probability).
		Msg("Synthetic URL scored")
	return nil
}

type iterationPanicError struct {
	value any
}

func (e *iterationPanicError) Error() string {
	return "traffic iteration panicked"
}
