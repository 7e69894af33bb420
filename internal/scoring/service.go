// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/phishstream/internal/features"
	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/stream"
)

// Predictor is the inference surface the service needs from a model.
// *classifier.Model satisfies it.
type Predictor interface {
	PredictProbability(v features.Vector) float64
}

// Broadcaster receives scored events for the live feed. The websocket
// hub satisfies it.
type Broadcaster interface {
	BroadcastEvent(ev stream.Event)
}

// Service scores URLs. It is safe for concurrent use; the model is
// immutable and the producer serializes its own sends.
type Service struct {
	model       Predictor
	producer    stream.Producer
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	broadcaster Broadcaster
}

// NewService wires a scoring service. producer may be nil, in which case
// results are not streamed (useful for cmd/train and tests).
func NewService(model Predictor, producer stream.Producer, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		model:    model,
		producer: producer,
		metrics:  m,
		logger:   logger.With().Str("component", "scoring").Logger(),
	}
}

// SetBroadcaster attaches the live feed sink. Call before the pipeline
// starts; not synchronized against concurrent Score calls.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Score classifies one URL. It never returns an error: malformed input
// degrades to a low-signal feature vector and still yields a result. The
// prediction counter and latency histogram are recorded exactly once per
// call; the stream enqueue is fire-and-forget.
func (s *Service) Score(ctx context.Context, rawURL, source string) Result {
	start := time.Now()

	url := NormalizeURL(rawURL)
	vec := features.Extract(url)
	p := s.model.PredictProbability(vec)
	p = Adjust(url, p)

	label := LabelBenign
	if p > 0.5 {
		label = LabelPhishing
	}

	res := Result{
		URL:         url,
		Probability: p,
		Label:       label,
		Source:      source,
	}

	if s.metrics != nil {
		s.metrics.ObservePrediction(label, source, time.Since(start))
	}

	s.publish(ctx, res)
	return res
}

// publish hands the result to the stream channel and the live feed.
// Failures are logged and counted, never surfaced to the caller.
func (s *Service) publish(ctx context.Context, res Result) {
	if s.producer == nil {
		return
	}

	ev, err := s.producer.Enqueue(ctx, stream.Prediction{
		URL:         res.URL,
		Probability: res.Probability,
		Label:       res.Label,
		Source:      res.Source,
	})
	if err != nil {
		reason := enqueueFailureReason(err)
		if s.metrics != nil {
			s.metrics.StreamEnqueueFailures.WithLabelValues(reason).Inc()
		}
		s.logger.Warn().
			Err(err).
			Str("reason", reason).
			Str("url", res.URL).
			Msg("Stream enqueue failed")
		return
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(*ev)
	}
}

func enqueueFailureReason(err error) string {
	switch {
	case errors.Is(err, stream.ErrNotReady):
		return "not_ready"
	case errors.Is(err, stream.ErrFull):
		return "full"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	default:
		return "publish"
	}
}
