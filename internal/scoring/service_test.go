// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package scoring

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/classifier"
	"github.com/tomtom215/phishstream/internal/features"
	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/stream"
)

// fixedPredictor always returns the same probability, isolating overlay
// and labeling behavior from forest training.
type fixedPredictor struct {
	p float64
}

func (f fixedPredictor) PredictProbability(features.Vector) float64 {
	return f.p
}

func testService(t *testing.T, p float64) (*Service, *stream.Channel, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	ch := stream.NewChannel(stream.DefaultConfig(), zerolog.Nop(), m)
	t.Cleanup(func() {
		_ = ch.Close()
	})
	svc := NewService(fixedPredictor{p: p}, ch, m, zerolog.Nop())
	return svc, ch, m
}

func counterValue(t *testing.T, m *metrics.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if !labelsMatch(metric, labels) {
				continue
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	got := make(map[string]string, len(metric.GetLabel()))
	for _, lp := range metric.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestScoreMaliciousURL(t *testing.T) {
	svc, ch, m := testService(t, 0.3)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	res := svc.Score(context.Background(), "secure-bank-login-742.com", metrics.SourceAutomated)

	if res.URL != "http://secure-bank-login-742.com" {
		t.Errorf("normalized url = %q", res.URL)
	}
	if res.Probability < 0.85 {
		t.Errorf("probability = %v, want >= 0.85 after malicious floor", res.Probability)
	}
	if res.Label != LabelPhishing {
		t.Errorf("label = %q, want phishing", res.Label)
	}

	got := counterValue(t, m, "phishing_predictions_total",
		map[string]string{"pred_class": "phishing", "source": metrics.SourceAutomated})
	if got != 1 {
		t.Errorf("predictions counter = %v, want 1", got)
	}

	if err := ch.Subscribe(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	events, err := ch.DequeueBatch(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("streamed %d events, want 1", len(events))
	}
	if events[0].Prediction.Label != LabelPhishing || events[0].Offset != 1 {
		t.Errorf("streamed event = %+v", events[0])
	}
}

func TestScoreTrustedURL(t *testing.T) {
	svc, ch, _ := testService(t, 0.9)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	res := svc.Score(context.Background(), "https://google.com/account/login", metrics.SourceUser)

	if res.Probability > 0.15 {
		t.Errorf("probability = %v, want <= 0.15 after trusted cap", res.Probability)
	}
	if res.Label != LabelBenign {
		t.Errorf("label = %q, want benign", res.Label)
	}
}

func TestScoreLabelBoundaryIsStrict(t *testing.T) {
	svc, ch, _ := testService(t, 0.5)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	// No overlay keywords, so the probability stays at exactly 0.5.
	res := svc.Score(context.Background(), "http://example.org/page", metrics.SourceUser)
	if res.Probability != 0.5 {
		t.Fatalf("probability = %v, want 0.5", res.Probability)
	}
	if res.Label != LabelBenign {
		t.Errorf("label at exactly 0.5 = %q, want benign", res.Label)
	}
}

func TestScoreSurvivesClosedChannel(t *testing.T) {
	svc, ch, m := testService(t, 0.3)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	res := svc.Score(context.Background(), "http://example.org", metrics.SourceUser)
	if res.Label != LabelBenign {
		t.Errorf("label = %q, want benign despite enqueue failure", res.Label)
	}

	// Enqueue failure is counted, not surfaced.
	if got := counterValue(t, m, "stream_enqueue_failures_total", map[string]string{"reason": "publish"}); got != 1 {
		t.Errorf("enqueue failure counter = %v, want 1", got)
	}
}

func TestScoreBeforeChannelOpens(t *testing.T) {
	svc, _, m := testService(t, 0.3)

	res := svc.Score(context.Background(), "http://example.org", metrics.SourceUser)
	if res.Label != LabelBenign {
		t.Errorf("label = %q, want benign", res.Label)
	}
	if got := counterValue(t, m, "stream_enqueue_failures_total", map[string]string{"reason": "not_ready"}); got != 1 {
		t.Errorf("not_ready failure counter = %v, want 1", got)
	}
}

func TestScoreMalformedInput(t *testing.T) {
	svc, ch, _ := testService(t, 0.2)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	// Scoring is total: arbitrary garbage still yields a labeled result.
	for _, raw := range []string{"", "   ", "not a url at all \x00", "::::"} {
		res := svc.Score(context.Background(), raw, metrics.SourceUser)
		if res.Label != LabelBenign && res.Label != LabelPhishing {
			t.Errorf("Score(%q) label = %q", raw, res.Label)
		}
		if res.Probability < 0 || res.Probability > 1 {
			t.Errorf("Score(%q) probability = %v outside [0,1]", raw, res.Probability)
		}
	}
}

func TestScoreWithTrainedModel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping forest training in short mode")
	}

	model := classifier.Bootstrap(classifier.TrainConfig{Trees: 10, MaxDepth: 8, MinLeaf: 1, Seed: 42})

	m := metrics.New()
	svc := NewService(model, nil, m, zerolog.Nop())

	phishing := svc.Score(context.Background(), "http://update-payment-verify-512.net", metrics.SourceUser)
	if phishing.Label != LabelPhishing {
		t.Errorf("corpus-style phishing URL labeled %q (p=%v)", phishing.Label, phishing.Probability)
	}

	benign := svc.Score(context.Background(), "https://wikipedia.org/wiki/512", metrics.SourceUser)
	if benign.Label != LabelBenign {
		t.Errorf("corpus-style benign URL labeled %q (p=%v)", benign.Label, benign.Probability)
	}
}
