// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package drift

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/metrics"
	"github.com/tomtom215/phishstream/internal/stream"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		p    float64
		want float64
	}{
		{0.5, 0},
		{0.0, 1},
		{1.0, 1},
		{0.75, 0.5},
		{0.25, 0.5},
		{0.9, 0.8},
	}
	for _, tt := range tests {
		if got := Compute(tt.p); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("Compute(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestScoreStaysInReportingRange(t *testing.T) {
	mon := NewMonitor(nil, nil, zerolog.Nop(), DefaultConfig())
	for i := 0; i < 1000; i++ {
		s := mon.score(rand.Float64())
		if s < 0.1 || s > 0.9 {
			t.Fatalf("score %v outside [0.1, 0.9]", s)
		}
	}
}

func TestScoreClampsUncertainPrediction(t *testing.T) {
	// Jitter disabled: p = 0.5 gives a base signal of 0, clamped up to the
	// gauge floor.
	cfg := DefaultConfig()
	cfg.Jitter = 0
	mon := NewMonitor(nil, nil, zerolog.Nop(), cfg)

	if got := mon.score(0.5); got != 0.1 {
		t.Errorf("score(0.5) = %v, want 0.1", got)
	}
	if got := mon.score(0.0); got != 0.9 {
		t.Errorf("score(0.0) = %v, want 0.9", got)
	}
}

func driftGauge(t *testing.T, m *metrics.Metrics) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == "model_drift_score" {
			return fam.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("model_drift_score not found")
	return 0
}

func fastConfig() Config {
	return Config{
		ConnectRetry: 20 * time.Millisecond,
		PollWait:     20 * time.Millisecond,
		IdleWait:     10 * time.Millisecond,
		Jitter:       0,
	}
}

func TestMonitorLastEventWins(t *testing.T) {
	m := metrics.New()
	ch := stream.NewChannel(stream.DefaultConfig(), zerolog.Nop(), m)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ch.Close()

	// Five events; only the last one's probability should survive on the
	// gauge. With jitter off, p=0.9 maps to exactly 0.8.
	ctx := context.Background()
	for _, p := range []float64{0.5, 0.2, 0.7, 0.1, 0.9} {
		if _, err := ch.Enqueue(ctx, stream.Prediction{URL: "http://example.org", Probability: p, Label: "benign"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	mon := NewMonitor(ch, m, zerolog.Nop(), fastConfig())
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- mon.Serve(runCtx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mon.State() == StateConnected && driftGauge(t, m) == 0.8 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := driftGauge(t, m); got != 0.8 {
		t.Errorf("drift gauge = %v, want 0.8 (last event wins)", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on cancellation")
	}
}

func TestMonitorRetriesUntilChannelOpens(t *testing.T) {
	m := metrics.New()
	ch := stream.NewChannel(stream.DefaultConfig(), zerolog.Nop(), m)
	defer ch.Close()

	mon := NewMonitor(ch, m, zerolog.Nop(), fastConfig())
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- mon.Serve(runCtx)
	}()

	// The monitor must sit in connecting while the channel is closed to
	// subscribers, then attach once it opens.
	time.Sleep(60 * time.Millisecond)
	if mon.State() != StateConnecting {
		t.Fatalf("state before open = %q, want connecting", mon.State())
	}

	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && mon.State() != StateConnected {
		time.Sleep(10 * time.Millisecond)
	}
	if mon.State() != StateConnected {
		t.Fatal("monitor never connected after channel opened")
	}

	if _, err := ch.Enqueue(runCtx, stream.Prediction{URL: "http://example.org", Probability: 0.9}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && driftGauge(t, m) != 0.8 {
		time.Sleep(10 * time.Millisecond)
	}
	if got := driftGauge(t, m); got != 0.8 {
		t.Errorf("drift gauge = %v, want 0.8", got)
	}
}

func TestMonitorFatalOnSubscriptionLoss(t *testing.T) {
	m := metrics.New()
	ch := stream.NewChannel(stream.DefaultConfig(), zerolog.Nop(), m)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	mon := NewMonitor(ch, m, zerolog.Nop(), fastConfig())
	done := make(chan error, 1)
	go func() {
		done <- mon.Serve(context.Background())
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && mon.State() != StateConnected {
		time.Sleep(10 * time.Millisecond)
	}

	if err := ch.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Error("Serve returned nil after subscription loss, want error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not exit after channel close")
	}
}
