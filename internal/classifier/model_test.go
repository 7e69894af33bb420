// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package classifier

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/tomtom215/phishstream/internal/features"
)

// testTrainConfig keeps unit test training fast while preserving the
// reference forest behavior.
func testTrainConfig() TrainConfig {
	return TrainConfig{Trees: 10, MaxDepth: 8, MinLeaf: 1, Seed: 42}
}

func TestBootstrapSeparatesCorpus(t *testing.T) {
	model := Bootstrap(testTrainConfig())

	t.Run("phishing corpus samples score above 0.5", func(t *testing.T) {
		urls := []string{
			"http://secure-bank-login-17.com",
			"http://update-payment-verify-203.net",
		}
		for _, u := range urls {
			p := model.PredictProbability(features.Extract(u))
			if p <= 0.5 {
				t.Errorf("PredictProbability(%q) = %f, want > 0.5", u, p)
			}
		}
	})

	t.Run("benign corpus samples score below 0.5", func(t *testing.T) {
		urls := []string{
			"https://google.com/search?q=42",
			"https://wikipedia.org/wiki/137",
		}
		for _, u := range urls {
			p := model.PredictProbability(features.Extract(u))
			if p >= 0.5 {
				t.Errorf("PredictProbability(%q) = %f, want < 0.5", u, p)
			}
		}
	})

	t.Run("probability stays in unit interval", func(t *testing.T) {
		urls := []string{"", "x", "http://192.168.0.1/@login", "https://unknown-site-123.org"}
		for _, u := range urls {
			p := model.PredictProbability(features.Extract(u))
			if p < 0 || p > 1 {
				t.Errorf("PredictProbability(%q) = %f, outside [0,1]", u, p)
			}
		}
	})
}

func TestTrainDeterministic(t *testing.T) {
	samples, labels := BootstrapCorpus()
	cfg := testTrainConfig()

	a := Train(samples, labels, cfg)
	b := Train(samples, labels, cfg)

	var bufA, bufB bytes.Buffer
	if err := a.Encode(&bufA); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := b.Encode(&bufB); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(bufA.Bytes(), bufB.Bytes()) {
		t.Error("training with identical seed produced different models")
	}
}

func TestConcurrentInference(t *testing.T) {
	model := Bootstrap(testTrainConfig())
	vec := features.Extract("http://secure-bank-login-1.com")
	want := model.PredictProbability(vec)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := model.PredictProbability(vec); got != want {
					t.Errorf("concurrent inference returned %f, want %f", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestArtifactRoundtrip(t *testing.T) {
	model := Bootstrap(TrainConfig{Trees: 3, MaxDepth: 4, MinLeaf: 1, Seed: 7})
	path := filepath.Join(t.TempDir(), "model.json")

	if err := model.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	vec := features.Extract("https://google.com/search?q=1")
	if got, want := loaded.PredictProbability(vec), model.PredictProbability(vec); got != want {
		t.Errorf("loaded model predicts %f, original %f", got, want)
	}
}

func TestDecodeValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{
			"wrong version",
			`{"version": 99, "num_features": 10, "trees": [{"nodes": [{"leaf": true, "value": 0.5}]}]}`,
			"unsupported artifact version",
		},
		{
			"wrong feature count",
			`{"version": 1, "num_features": 4, "trees": [{"nodes": [{"leaf": true, "value": 0.5}]}]}`,
			"features",
		},
		{
			"no trees",
			`{"version": 1, "num_features": 10, "trees": []}`,
			"no trees",
		},
		{
			"empty tree",
			`{"version": 1, "num_features": 10, "trees": [{"nodes": []}]}`,
			"no nodes",
		},
		{
			"not json",
			`garbage`,
			"decode",
		},
		{
			"split feature out of range",
			`{"version": 1, "num_features": 10, "trees": [{"nodes": [
				{"feature": 10, "threshold": 1, "left": 1, "right": 2},
				{"leaf": true, "value": 0}, {"leaf": true, "value": 1}]}]}`,
			"splits on feature",
		},
		{
			"negative split feature",
			`{"version": 1, "num_features": 10, "trees": [{"nodes": [
				{"feature": -1, "threshold": 1, "left": 1, "right": 2},
				{"leaf": true, "value": 0}, {"leaf": true, "value": 1}]}]}`,
			"splits on feature",
		},
		{
			"child index out of range",
			`{"version": 1, "num_features": 10, "trees": [{"nodes": [
				{"feature": 0, "threshold": 1, "left": 1, "right": 7},
				{"leaf": true, "value": 0}]}]}`,
			"child index out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.payload))
			if err == nil {
				t.Fatal("expected decode error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestEmptyModelPredictsNeutral(t *testing.T) {
	m := &Model{Version: ArtifactVersion, NumFeatures: features.VectorSize}
	if p := m.PredictProbability(features.Vector{}); p != 0.5 {
		t.Errorf("empty model predicts %f, want neutral 0.5", p)
	}
}
