// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package main trains the bootstrap phishing classifier and writes the
// model artifact consumed by the server's MODEL_PATH setting.
//
// Usage:
//
//	go run ./cmd/train -out model.json
//	go run ./cmd/train -out model.json -trees 100 -depth 12
package main

import (
	"flag"
	"time"

	"github.com/tomtom215/phishstream/internal/classifier"
	"github.com/tomtom215/phishstream/internal/logging"
)

func main() {
	var (
		out     = flag.String("out", "model.json", "output path for the model artifact")
		trees   = flag.Int("trees", 50, "number of trees in the forest")
		depth   = flag.Int("depth", 10, "maximum tree depth")
		minLeaf = flag.Int("min-leaf", 1, "minimum samples per leaf")
		seed    = flag.Uint64("seed", 42, "training RNG seed")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})

	cfg := classifier.TrainConfig{
		Trees:    *trees,
		MaxDepth: *depth,
		MinLeaf:  *minLeaf,
		Seed:     *seed,
	}

	samples, labels := classifier.BootstrapCorpus()
	logging.Info().
		Int("samples", len(samples)).
		Int("trees", cfg.Trees).
		Int("max_depth", cfg.MaxDepth).
		Msg("Training classifier on bootstrap corpus")

	start := time.Now()
	model := classifier.Train(samples, labels, cfg)
	elapsed := time.Since(start)

	// Training-set accuracy is a sanity check on the forest, not an
	// estimate of generalization.
	correct := 0
	for i, v := range samples {
		p := model.PredictProbability(v)
		predicted := 0
		if p > 0.5 {
			predicted = 1
		}
		if predicted == labels[i] {
			correct++
		}
	}
	accuracy := float64(correct) / float64(len(samples))

	logging.Info().
		Dur("elapsed", elapsed).
		Float64("train_accuracy", accuracy).
		Msg("Training complete")

	if err := model.Save(*out); err != nil {
		logging.Fatal().Err(err).Str("path", *out).Msg("Failed to save model artifact")
	}
	logging.Info().Str("path", *out).Msg("Model artifact saved")
}
