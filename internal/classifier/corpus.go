// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package classifier

import (
	"fmt"

	"github.com/tomtom215/phishstream/internal/features"
)

// corpusGroupSize is the number of URLs synthesized per template.
const corpusGroupSize = 500

// BootstrapCorpus synthesizes the fixed labeled training corpus: two
// clearly-benign URL templates and two clearly-phishing ones, 500 samples
// each. The corpus is deterministic; it exists to bootstrap a demo-grade
// model, not to represent real traffic.
//
// Labels are 0 for benign, 1 for phishing.
func BootstrapCorpus() (samples []features.Vector, labels []int) {
	samples = make([]features.Vector, 0, 4*corpusGroupSize)
	labels = make([]int, 0, 4*corpusGroupSize)

	add := func(url string, label int) {
		samples = append(samples, features.Extract(url))
		labels = append(labels, label)
	}

	for i := 0; i < corpusGroupSize; i++ {
		add(fmt.Sprintf("https://google.com/search?q=%d", i), 0)
	}
	for i := 0; i < corpusGroupSize; i++ {
		add(fmt.Sprintf("https://wikipedia.org/wiki/%d", i), 0)
	}
	for i := 0; i < corpusGroupSize; i++ {
		add(fmt.Sprintf("http://secure-bank-login-%d.com", i), 1)
	}
	for i := 0; i < corpusGroupSize; i++ {
		add(fmt.Sprintf("http://update-payment-verify-%d.net", i), 1)
	}

	return samples, labels
}

// Bootstrap trains a model on the synthetic corpus. The server uses this
// as a fallback when no model artifact is configured; cmd/train uses it
// to produce the artifact offline.
func Bootstrap(cfg TrainConfig) *Model {
	samples, labels := BootstrapCorpus()
	return Train(samples, labels, cfg)
}
