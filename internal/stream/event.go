// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package stream provides the ordered event channel connecting the scoring
// service (producer side) to the drift monitor (consumer side).
//
// The default backend is an in-process ordered queue standing in for a
// broker topic. Building with -tags nats replaces it with NATS JetStream
// through Watermill. Either way the channel presents a single synthetic
// topic/partition, assigns strictly increasing offsets at enqueue, and
// delivers events FIFO to exactly one consumer.
package stream

import (
	"time"
)

// Prediction is the scored payload carried by a stream event. It mirrors
// the scoring result without importing the scoring package, keeping the
// wire type free of upstream dependencies.
type Prediction struct {
	URL         string  `json:"url"`
	Probability float64 `json:"probability"`
	Label       string  `json:"prediction"`
	Source      string  `json:"source"`
}

// Event wraps a Prediction with its synthetic broker coordinates. Offsets
// are unique and strictly increasing for the process lifetime; the
// topic/partition pair is fixed per channel.
type Event struct {
	ID         string     `json:"id"`
	Topic      string     `json:"topic"`
	Partition  int        `json:"partition"`
	Offset     uint64     `json:"offset"`
	Prediction Prediction `json:"payload"`
	ScoredAt   time.Time  `json:"scored_at"`
}
