// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package classifier implements the bagged decision-tree ensemble used to
// score URL feature vectors, together with its JSON artifact format and
// the offline training routine.
//
// A Model is immutable after construction or decode. Inference touches no
// shared mutable state, so a single Model is safe for concurrent
// PredictProbability calls from any number of goroutines.
package classifier

import (
	"github.com/tomtom215/phishstream/internal/features"
)

// Node is one decision node in a tree. Nodes are stored in a flat slice
// and reference children by index, which keeps the artifact compact and
// the decode path allocation-free beyond the slice itself.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int32   `json:"left"`
	Right     int32   `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a single decision tree. Node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Model is a trained ensemble. The probability estimate is the mean of
// the per-tree leaf values (fraction of phishing samples in the leaf).
type Model struct {
	Version     int    `json:"version"`
	NumFeatures int    `json:"num_features"`
	Trees       []Tree `json:"trees"`
}

// PredictProbability returns the model's probability-of-phishing estimate
// for a feature vector, in [0, 1].
//
// Safe for concurrent use; the model is read-only after construction.
func (m *Model) PredictProbability(v features.Vector) float64 {
	if len(m.Trees) == 0 {
		return 0.5
	}
	var sum float64
	for i := range m.Trees {
		sum += m.Trees[i].predict(v)
	}
	return sum / float64(len(m.Trees))
}

func (t *Tree) predict(v features.Vector) float64 {
	idx := int32(0)
	for {
		n := &t.Nodes[idx]
		if n.Leaf {
			return n.Value
		}
		if v[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}
