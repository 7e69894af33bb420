// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package classifier

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/phishstream/internal/features"
)

// ArtifactVersion is the current model artifact format version.
const ArtifactVersion = 1

// ErrEmptyModel is returned when decoding an artifact with no trees.
var ErrEmptyModel = errors.New("classifier: model artifact contains no trees")

// Encode writes the model as a JSON artifact.
func (m *Model) Encode(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}
	return nil
}

// Save writes the model artifact to a file.
func (m *Model) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck // write errors surface from Encode

	return m.Encode(f)
}

// Decode reads and validates a JSON model artifact.
func Decode(r io.Reader) (*Model, error) {
	m := &Model{}
	if err := json.NewDecoder(r).Decode(m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if m.Version != ArtifactVersion {
		return nil, fmt.Errorf("classifier: unsupported artifact version %d (want %d)", m.Version, ArtifactVersion)
	}
	if m.NumFeatures != features.VectorSize {
		return nil, fmt.Errorf("classifier: artifact expects %d features, extractor produces %d", m.NumFeatures, features.VectorSize)
	}
	if len(m.Trees) == 0 {
		return nil, ErrEmptyModel
	}
	for i := range m.Trees {
		nodes := m.Trees[i].Nodes
		if len(nodes) == 0 {
			return nil, fmt.Errorf("classifier: tree %d has no nodes", i)
		}
		// Internal nodes must stay inside the vector and the node slice,
		// or the first inference on a corrupt artifact panics.
		for j := range nodes {
			n := &nodes[j]
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= m.NumFeatures {
				return nil, fmt.Errorf("classifier: tree %d node %d splits on feature %d (model has %d)",
					i, j, n.Feature, m.NumFeatures)
			}
			if n.Left < 0 || int(n.Left) >= len(nodes) || n.Right < 0 || int(n.Right) >= len(nodes) {
				return nil, fmt.Errorf("classifier: tree %d node %d child index out of range [0, %d)",
					i, j, len(nodes))
			}
		}
	}
	return m, nil
}

// Load reads a model artifact from a file.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	return Decode(f)
}
