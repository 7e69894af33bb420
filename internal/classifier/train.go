// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package classifier

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/tomtom215/phishstream/internal/features"
)

// TrainConfig controls forest shape and reproducibility.
type TrainConfig struct {
	// Trees is the ensemble size. Default: 50.
	Trees int

	// MaxDepth limits tree depth. Default: 10.
	MaxDepth int

	// MinLeaf is the minimum number of samples in a leaf. Default: 1.
	MinLeaf int

	// Seed makes training deterministic. Default: 42.
	Seed uint64
}

// DefaultTrainConfig returns the reference forest shape.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Trees:    50,
		MaxDepth: 10,
		MinLeaf:  1,
		Seed:     42,
	}
}

// Train builds a bagged decision-tree ensemble from labeled feature
// vectors. Labels are 0 (benign) or 1 (phishing). Each tree is grown on a
// bootstrap resample with a random subset of sqrt(VectorSize) features
// considered per split, using Gini impurity.
//
// Training is deterministic for a given config and sample order.
func Train(samples []features.Vector, labels []int, cfg TrainConfig) *Model {
	if cfg.Trees <= 0 {
		cfg.Trees = 50
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 1
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	featuresPerSplit := int(math.Sqrt(float64(features.VectorSize)))
	if featuresPerSplit < 1 {
		featuresPerSplit = 1
	}

	model := &Model{
		Version:     ArtifactVersion,
		NumFeatures: features.VectorSize,
		Trees:       make([]Tree, 0, cfg.Trees),
	}

	for i := 0; i < cfg.Trees; i++ {
		// Bootstrap resample with replacement.
		indices := make([]int, len(samples))
		for j := range indices {
			indices[j] = rng.IntN(len(samples))
		}

		b := &treeBuilder{
			samples:          samples,
			labels:           labels,
			rng:              rng,
			maxDepth:         cfg.MaxDepth,
			minLeaf:          cfg.MinLeaf,
			featuresPerSplit: featuresPerSplit,
		}
		b.grow(indices, 0)
		model.Trees = append(model.Trees, Tree{Nodes: b.nodes})
	}

	return model
}

type treeBuilder struct {
	samples          []features.Vector
	labels           []int
	rng              *rand.Rand
	maxDepth         int
	minLeaf          int
	featuresPerSplit int
	nodes            []Node
}

// grow appends the subtree for the given sample indices and returns the
// index of its root node.
func (b *treeBuilder) grow(indices []int, depth int) int32 {
	positive := 0
	for _, i := range indices {
		positive += b.labels[i]
	}

	pure := positive == 0 || positive == len(indices)
	if pure || depth >= b.maxDepth || len(indices) < 2*b.minLeaf {
		return b.leaf(positive, len(indices))
	}

	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return b.leaf(positive, len(indices))
	}

	var left, right []int
	for _, i := range indices {
		if b.samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.minLeaf || len(right) < b.minLeaf {
		return b.leaf(positive, len(indices))
	}

	// Reserve the split node before growing children so child indices
	// are known relative to it.
	nodeIdx := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Feature: feature, Threshold: threshold})
	b.nodes[nodeIdx].Left = b.grow(left, depth+1)
	b.nodes[nodeIdx].Right = b.grow(right, depth+1)
	return nodeIdx
}

func (b *treeBuilder) leaf(positive, total int) int32 {
	value := 0.5
	if total > 0 {
		value = float64(positive) / float64(total)
	}
	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Leaf: true, Value: value})
	return idx
}

// bestSplit evaluates candidate thresholds on a random feature subset and
// returns the split with the lowest weighted Gini impurity. ok is false
// when no candidate separates the samples.
func (b *treeBuilder) bestSplit(indices []int) (feature int, threshold float64, ok bool) {
	candidates := b.rng.Perm(features.VectorSize)[:b.featuresPerSplit]

	bestGini := math.Inf(1)
	for _, f := range candidates {
		values := make([]float64, 0, len(indices))
		for _, i := range indices {
			values = append(values, b.samples[i][f])
		}
		sort.Float64s(values)

		for j := 1; j < len(values); j++ {
			if values[j] == values[j-1] {
				continue
			}
			t := (values[j] + values[j-1]) / 2
			g := b.splitGini(indices, f, t)
			if g < bestGini {
				bestGini = g
				feature = f
				threshold = t
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (b *treeBuilder) splitGini(indices []int, feature int, threshold float64) float64 {
	var leftN, leftPos, rightN, rightPos int
	for _, i := range indices {
		if b.samples[i][feature] <= threshold {
			leftN++
			leftPos += b.labels[i]
		} else {
			rightN++
			rightPos += b.labels[i]
		}
	}
	total := float64(leftN + rightN)
	return float64(leftN)/total*gini(leftPos, leftN) +
		float64(rightN)/total*gini(rightPos, rightN)
}

func gini(positive, total int) float64 {
	if total == 0 {
		return 0
	}
	p := float64(positive) / float64(total)
	return 2 * p * (1 - p)
}
