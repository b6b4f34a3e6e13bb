package sbm

import (
	"math/rand"
)

// Sampler wraps a seeded PRNG so every stochastic decision in the model goes
// through one deterministic source. Two samplers built with the same seed
// produce identical sequences across all operations.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler seeded with the given value.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// UniformUnit draws a single sample from a uniform distribution on [0, 1).
func (s *Sampler) UniformUnit() float64 {
	return s.rng.Float64()
}

// UniformInt draws a uniform integer from [0, max] inclusive.
func (s *Sampler) UniformInt(max int) int {
	return s.rng.Intn(max + 1)
}

// Shuffle shuffles n elements in place through the swap callback.
func (s *Sampler) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// ShuffleNodes shuffles a node slice in place.
func (s *Sampler) ShuffleNodes(nodes []*Node) {
	s.rng.Shuffle(len(nodes), func(i, j int) {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	})
}

// WeightedChoice picks an index with probability proportional to its weight.
// Weights are normalized internally; they need not sum to one.
func (s *Sampler) WeightedChoice(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return s.UniformInt(len(weights) - 1)
	}

	target := s.UniformUnit() * total
	running := 0.0
	for i, w := range weights {
		running += w
		if target < running {
			return i
		}
	}
	return len(weights) - 1
}

// sampleNode picks a uniformly random element of a node slice.
func (s *Sampler) sampleNode(nodes []*Node) *Node {
	return nodes[s.UniformInt(len(nodes)-1)]
}

// sampleFromBuckets picks a uniformly random element across a slice of
// per-type buckets by drawing a flat index and walking the buckets.
func (s *Sampler) sampleFromBuckets(buckets [][]*Node) *Node {
	n := 0
	for _, bucket := range buckets {
		n += len(bucket)
	}
	if n == 0 {
		return nil
	}

	idx := s.UniformInt(n - 1)
	for _, bucket := range buckets {
		if idx < len(bucket) {
			return bucket[idx]
		}
		idx -= len(bucket)
	}
	return nil
}
