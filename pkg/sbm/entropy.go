package sbm

import (
	"math"
)

// ent is the per-pair contribution to the degree-corrected SBM entropy
// approximation: -e * ln(e / (ds * dt)) for a positive edge count e between
// blocks with degrees ds and dt, and zero otherwise.
//
// This exact form must be preserved: it can go negative on tiny graphs and
// carries no normalization term, and the hand-calculated values in the tests
// depend on it.
func ent(edges, degreeS, degreeT float64) float64 {
	if edges <= 0 {
		return 0
	}
	return -edges * math.Log(edges/(degreeS*degreeT))
}

// Entropy computes the model entropy for the partition of nodes at the given
// level, i.e. over the pairs of their parent blocks one level up. Each
// unordered pair contributes once; a block's self pair is halved to undo the
// double counting of internal edges.
func (n *Network) Entropy(level int) (float64, error) {
	blockLevel := level + 1
	if err := n.checkLevel(blockLevel); err != nil {
		return 0, err
	}

	// Every cross pair shows up in both endpoint maps and every self pair
	// once with a doubled count, so summing everything and halving applies
	// the right weight to both.
	total := 0.0
	for _, block := range n.nodesAtLevel(blockLevel) {
		counts, err := block.GatherNeighborsAtLevel(blockLevel)
		if err != nil {
			return 0, err
		}
		for _, entry := range sortedCounts(counts) {
			total += ent(float64(entry.count), float64(block.degree), float64(entry.node.degree))
		}
	}
	return total / 2, nil
}
