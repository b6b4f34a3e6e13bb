package sbm

import (
	"math"
)

// MoveResult reports the analytic outcome of a proposed block move.
// EntropyDelta is pre minus post, so a positive value means the move lowers
// the model entropy. ProbRatio is the Hastings ratio q(old|node)/q(new|node)
// evaluated after the hypothetical move.
type MoveResult struct {
	EntropyDelta float64 `json:"entropy_delta"`
	ProbRatio    float64 `json:"prob_ratio"`
	ProbAccept   float64 `json:"prob_of_accept"`
}

func newMoveResult(entropyDelta, probRatio float64) MoveResult {
	return MoveResult{
		EntropyDelta: entropyDelta,
		ProbRatio:    probRatio,
		ProbAccept:   math.Exp(-entropyDelta) * probRatio,
	}
}

// evalMove computes the entropy delta and proposal-probability ratio for
// moving a node from its current block into newBlock, using only the three
// local count maps around the move. Nothing in the network is mutated; the
// maps are updated in place to stand in for the post-move state.
func (n *Network) evalMove(node, newBlock *Node, eps float64) (MoveResult, error) {
	oldBlock := node.parent
	if oldBlock == nil {
		return MoveResult{}, logicErrorf("node %q has no block to move from", node.id)
	}
	if newBlock == oldBlock {
		return newMoveResult(0, 1), nil
	}

	blockLevel := node.level + 1
	nodeDegree := float64(node.degree)
	possibleNeighbors := len(n.levels[blockLevel][node.typeIndex])
	epsB := eps * float64(possibleNeighbors)

	newBlockDegree := float64(newBlock.degree)
	oldBlockDegree := float64(oldBlock.degree)

	nodeCounts, err := node.GatherNeighborsAtLevel(blockLevel)
	if err != nil {
		return MoveResult{}, err
	}
	newCounts, err := newBlock.GatherNeighborsAtLevel(blockLevel)
	if err != nil {
		return MoveResult{}, err
	}
	oldCounts, err := oldBlock.GatherNeighborsAtLevel(blockLevel)
	if err != nil {
		return MoveResult{}, err
	}

	// The degrees of the two blocks involved change under the move; every
	// other block keeps its stored degree.
	blockDegree := func(block *Node) float64 {
		switch block {
		case oldBlock:
			return oldBlockDegree
		case newBlock:
			return newBlockDegree
		default:
			return float64(block.degree)
		}
	}

	// Partial entropy over the pairs touching either block. The (old, new)
	// pair is already counted in the new block's map, and each block's self
	// pair carries the doubled self-loop count, hence the halving.
	partialEntropy := func() float64 {
		sum := 0.0
		for _, entry := range sortedCounts(newCounts) {
			contribution := ent(float64(entry.count), newBlockDegree, blockDegree(entry.node))
			if entry.node == newBlock {
				contribution /= 2
			}
			sum += contribution
		}
		for _, entry := range sortedCounts(oldCounts) {
			if entry.node == newBlock {
				continue
			}
			contribution := ent(float64(entry.count), oldBlockDegree, blockDegree(entry.node))
			if entry.node == oldBlock {
				contribution /= 2
			}
			sum += contribution
		}
		return sum
	}

	// q(target | node) under the current maps: mix the smoothed edge counts
	// of targetCounts over the node's neighbor blocks.
	proposalProb := func(targetCounts EdgeCountMap) float64 {
		prob := 0.0
		for _, entry := range sortedCounts(nodeCounts) {
			tDegree := blockDegree(entry.node)
			edgesToTarget := float64(targetCounts[entry.node])
			prob += float64(entry.count) / nodeDegree * (edgesToTarget + eps) / (tDegree + epsB)
		}
		return prob
	}

	preMoveEntropy := partialEntropy()
	probMoveToNew := proposalProb(newCounts)

	// Shift the node's own edge counts between the two block maps so they
	// describe the network after the move, without touching the network.
	for _, entry := range sortedCounts(nodeCounts) {
		block, count := entry.node, entry.count
		switch block {
		case newBlock:
			newCounts[newBlock] += 2 * count
			newCounts[oldBlock] -= count
			oldCounts[newBlock] -= count
		case oldBlock:
			newCounts[oldBlock] += count
			oldCounts[newBlock] += count
			oldCounts[oldBlock] -= 2 * count
		default:
			newCounts[block] += count
			oldCounts[block] -= count
		}
	}
	newBlockDegree += nodeDegree
	oldBlockDegree -= nodeDegree

	postMoveEntropy := partialEntropy()
	probReturnToOld := proposalProb(oldCounts)

	return newMoveResult(preMoveEntropy-postMoveEntropy, probReturnToOld/probMoveToNew), nil
}
