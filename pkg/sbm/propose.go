package sbm

import (
	"fmt"
)

// proposeMove samples a candidate block for a node using the two-stage
// neighborhood scheme: pick one of the node's edges at random, look up the
// endpoint's block t at blockLevel, then either take a block reached through
// one of t's edges or, with probability eps*B / (degree(t) + eps*B), fall
// back to a uniformly random block of the node's type. The fallback is what
// lets the chain escape local optima; with variableNumBlocks it may also
// mint a brand-new singleton block.
//
// The resulting distribution over candidates r is
//
//	q(r | node) = sum_t (e_{node,t} / d_node) * (e_{t,r} + eps) / (d_t + eps*B)
//
// which is the closed form the move evaluator uses for both directions.
func (n *Network) proposeMove(node *Node, blockLevel int, eps float64, variableNumBlocks bool) (*Node, error) {
	if err := n.checkLevel(blockLevel); err != nil {
		return nil, err
	}

	typeBlocks := n.levels[blockLevel][node.typeIndex]
	numBlocks := len(typeBlocks)

	if numBlocks == 0 {
		if variableNumBlocks {
			return n.newSingletonBlock(node.typeIndex, blockLevel)
		}
		return nil, logicErrorf("no blocks of type %q at level %d to propose from", n.types[node.typeIndex], blockLevel)
	}

	neighbor := n.sampler.sampleFromBuckets(node.edges)
	if neighbor == nil {
		// Isolated node: the neighborhood term vanishes, only the uniform
		// branch remains.
		return n.uniformBlock(typeBlocks, numBlocks, blockLevel, node.typeIndex, variableNumBlocks)
	}

	neighborBlock, err := neighbor.ParentAtLevel(blockLevel)
	if err != nil {
		return nil, err
	}

	epsB := eps * float64(numBlocks)
	if n.sampler.UniformUnit() < epsB/(float64(neighborBlock.degree)+epsB) {
		return n.uniformBlock(typeBlocks, numBlocks, blockLevel, node.typeIndex, variableNumBlocks)
	}

	// Follow one of t's edges back to a node of the mover's type; its block
	// is the candidate. This realizes the e_{t,r}-proportional part of the
	// proposal without materializing a weight vector.
	candidates := neighborBlock.EdgesToType(node.typeIndex)
	if len(candidates) == 0 {
		return n.uniformBlock(typeBlocks, numBlocks, blockLevel, node.typeIndex, variableNumBlocks)
	}
	return n.sampler.sampleNode(candidates).ParentAtLevel(blockLevel)
}

// uniformBlock draws uniformly among the blocks of one type, with one extra
// slot for a freshly created block when variableNumBlocks allows it.
func (n *Network) uniformBlock(typeBlocks []*Node, numBlocks, blockLevel, typeIdx int, variableNumBlocks bool) (*Node, error) {
	if variableNumBlocks {
		idx := n.sampler.UniformInt(numBlocks)
		if idx == numBlocks {
			return n.newSingletonBlock(typeIdx, blockLevel)
		}
		return typeBlocks[idx], nil
	}
	return typeBlocks[n.sampler.UniformInt(numBlocks-1)], nil
}

// newSingletonBlock appends an empty block of the given type at a block
// level. It starts with no children; if the proposed move is rejected the
// end-of-sweep cleanup removes it again.
func (n *Network) newSingletonBlock(typeIdx, blockLevel int) (*Node, error) {
	id := fmt.Sprintf("b_%d", n.blockCounter)
	n.blockCounter++
	return n.AddNode(id, n.types[typeIdx], blockLevel)
}
