package sbm

import (
	"context"
	"sort"
)

// MoveRecord is one accepted move: which node moved and where it went.
type MoveRecord struct {
	NodeID     string `json:"node_id"`
	NewBlockID string `json:"new_block_id"`
}

// SweepResult accumulates the outcome of one MCMCSweep call.
type SweepResult struct {
	// EntropyDeltas holds, per sweep, the summed evaluator delta of the
	// accepted moves (positive = entropy went down during the sweep).
	EntropyDeltas []float64 `json:"entropy_deltas"`
	// NNodesMoved holds the number of accepted moves per sweep.
	NNodesMoved []int `json:"n_nodes_moved"`
	// NodesMoved lists every accepted move across all sweeps, in order.
	NodesMoved []MoveRecord `json:"nodes_moved"`
	// RemovedBlocks lists blocks culled by the end-of-sweep cleanup when
	// variableNumBlocks is on.
	RemovedBlocks []string `json:"removed_blocks,omitempty"`
	// PairCounts counts, per unordered node pair "a--b", how many sweeps
	// ended with the two nodes sharing a block. Only filled when trackPairs
	// is on.
	PairCounts map[string]int `json:"pairing_counts,omitempty"`
}

// MCMCSweep runs nSweeps Metropolis-Hastings passes over the nodes at the
// given level, each node getting one propose-and-decide opportunity per
// sweep against the blocks one level up. Accepted moves mutate the hierarchy
// immediately, so later nodes in the same sweep see the updated counts.
//
// The context is probed between sweeps; on cancellation the work done so far
// is returned along with the context error.
func (n *Network) MCMCSweep(ctx context.Context, level, nSweeps int, eps float64, variableNumBlocks, trackPairs, verbose bool) (*SweepResult, error) {
	blockLevel := level + 1
	if err := n.checkLevel(blockLevel); err != nil {
		return nil, err
	}

	result := &SweepResult{
		EntropyDeltas: make([]float64, 0, nSweeps),
		NNodesMoved:   make([]int, 0, nSweeps),
	}
	if trackPairs {
		result.PairCounts = make(map[string]int)
	}

	for sweep := 0; sweep < nSweeps; sweep++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		nodes := n.nodesAtLevel(level)
		n.sampler.ShuffleNodes(nodes)

		sweepDelta := 0.0
		sweepMoves := 0

		for _, node := range nodes {
			candidate, err := n.proposeMove(node, blockLevel, eps, variableNumBlocks)
			if err != nil {
				return result, err
			}
			if candidate == node.parent {
				continue
			}

			moveResult, err := n.evalMove(node, candidate, eps)
			if err != nil {
				return result, err
			}

			// Written as a positive comparison so a NaN acceptance
			// probability (possible for isolated nodes, whose proposal
			// probabilities vanish on both sides) rejects the move.
			if !(n.sampler.UniformUnit() < moveResult.ProbAccept) {
				continue
			}

			if err := n.SetParent(node, candidate); err != nil {
				return result, err
			}
			sweepDelta += moveResult.EntropyDelta
			sweepMoves++
			result.NodesMoved = append(result.NodesMoved, MoveRecord{
				NodeID:     node.id,
				NewBlockID: candidate.id,
			})
		}

		result.EntropyDeltas = append(result.EntropyDeltas, sweepDelta)
		result.NNodesMoved = append(result.NNodesMoved, sweepMoves)

		if variableNumBlocks {
			result.RemovedBlocks = append(result.RemovedBlocks, n.removeEmptyBlocks()...)
		}

		if trackPairs {
			n.recordPairs(level, result.PairCounts)
		}

		if verbose {
			n.logger.Info().
				Int("sweep", sweep+1).
				Int("moves", sweepMoves).
				Float64("entropy_delta", sweepDelta).
				Msg("MCMC sweep finished")
		} else {
			n.logger.Debug().
				Int("sweep", sweep+1).
				Int("moves", sweepMoves).
				Msg("MCMC sweep finished")
		}
	}

	return result, nil
}

// recordPairs increments the co-membership counter of every unordered pair
// of level nodes that currently share a parent block.
func (n *Network) recordPairs(level int, counts map[string]int) {
	groups := make(map[*Node][]string)
	for _, node := range n.nodesAtLevel(level) {
		if node.parent != nil {
			groups[node.parent] = append(groups[node.parent], node.id)
		}
	}

	for _, ids := range groups {
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				counts[ids[i]+"--"+ids[j]]++
			}
		}
	}
}
