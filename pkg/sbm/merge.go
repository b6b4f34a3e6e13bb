package sbm

import (
	"context"
	"math"
	"sort"
)

// MergeStep reports one agglomerative merge pass: the blocks merged away,
// the blocks they were absorbed into, and the resulting change in model
// entropy (positive when entropy rose, as merging almost always makes the
// fit coarser).
type MergeStep struct {
	EntropyDelta float64  `json:"entropy_delta"`
	NBlocks      int      `json:"n_blocks"`
	MergeFrom    []string `json:"from"`
	MergeInto    []string `json:"into"`
}

// CollapseStep is the per-step record of a CollapseBlocks run.
type CollapseStep struct {
	NBlocks      int       `json:"n_blocks"`
	EntropyDelta float64   `json:"entropy_delta"`
	MergeFrom    []string  `json:"from,omitempty"`
	MergeInto    []string  `json:"into,omitempty"`
	State        StateDump `json:"state,omitempty"`
}

// CollapseResult is the outcome of collapsing a level down to a target
// number of blocks.
type CollapseResult struct {
	EntropyDelta float64        `json:"entropy_delta"`
	FinalEntropy float64        `json:"final_entropy"`
	NBlocks      int            `json:"n_blocks"`
	Steps        []CollapseStep `json:"steps"`
}

// mergeCandidate scores one potential absorption of block from into block
// into. delta uses the evaluator convention (pre minus post), so higher is
// better.
type mergeCandidate struct {
	from  *Node
	into  *Node
	delta float64
}

// AgglomerativeMerge runs a single merge pass over the blocks at blockLevel:
// every block samples up to nChecksPerBlock same-type merge partners through
// the move proposer, candidates are scored analytically with the move
// evaluator, and the best nMergesToMake merges are applied greedily, never
// touching a block twice in one pass.
//
// blockLevel must be the topmost level; the pass temporarily builds a
// meta level of singleton blocks above it so a merge can be scored as a
// block-level move, and removes it again before returning.
func (n *Network) AgglomerativeMerge(blockLevel, nMergesToMake, nChecksPerBlock int, eps float64) (*MergeStep, error) {
	if blockLevel < 1 {
		return nil, logicErrorf("agglomerative merge requires a block level, got %d", blockLevel)
	}
	if err := n.checkLevel(blockLevel); err != nil {
		return nil, err
	}
	if blockLevel != len(n.levels)-1 {
		return nil, logicErrorf("agglomerative merge must run on the top block level")
	}

	// One singleton meta block per block: moving block b to b's partner's
	// meta block is then exactly the merge, and the evaluator scores it
	// from local counts alone.
	if err := n.InitializeBlocks(-1); err != nil {
		return nil, err
	}
	metaLevel := blockLevel + 1

	var candidates []mergeCandidate
	for _, block := range n.nodesAtLevel(blockLevel) {
		checked := make(map[*Node]bool)
		for check := 0; check < nChecksPerBlock; check++ {
			metaCandidate, err := n.proposeMove(block, metaLevel, eps, false)
			if err != nil {
				return nil, err
			}
			if metaCandidate == block.parent || len(metaCandidate.children) == 0 {
				continue
			}
			partner := metaCandidate.children[0]
			if checked[partner] {
				continue
			}
			checked[partner] = true

			moveResult, err := n.evalMove(block, metaCandidate, eps)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, mergeCandidate{
				from:  block,
				into:  partner,
				delta: moveResult.EntropyDelta,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].delta > candidates[j].delta
	})

	step := &MergeStep{}
	consumed := make(map[*Node]bool)
	for _, candidate := range candidates {
		if len(step.MergeFrom) >= nMergesToMake {
			break
		}
		if consumed[candidate.from] || consumed[candidate.into] {
			continue
		}

		if err := n.applyMerge(candidate.from, candidate.into); err != nil {
			return nil, err
		}
		consumed[candidate.from] = true
		consumed[candidate.into] = true
		step.EntropyDelta += -candidate.delta
		step.MergeFrom = append(step.MergeFrom, candidate.from.id)
		step.MergeInto = append(step.MergeInto, candidate.into.id)
	}

	if err := n.DeleteBlockLevel(); err != nil {
		return nil, err
	}

	nBlocks, err := n.NNodesAtLevel(blockLevel)
	if err != nil {
		return nil, err
	}
	step.NBlocks = nBlocks

	n.logger.Debug().
		Int("block_level", blockLevel).
		Int("merges", len(step.MergeFrom)).
		Int("n_blocks", step.NBlocks).
		Float64("entropy_delta", step.EntropyDelta).
		Msg("Agglomerative merge pass finished")

	return step, nil
}

// applyMerge reparents every child of from into into, then deletes from.
func (n *Network) applyMerge(from, into *Node) error {
	children := append([]*Node(nil), from.children...)
	for _, child := range children {
		if err := child.setParent(into); err != nil {
			return err
		}
	}
	return n.deleteBlock(from)
}

// CollapseBlocks repeatedly merges the blocks above nodeLevel until only
// bEnd remain, running nMCMCSweeps equilibration sweeps after each merge
// pass. sigma controls greediness: above one, a step merges a
// sigma-determined fraction of the current blocks at once; at or below one
// it merges a single pair per step.
//
// With allowExhaustive false, a target below the number of node types is a
// logic error since same-type merging cannot go below one block per type.
// With it true the run simply stops once no further merge is possible.
func (n *Network) CollapseBlocks(ctx context.Context, nodeLevel, bEnd, nChecksPerBlock, nMCMCSweeps int, sigma, eps float64, reportAllSteps, allowExhaustive bool) (*CollapseResult, error) {
	if err := n.checkLevel(nodeLevel); err != nil {
		return nil, err
	}
	if bEnd < 1 {
		return nil, logicErrorf("target block count must be positive, got %d", bEnd)
	}
	if !allowExhaustive && bEnd < n.NTypes() {
		return nil, logicErrorf("cannot collapse %d types below %d blocks without exhaustive mode", n.NTypes(), bEnd)
	}

	blockLevel := nodeLevel + 1
	if len(n.levels) <= blockLevel {
		if err := n.InitializeBlocks(-1); err != nil {
			return nil, err
		}
	}

	initialEntropy, err := n.Entropy(nodeLevel)
	if err != nil {
		return nil, err
	}

	result := &CollapseResult{}

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		nBlocks, err := n.NNodesAtLevel(blockLevel)
		if err != nil {
			return nil, err
		}
		if nBlocks <= bEnd {
			break
		}

		nMerges := 1
		if sigma > 1 {
			nMerges = int(math.Ceil(float64(nBlocks) * (1 - 1/sigma)))
			if nMerges < 1 {
				nMerges = 1
			}
		}
		if nMerges > nBlocks-bEnd {
			nMerges = nBlocks - bEnd
		}

		mergeStep, err := n.AgglomerativeMerge(blockLevel, nMerges, nChecksPerBlock, eps)
		if err != nil {
			return nil, err
		}
		if len(mergeStep.MergeFrom) == 0 {
			// No merge partner could be found; with exhaustive mode the
			// floor of one block per type has been reached.
			break
		}

		stepDelta := mergeStep.EntropyDelta

		if nMCMCSweeps > 0 {
			sweepResult, err := n.MCMCSweep(ctx, nodeLevel, nMCMCSweeps, eps, true, false, false)
			if err != nil {
				return result, err
			}
			for _, delta := range sweepResult.EntropyDeltas {
				stepDelta += -delta
			}
		}

		nBlocks, err = n.NNodesAtLevel(blockLevel)
		if err != nil {
			return nil, err
		}

		step := CollapseStep{
			NBlocks:      nBlocks,
			EntropyDelta: stepDelta,
		}
		if reportAllSteps {
			step.MergeFrom = mergeStep.MergeFrom
			step.MergeInto = mergeStep.MergeInto
			state, err := n.State()
			if err != nil {
				return nil, err
			}
			step.State = state
		}
		result.Steps = append(result.Steps, step)
		result.EntropyDelta += stepDelta

		n.logger.Debug().
			Int("n_blocks", nBlocks).
			Float64("entropy_delta", stepDelta).
			Msg("Collapse step finished")
	}

	finalEntropy, err := n.Entropy(nodeLevel)
	if err != nil {
		return nil, err
	}
	result.FinalEntropy = finalEntropy
	result.EntropyDelta = finalEntropy - initialEntropy

	nBlocks, err := n.NNodesAtLevel(blockLevel)
	if err != nil {
		return nil, err
	}
	result.NBlocks = nBlocks

	n.logger.Info().
		Int("n_blocks", result.NBlocks).
		Float64("final_entropy", result.FinalEntropy).
		Float64("entropy_delta", result.EntropyDelta).
		Msg("Collapse finished")

	return result, nil
}
