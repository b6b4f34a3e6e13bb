package coordinates

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// ImportanceResult contains PageRank scores for the blocks of a block graph.
type ImportanceResult struct {
	Scores   map[int64]float64
	MinScore float64
	MaxScore float64
}

// ImportanceCalculator scores blocks by PageRank over the block graph.
type ImportanceCalculator struct {
	dampingFactor float64
	tolerance     float64
}

// NewImportanceCalculator creates a PageRank calculator with standard
// parameters.
func NewImportanceCalculator() *ImportanceCalculator {
	return &ImportanceCalculator{
		dampingFactor: 0.85,
		tolerance:     1e-6,
	}
}

// WithDampingFactor sets the damping factor.
func (ic *ImportanceCalculator) WithDampingFactor(factor float64) *ImportanceCalculator {
	ic.dampingFactor = factor
	return ic
}

// Calculate computes PageRank scores for every block.
func (ic *ImportanceCalculator) Calculate(bg *BlockGraph) (*ImportanceResult, error) {
	ids := bg.NodeIDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("block graph has no nodes")
	}

	scores := network.PageRank(ic.toDirected(bg), ic.dampingFactor, ic.tolerance)
	if len(scores) == 0 {
		return nil, fmt.Errorf("PageRank computation returned no scores")
	}

	result := &ImportanceResult{
		Scores:   scores,
		MinScore: math.Inf(1),
		MaxScore: math.Inf(-1),
	}
	for _, score := range scores {
		if score < result.MinScore {
			result.MinScore = score
		}
		if score > result.MaxScore {
			result.MaxScore = score
		}
	}
	return result, nil
}

// toDirected mirrors every undirected weighted edge in both directions, which
// is what gonum's PageRank expects.
func (ic *ImportanceCalculator) toDirected(bg *BlockGraph) *simple.WeightedDirectedGraph {
	directed := simple.NewWeightedDirectedGraph(0, math.Inf(1))

	for _, id := range bg.NodeIDs() {
		directed.AddNode(simple.Node(id))
	}

	edges := bg.Graph.WeightedEdges()
	for edges.Next() {
		edge := edges.WeightedEdge()
		from, to := edge.From().ID(), edge.To().ID()
		directed.SetWeightedEdge(directed.NewWeightedEdge(simple.Node(from), simple.Node(to), edge.Weight()))
		directed.SetWeightedEdge(directed.NewWeightedEdge(simple.Node(to), simple.Node(from), edge.Weight()))
	}

	return directed
}
