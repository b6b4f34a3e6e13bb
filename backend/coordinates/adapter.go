package coordinates

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/jmorrell/sbm-service/pkg/sbm"
)

// BlockGraph is a gonum view of the interblock edge counts at one level,
// with stable int64 ids assigned in sorted block-id order.
type BlockGraph struct {
	Graph   *simple.WeightedUndirectedGraph
	IDOf    map[string]int64
	BlockOf map[int64]string
}

// NewBlockGraph builds the weighted block graph from interblock edge counts.
// Self pairs are skipped; gonum's simple graphs reject self loops and the
// layout only needs between-block structure.
func NewBlockGraph(pairs []sbm.BlockPairCount) *BlockGraph {
	names := make(map[string]bool)
	for _, pair := range pairs {
		names[pair.BlockA] = true
		names[pair.BlockB] = true
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	bg := &BlockGraph{
		Graph:   simple.NewWeightedUndirectedGraph(0, 0),
		IDOf:    make(map[string]int64, len(ordered)),
		BlockOf: make(map[int64]string, len(ordered)),
	}
	for i, name := range ordered {
		id := int64(i)
		bg.IDOf[name] = id
		bg.BlockOf[id] = name
		bg.Graph.AddNode(simple.Node(id))
	}

	for _, pair := range pairs {
		if pair.BlockA == pair.BlockB {
			continue
		}
		bg.Graph.SetWeightedEdge(bg.Graph.NewWeightedEdge(
			simple.Node(bg.IDOf[pair.BlockA]),
			simple.Node(bg.IDOf[pair.BlockB]),
			float64(pair.Count),
		))
	}

	return bg
}

// NodeIDs returns the gonum node ids in ascending order.
func (bg *BlockGraph) NodeIDs() []int64 {
	ids := make([]int64, 0, len(bg.BlockOf))
	for id := range bg.BlockOf {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
