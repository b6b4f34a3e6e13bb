package coordinates

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/mds"
)

// Position is a 2D coordinate.
type Position struct {
	X, Y float64
}

// LayoutResult contains the 2D embedding of a block graph.
type LayoutResult struct {
	Coordinates map[int64]Position
	MinX, MaxX  float64
	MinY, MaxY  float64
}

// LayoutCalculator places blocks in the plane with classical multidimensional
// scaling over shortest-path distances.
type LayoutCalculator struct {
	maxDistance float64
}

// NewLayoutCalculator creates a layout calculator.
func NewLayoutCalculator() *LayoutCalculator {
	return &LayoutCalculator{maxDistance: 10.0}
}

// WithMaxDistance sets the distance assigned to unreachable block pairs.
func (lc *LayoutCalculator) WithMaxDistance(d float64) *LayoutCalculator {
	lc.maxDistance = d
	return lc
}

// Calculate computes 2D coordinates for every block in the graph.
func (lc *LayoutCalculator) Calculate(bg *BlockGraph) (*LayoutResult, error) {
	ids := bg.NodeIDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("block graph has no nodes")
	}

	if len(ids) == 1 {
		return &LayoutResult{
			Coordinates: map[int64]Position{ids[0]: {X: 0, Y: 0}},
		}, nil
	}

	dist := lc.distanceMatrix(bg, ids)

	var coords mat.Dense
	var eigenvals []float64
	k, err := mds.TorgersonScaling(&coords, eigenvals, dist)
	if err != nil {
		return nil, fmt.Errorf("Torgerson scaling failed: %v", err)
	}
	if k == 0 {
		return nil, fmt.Errorf("no positive eigenvalues found in MDS")
	}

	_, cols := coords.Dims()

	result := &LayoutResult{Coordinates: make(map[int64]Position, len(ids))}
	first := true
	for i, id := range ids {
		x := coords.At(i, 0)
		y := 0.0
		if cols > 1 {
			y = coords.At(i, 1)
		}
		result.Coordinates[id] = Position{X: x, Y: y}

		if first {
			result.MinX, result.MaxX = x, x
			result.MinY, result.MaxY = y, y
			first = false
			continue
		}
		if x < result.MinX {
			result.MinX = x
		}
		if x > result.MaxX {
			result.MaxX = x
		}
		if y < result.MinY {
			result.MinY = y
		}
		if y > result.MaxY {
			result.MaxY = y
		}
	}

	return result, nil
}

// distanceMatrix computes BFS hop distances between every pair of blocks,
// with unreachable pairs pushed out to maxDistance.
func (lc *LayoutCalculator) distanceMatrix(bg *BlockGraph, ids []int64) *mat.SymDense {
	n := len(ids)
	dist := mat.NewSymDense(n, nil)

	for i, source := range ids {
		distances := lc.bfsDistances(bg, source)
		for j := i + 1; j < n; j++ {
			d, ok := distances[ids[j]]
			if !ok {
				d = lc.maxDistance
			}
			dist.SetSym(i, j, d)
		}
	}

	return dist
}

func (lc *LayoutCalculator) bfsDistances(bg *BlockGraph, source int64) map[int64]float64 {
	distances := map[int64]float64{source: 0}
	queue := []int64{source}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbors := bg.Graph.From(current)
		for neighbors.Next() {
			next := neighbors.Node().ID()
			if _, seen := distances[next]; seen {
				continue
			}
			distances[next] = distances[current] + 1
			queue = append(queue, next)
		}
	}

	return distances
}
