package coordinates

import (
	"math"
	"testing"

	"github.com/jmorrell/sbm-service/pkg/sbm"
)

func testPairs() []sbm.BlockPairCount {
	return []sbm.BlockPairCount{
		{BlockA: "A1", BlockB: "B1", Count: 3},
		{BlockA: "A1", BlockB: "B2", Count: 1},
		{BlockA: "A2", BlockB: "B2", Count: 2},
		{BlockA: "A2", BlockB: "A2", Count: 4},
	}
}

func TestNewBlockGraph(t *testing.T) {
	bg := NewBlockGraph(testPairs())

	if got := len(bg.IDOf); got != 4 {
		t.Fatalf("graph has %d blocks, want 4", got)
	}
	if got := bg.Graph.Edges().Len(); got != 3 {
		t.Errorf("graph has %d edges, want 3 (self pair skipped)", got)
	}

	a1 := bg.IDOf["A1"]
	b1 := bg.IDOf["B1"]
	edge := bg.Graph.WeightedEdge(a1, b1)
	if edge == nil {
		t.Fatal("edge A1-B1 missing")
	}
	if edge.Weight() != 3 {
		t.Errorf("edge A1-B1 weight = %v, want 3", edge.Weight())
	}
}

func TestLayoutCalculator(t *testing.T) {
	bg := NewBlockGraph(testPairs())

	layout, err := NewLayoutCalculator().Calculate(bg)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if len(layout.Coordinates) != 4 {
		t.Fatalf("layout has %d positions, want 4", len(layout.Coordinates))
	}
	for id, pos := range layout.Coordinates {
		if math.IsNaN(pos.X) || math.IsNaN(pos.Y) {
			t.Errorf("block %s placed at NaN", bg.BlockOf[id])
		}
	}

	// Directly connected blocks must land closer than blocks three hops apart.
	dist := func(a, b string) float64 {
		pa := layout.Coordinates[bg.IDOf[a]]
		pb := layout.Coordinates[bg.IDOf[b]]
		return math.Hypot(pa.X-pb.X, pa.Y-pb.Y)
	}
	if dist("A1", "B1") >= dist("B1", "A2") {
		t.Errorf("one-hop pair further apart (%.3f) than three-hop pair (%.3f)",
			dist("A1", "B1"), dist("B1", "A2"))
	}
}

func TestLayoutSingleBlock(t *testing.T) {
	bg := NewBlockGraph([]sbm.BlockPairCount{{BlockA: "A", BlockB: "A", Count: 2}})

	layout, err := NewLayoutCalculator().Calculate(bg)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	pos := layout.Coordinates[bg.IDOf["A"]]
	if pos.X != 0 || pos.Y != 0 {
		t.Errorf("single block at (%v, %v), want origin", pos.X, pos.Y)
	}
}

func TestImportanceCalculator(t *testing.T) {
	bg := NewBlockGraph(testPairs())

	importance, err := NewImportanceCalculator().Calculate(bg)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	total := 0.0
	for _, score := range importance.Scores {
		if score <= 0 {
			t.Errorf("non-positive PageRank score %v", score)
		}
		total += score
	}
	if math.Abs(total-1) > 1e-6 {
		t.Errorf("PageRank scores sum to %v, want 1", total)
	}
	if importance.MinScore > importance.MaxScore {
		t.Errorf("min score %v above max %v", importance.MinScore, importance.MaxScore)
	}
}
