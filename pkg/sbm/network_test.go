package sbm

import (
	"errors"
	"fmt"
	"testing"
)

// tinyBipartite is the two-type fixture used across the model tests:
// n1..n3 and m1..m4 with five edges.
func tinyBipartite(t *testing.T, seed int64) *Network {
	t.Helper()

	n := NewNetwork([]string{"n", "m"}, seed)
	for _, id := range []string{"n1", "n2", "n3"} {
		if _, err := n.AddNode(id, "n", 0); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		if _, err := n.AddNode(id, "m", 0); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}

	edges := [][2]string{
		{"n1", "m1"}, {"n1", "m3"},
		{"n2", "m1"},
		{"n3", "m2"}, {"n3", "m3"},
	}
	for _, e := range edges {
		if err := n.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}
	return n
}

func TestAddNode(t *testing.T) {
	n := NewNetwork([]string{"n", "m"}, 42)

	if _, err := n.AddNode("n1", "n", 0); err != nil {
		t.Fatalf("AddNode(n1): %v", err)
	}

	t.Run("DuplicateID", func(t *testing.T) {
		if _, err := n.AddNode("n1", "n", 0); !errors.Is(err, ErrLogic) {
			t.Errorf("duplicate id: got %v, want logic error", err)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		if _, err := n.AddNode("x1", "x", 0); !errors.Is(err, ErrLogic) {
			t.Errorf("unknown type: got %v, want logic error", err)
		}
	})

	t.Run("MissingLevel", func(t *testing.T) {
		if _, err := n.AddNode("n2", "n", 3); !errors.Is(err, ErrRange) {
			t.Errorf("missing level: got %v, want range error", err)
		}
	})
}

func TestAddEdge(t *testing.T) {
	n := tinyBipartite(t, 42)

	if got := n.NEdges(); got != 5 {
		t.Errorf("NEdges() = %d, want 5", got)
	}

	// Degree sum at level 0 equals twice the edge count.
	total := 0
	for _, node := range n.nodesAtLevel(0) {
		total += node.Degree()
	}
	if total != 2*n.NEdges() {
		t.Errorf("degree sum = %d, want %d", total, 2*n.NEdges())
	}

	t.Run("UnknownNode", func(t *testing.T) {
		if err := n.AddEdge("n1", "zz"); !errors.Is(err, ErrLogic) {
			t.Errorf("unknown endpoint: got %v, want logic error", err)
		}
	})

	t.Run("ParallelEdgesKeepMultiplicity", func(t *testing.T) {
		n := tinyBipartite(t, 42)
		if err := n.AddEdge("n1", "m1"); err != nil {
			t.Fatalf("parallel AddEdge: %v", err)
		}
		n1, _ := n.NodeByID("n1")
		if got := len(n1.EdgesToType(1)); got != 3 {
			t.Errorf("n1 edge list length = %d, want 3", got)
		}
		if got := n1.Degree(); got != 3 {
			t.Errorf("n1 degree = %d, want 3", got)
		}
	})
}

func TestAllowedEdgeTypes(t *testing.T) {
	n := NewNetwork([]string{"n", "m"}, 42)
	for _, id := range []string{"n1", "n2"} {
		if _, err := n.AddNode(id, "n", 0); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	if _, err := n.AddNode("m1", "m", 0); err != nil {
		t.Fatalf("AddNode(m1): %v", err)
	}

	if err := n.AllowEdgeBetween("n", "m"); err != nil {
		t.Fatalf("AllowEdgeBetween: %v", err)
	}

	// The permitted pair itself must pass. A historical implementation
	// compared an endpoint's type against itself and rejected exactly this
	// case whenever a type was not self-paired.
	if err := n.AddEdge("n1", "m1"); err != nil {
		t.Errorf("allowed n-m edge rejected: %v", err)
	}

	// A same-type edge outside the relation must fail.
	if err := n.AddEdge("n1", "n2"); !errors.Is(err, ErrLogic) {
		t.Errorf("disallowed n-n edge: got %v, want logic error", err)
	}

	if err := n.AllowEdgeBetween("n", "x"); !errors.Is(err, ErrLogic) {
		t.Errorf("unknown type in AllowEdgeBetween: got %v, want logic error", err)
	}
}

func TestInitializeBlocksOnePerNode(t *testing.T) {
	n := tinyBipartite(t, 42)

	if err := n.InitializeBlocks(-1); err != nil {
		t.Fatalf("InitializeBlocks(-1): %v", err)
	}

	if got := n.NLevels(); got != 2 {
		t.Errorf("NLevels() = %d, want 2", got)
	}
	if got, _ := n.NNodesAtLevel(1); got != 7 {
		t.Errorf("NNodesAtLevel(1) = %d, want 7", got)
	}

	// Every node has its own singleton block with matching degree.
	for _, node := range n.nodesAtLevel(0) {
		if !node.HasParent() {
			t.Fatalf("node %s has no parent after InitializeBlocks", node.ID())
		}
		if node.Parent().NumChildren() != 1 {
			t.Errorf("block of %s has %d children, want 1", node.ID(), node.Parent().NumChildren())
		}
		if node.Parent().Degree() != node.Degree() {
			t.Errorf("block of %s has degree %d, want %d", node.ID(), node.Parent().Degree(), node.Degree())
		}
	}
}

func TestInitializeBlocksRoundRobin(t *testing.T) {
	n := NewNetwork([]string{"a", "b"}, 42)
	for i := 1; i <= 10; i++ {
		if _, err := n.AddNode(fmt.Sprintf("a%d", i), "a", 0); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		if _, err := n.AddNode(fmt.Sprintf("b%d", i), "b", 0); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}

	if err := n.InitializeBlocks(3); err != nil {
		t.Fatalf("InitializeBlocks(3): %v", err)
	}

	if got, _ := n.NNodesAtLevel(1); got != 6 {
		t.Errorf("NNodesAtLevel(1) = %d, want 6", got)
	}

	for _, block := range n.nodesAtLevel(1) {
		if c := block.NumChildren(); c < 3 || c > 4 {
			t.Errorf("block %s has %d children, want 3 or 4 from round-robin", block.ID(), c)
		}
	}
}

func TestInitializeBlocksTooMany(t *testing.T) {
	n := tinyBipartite(t, 42)

	if err := n.InitializeBlocks(4); !errors.Is(err, ErrLogic) {
		t.Errorf("InitializeBlocks(4) with 3 n-nodes: got %v, want logic error", err)
	}
	if n.NLevels() != 1 {
		t.Errorf("failed InitializeBlocks left %d levels, want 1", n.NLevels())
	}
}

func TestDeleteBlockLevel(t *testing.T) {
	n := tinyBipartite(t, 42)

	if err := n.DeleteBlockLevel(); !errors.Is(err, ErrLogic) {
		t.Errorf("DeleteBlockLevel without blocks: got %v, want logic error", err)
	}

	if err := n.InitializeBlocks(-1); err != nil {
		t.Fatalf("InitializeBlocks: %v", err)
	}
	if err := n.DeleteBlockLevel(); err != nil {
		t.Fatalf("DeleteBlockLevel: %v", err)
	}
	if n.NLevels() != 1 {
		t.Errorf("NLevels() = %d, want 1", n.NLevels())
	}
	for _, node := range n.nodesAtLevel(0) {
		if node.HasParent() {
			t.Errorf("node %s still has a parent after DeleteBlockLevel", node.ID())
		}
	}
}

func TestResetBlocks(t *testing.T) {
	n := tinyBipartite(t, 42)
	if err := n.InitializeBlocks(-1); err != nil {
		t.Fatalf("InitializeBlocks: %v", err)
	}
	if err := n.InitializeBlocks(2); err != nil {
		t.Fatalf("InitializeBlocks(2): %v", err)
	}
	if n.NLevels() != 3 {
		t.Fatalf("NLevels() = %d, want 3", n.NLevels())
	}

	n.ResetBlocks()
	if n.NLevels() != 1 {
		t.Errorf("NLevels() after reset = %d, want 1", n.NLevels())
	}
}

func TestRemoveEmptyBlocks(t *testing.T) {
	n := NewNetwork([]string{"a"}, 42)
	for i := 1; i <= 4; i++ {
		if _, err := n.AddNode(fmt.Sprintf("n%d", i), "a", 0); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}

	n.buildLevel()
	n.buildLevel()
	var level1, level2 []*Node
	for i := 1; i <= 4; i++ {
		block, err := n.AddNode(fmt.Sprintf("g1_%d", i), "a", 1)
		if err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		level1 = append(level1, block)
	}
	for i := 1; i <= 2; i++ {
		block, err := n.AddNode(fmt.Sprintf("g2_%d", i), "a", 2)
		if err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		level2 = append(level2, block)
	}

	// Two level-1 blocks stay empty, and one level-2 block holds only one of
	// those empty blocks.
	for i, id := range []string{"n1", "n2", "n3", "n4"} {
		node, _ := n.NodeByID(id)
		if err := n.SetParent(node, level1[i/2]); err != nil {
			t.Fatalf("SetParent: %v", err)
		}
	}
	for i, block := range level1 {
		parent := level2[0]
		if i == 3 {
			parent = level2[1]
		}
		if err := n.SetParent(block, parent); err != nil {
			t.Fatalf("SetParent: %v", err)
		}
	}

	removed := n.removeEmptyBlocks()
	if len(removed) != 3 {
		t.Errorf("first cleanup removed %d blocks (%v), want 3", len(removed), removed)
	}
	if got, _ := n.NNodesAtLevel(1); got != 2 {
		t.Errorf("NNodesAtLevel(1) = %d, want 2", got)
	}
	if got, _ := n.NNodesAtLevel(2); got != 1 {
		t.Errorf("NNodesAtLevel(2) = %d, want 1", got)
	}

	if again := n.removeEmptyBlocks(); len(again) != 0 {
		t.Errorf("second cleanup removed %d blocks, want 0", len(again))
	}
}

func TestNewNetworkWithNodes(t *testing.T) {
	n, err := NewNetworkWithNodes(
		[]string{"n1", "n2", "m1", "m2"},
		[]string{"n", "n", "m", "m"},
		[]string{"n1", "n2"},
		[]string{"m1", "m2"},
		[]string{"n", "m"},
		42,
		[]string{"n"},
		[]string{"m"},
	)
	if err != nil {
		t.Fatalf("NewNetworkWithNodes: %v", err)
	}

	if got := n.NEdges(); got != 2 {
		t.Errorf("NEdges() = %d, want 2", got)
	}
	if got := n.NTypes(); got != 2 {
		t.Errorf("NTypes() = %d, want 2", got)
	}

	if err := n.AddEdge("n1", "n2"); !errors.Is(err, ErrLogic) {
		t.Errorf("constrained n-n edge: got %v, want logic error", err)
	}
}
