package sbm

import (
	"math"
	"testing"
)

func TestEvalMoveSameBlockShortCircuits(t *testing.T) {
	n := tinyBipartite(t, 42)
	if err := n.InitializeBlocks(-1); err != nil {
		t.Fatalf("InitializeBlocks: %v", err)
	}

	n1, _ := n.NodeByID("n1")
	result, err := n.evalMove(n1, n1.Parent(), 0.1)
	if err != nil {
		t.Fatalf("evalMove: %v", err)
	}
	if result.EntropyDelta != 0 || result.ProbRatio != 1 {
		t.Errorf("same-block move = (%v, %v), want (0, 1)", result.EntropyDelta, result.ProbRatio)
	}
}

func TestEvalMoveMatchesFullEntropy(t *testing.T) {
	n := tinyBipartite(t, 42)
	if err := n.InitializeBlocks(-1); err != nil {
		t.Fatalf("InitializeBlocks: %v", err)
	}

	n1, _ := n.NodeByID("n1")
	n2, _ := n.NodeByID("n2")

	before, err := n.Entropy(0)
	if err != nil {
		t.Fatalf("Entropy before: %v", err)
	}

	result, err := n.evalMove(n2, n1.Parent(), 0.1)
	if err != nil {
		t.Fatalf("evalMove: %v", err)
	}

	if err := n.SetParent(n2, n1.Parent()); err != nil {
		t.Fatalf("SetParent: %v", err)
	}

	after, err := n.Entropy(0)
	if err != nil {
		t.Fatalf("Entropy after: %v", err)
	}

	if diff := math.Abs((before - after) - result.EntropyDelta); diff > 1e-9 {
		t.Errorf("evaluator delta %.9f differs from true delta %.9f by %.2e",
			result.EntropyDelta, before-after, diff)
	}
}

// TestEvalMoveDeltaConsistency moves every node to random same-type blocks
// over several sweeps and checks the analytic delta against a full entropy
// recomputation for every move.
func TestEvalMoveDeltaConsistency(t *testing.T) {
	fixtures := map[string]func(*testing.T) *Network{
		"Bipartite": func(t *testing.T) *Network {
			n := tinyBipartite(t, 314)
			if err := n.InitializeBlocks(2); err != nil {
				t.Fatalf("InitializeBlocks: %v", err)
			}
			return n
		},
		"Unipartite": func(t *testing.T) *Network {
			n := NewNetwork([]string{"u"}, 314)
			ids := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
			for _, id := range ids {
				if _, err := n.AddNode(id, "u", 0); err != nil {
					t.Fatalf("AddNode: %v", err)
				}
			}
			edges := [][2]string{
				{"u1", "u2"}, {"u1", "u3"}, {"u2", "u3"},
				{"u3", "u4"},
				{"u4", "u5"}, {"u4", "u6"}, {"u5", "u6"},
			}
			for _, e := range edges {
				if err := n.AddEdge(e[0], e[1]); err != nil {
					t.Fatalf("AddEdge: %v", err)
				}
			}
			if err := n.InitializeBlocks(3); err != nil {
				t.Fatalf("InitializeBlocks: %v", err)
			}
			return n
		},
	}

	for name, build := range fixtures {
		t.Run(name, func(t *testing.T) {
			n := build(t)
			random := NewSampler(312)
			sawNonzero := false

			for sweep := 0; sweep < 2; sweep++ {
				for _, node := range n.nodesAtLevel(0) {
					blocks := n.levels[1][node.Type()]
					target := random.sampleNode(blocks)
					if target == node.Parent() {
						continue
					}

					before, err := n.Entropy(0)
					if err != nil {
						t.Fatalf("Entropy: %v", err)
					}

					result, err := n.evalMove(node, target, 0.1)
					if err != nil {
						t.Fatalf("evalMove(%s): %v", node.ID(), err)
					}

					if err := n.SetParent(node, target); err != nil {
						t.Fatalf("SetParent: %v", err)
					}

					after, err := n.Entropy(0)
					if err != nil {
						t.Fatalf("Entropy: %v", err)
					}

					trueDelta := before - after
					if trueDelta != 0 {
						sawNonzero = true
					}
					if diff := math.Abs(trueDelta - result.EntropyDelta); diff > 1e-6 {
						t.Errorf("move %s -> %s: analytic delta %.9f vs true %.9f",
							node.ID(), target.ID(), result.EntropyDelta, trueDelta)
					}
				}
			}

			if !sawNonzero {
				t.Error("every move had zero delta; fixture exercises nothing")
			}
		})
	}
}

func TestEvalMoveAcceptProbability(t *testing.T) {
	n := tinyBipartite(t, 42)
	if err := n.InitializeBlocks(-1); err != nil {
		t.Fatalf("InitializeBlocks: %v", err)
	}

	n1, _ := n.NodeByID("n1")
	n2, _ := n.NodeByID("n2")

	result, err := n.evalMove(n2, n1.Parent(), 0.1)
	if err != nil {
		t.Fatalf("evalMove: %v", err)
	}

	want := math.Exp(-result.EntropyDelta) * result.ProbRatio
	if math.Abs(result.ProbAccept-want) > 1e-12 {
		t.Errorf("ProbAccept = %v, want exp(-delta)*ratio = %v", result.ProbAccept, want)
	}
	if result.ProbRatio <= 0 {
		t.Errorf("ProbRatio = %v, want positive", result.ProbRatio)
	}
}
