package sbm

import (
	"errors"
	"math"
	"testing"
)

func TestEntropySingletonPartition(t *testing.T) {
	n := tinyBipartite(t, 42)
	if err := n.InitializeBlocks(-1); err != nil {
		t.Fatalf("InitializeBlocks: %v", err)
	}

	// With one block per node the pair counts equal the data edges:
	//   (n1,m1): -1*ln(1/(2*2)) = ln 4
	//   (n1,m3): ln 4
	//   (n2,m1): -1*ln(1/(1*2)) = ln 2
	//   (n3,m2): ln 2
	//   (n3,m3): ln 4
	want := 3*math.Log(4) + 2*math.Log(2)

	got, err := n.Entropy(0)
	if err != nil {
		t.Fatalf("Entropy: %v", err)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Entropy(0) = %.9f, want %.9f", got, want)
	}
}

func TestEntropyTwoBlockPartition(t *testing.T) {
	n := tinyBipartite(t, 42)

	dump := StateDump{
		IDs:     []string{"n1", "n2", "n3", "m1", "m2", "m3", "m4"},
		Types:   []string{"n", "n", "n", "m", "m", "m", "m"},
		Parents: []string{"N", "N", "N", "M", "M", "M", "M"},
		Levels:  []int{0, 0, 0, 0, 0, 0, 0},
	}
	if err := n.UpdateState(dump); err != nil {
		t.Fatalf("UpdateState: %v", err)
	}

	// One block per type: e = 5, d_N = d_M = 5, ent = -5*ln(5/25) = 5*ln 5.
	want := 5 * math.Log(5)

	got, err := n.Entropy(0)
	if err != nil {
		t.Fatalf("Entropy: %v", err)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Entropy(0) = %.9f, want %.9f", got, want)
	}
}

func TestEntropySelfPairHalved(t *testing.T) {
	n := NewNetwork([]string{"u"}, 42)
	for _, id := range []string{"u1", "u2", "u3"} {
		if _, err := n.AddNode(id, "u", 0); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	for _, e := range [][2]string{{"u1", "u2"}, {"u1", "u3"}, {"u2", "u3"}} {
		if err := n.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}

	dump := StateDump{
		IDs:     []string{"u1", "u2", "u3"},
		Types:   []string{"u", "u", "u"},
		Parents: []string{"A", "A", "B"},
		Levels:  []int{0, 0, 0},
	}
	if err := n.UpdateState(dump); err != nil {
		t.Fatalf("UpdateState: %v", err)
	}

	// A = {u1, u2} with degree 4, B = {u3} with degree 2. The internal
	// u1-u2 edge shows up doubled in A's self pair and is halved back:
	//   ent(2, 4, 4)/2 + ent(2, 4, 2) = ln 8 + 2*ln 4
	want := -2*math.Log(2.0/16.0)/2 - 2*math.Log(2.0/8.0)

	got, err := n.Entropy(0)
	if err != nil {
		t.Fatalf("Entropy: %v", err)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Entropy(0) = %.9f, want %.9f", got, want)
	}
}

func TestEntropyMissingLevel(t *testing.T) {
	n := tinyBipartite(t, 42)
	if _, err := n.Entropy(0); !errors.Is(err, ErrRange) {
		t.Errorf("Entropy without blocks: got %v, want range error", err)
	}
}

func TestEntFunction(t *testing.T) {
	if got := ent(0, 3, 4); got != 0 {
		t.Errorf("ent(0, ...) = %v, want 0", got)
	}
	if got := ent(2, 2, 2); math.Abs(got-2*math.Log(2)) > 1e-12 {
		t.Errorf("ent(2,2,2) = %v, want 2*ln 2", got)
	}
	// The approximation may legitimately go negative when the count
	// exceeds the degree product; that must not be clamped.
	if got := ent(4, 1, 2); got >= 0 {
		t.Errorf("ent(4,1,2) = %v, want negative", got)
	}
}
