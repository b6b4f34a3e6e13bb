package sbm

import (
	"sort"
)

// NoParent marks the topmost layer in a state dump.
const NoParent = "none"

// StateDump is a flat export of the hierarchy: four equal-length columns
// sorted by ascending level. It is both the wire format for callers and the
// file format if serialized.
type StateDump struct {
	IDs     []string `json:"id"`
	Types   []string `json:"type"`
	Parents []string `json:"parent"`
	Levels  []int    `json:"level"`
}

// Size returns the number of rows in the dump.
func (s StateDump) Size() int { return len(s.IDs) }

// State exports the current hierarchy. Rows cover every level; within a
// level rows are ordered by type then id so a dump is stable across
// rebuilds of the same partition.
func (n *Network) State() (StateDump, error) {
	if !n.HasBlocks() {
		return StateDump{}, logicErrorf("no state to export, add blocks first")
	}

	dump := StateDump{
		IDs:     make([]string, 0, n.NNodes()),
		Types:   make([]string, 0, n.NNodes()),
		Parents: make([]string, 0, n.NNodes()),
		Levels:  make([]int, 0, n.NNodes()),
	}

	for level := range n.levels {
		for typeIdx, bucket := range n.levels[level] {
			ordered := append([]*Node(nil), bucket...)
			sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })

			for _, node := range ordered {
				parent := NoParent
				if node.parent != nil {
					parent = node.parent.id
				}
				dump.IDs = append(dump.IDs, node.id)
				dump.Types = append(dump.Types, n.types[typeIdx])
				dump.Parents = append(dump.Parents, parent)
				dump.Levels = append(dump.Levels, level)
			}
		}
	}

	return dump, nil
}

// UpdateState erases all block levels and rebuilds them from a dump. Rows
// are replayed grouped by ascending level; a parent id not yet seen at its
// level is created on first reference.
func (n *Network) UpdateState(dump StateDump) error {
	if len(dump.IDs) != len(dump.Types) || len(dump.IDs) != len(dump.Parents) || len(dump.IDs) != len(dump.Levels) {
		return logicErrorf("state columns differ in length")
	}

	// Validate the data rows before touching the hierarchy so a bad dump
	// leaves the network unchanged.
	order := make([]int, len(dump.IDs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return dump.Levels[order[a]] < dump.Levels[order[b]] })

	for _, i := range order {
		if dump.Levels[i] == 0 {
			if _, ok := n.byID[dump.IDs[i]]; !ok {
				return logicErrorf("node %q in state is not present in network", dump.IDs[i])
			}
		}
		if _, err := n.typeIndexOf(dump.Types[i]); err != nil {
			return err
		}
	}

	n.ResetBlocks()

	// Nodes at the level currently being replayed, and the blocks created
	// as their parents. On a level change the blocks become the nodes.
	nodeByID := make(map[string]*Node, len(n.byID))
	for id, node := range n.byID {
		nodeByID[id] = node
	}
	blockByID := make(map[string]*Node)

	lastLevel := 0
	for _, i := range order {
		id, parent, typeName, level := dump.IDs[i], dump.Parents[i], dump.Types[i], dump.Levels[i]

		if level != lastLevel {
			nodeByID = blockByID
			blockByID = make(map[string]*Node)
			lastLevel = level
		}

		current, ok := nodeByID[id]
		if !ok {
			return logicErrorf("node %q in state is not present in network at level %d", id, level)
		}

		if parent == NoParent {
			continue
		}

		parentNode, ok := blockByID[parent]
		if !ok {
			if len(n.levels) <= level+1 {
				n.buildLevel()
			}
			created, err := n.AddNode(parent, typeName, level+1)
			if err != nil {
				return err
			}
			blockByID[parent] = created
			parentNode = created
		}

		if err := current.setParent(parentNode); err != nil {
			return err
		}
	}

	return nil
}

// TypeCount pairs a type name with a count of blocks.
type TypeCount struct {
	Type  string `json:"type_id"`
	Count int    `json:"count"`
}

// BlockCounts returns the number of blocks per type at the first block
// level.
func (n *Network) BlockCounts() ([]TypeCount, error) {
	if !n.HasBlocks() {
		return nil, logicErrorf("network has no blocks")
	}

	counts := make([]TypeCount, 0, len(n.types))
	for typeIdx, name := range n.types {
		counts = append(counts, TypeCount{Type: name, Count: len(n.levels[1][typeIdx])})
	}
	return counts, nil
}

// BlockPairCount is the number of edges between one unordered pair of
// blocks. A and B may be equal; the count of a self pair includes both
// endpoints of every internal edge.
type BlockPairCount struct {
	BlockA string `json:"block_a"`
	BlockB string `json:"block_b"`
	Count  int    `json:"n_edges"`
}

// InterblockEdgeCounts returns edge counts between every connected pair of
// blocks at a level, each unordered pair reported once.
func (n *Network) InterblockEdgeCounts(level int) ([]BlockPairCount, error) {
	if err := n.checkLevel(level); err != nil {
		return nil, err
	}
	if level < 1 {
		return nil, logicErrorf("interblock edge counts require a block level, got %d", level)
	}

	var pairs []BlockPairCount
	for _, block := range n.nodesAtLevel(level) {
		counts, err := block.GatherNeighborsAtLevel(level)
		if err != nil {
			return nil, err
		}
		for _, entry := range sortedCounts(counts) {
			if entry.node.seq < block.seq {
				continue // recorded when the other block was visited
			}
			pairs = append(pairs, BlockPairCount{
				BlockA: block.id,
				BlockB: entry.node.id,
				Count:  entry.count,
			})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].BlockA != pairs[j].BlockA {
			return pairs[i].BlockA < pairs[j].BlockA
		}
		return pairs[i].BlockB < pairs[j].BlockB
	})
	return pairs, nil
}

// BlockCount pairs a block id with an edge count from a single node.
type BlockCount struct {
	Block string `json:"block"`
	Count int    `json:"n_edges"`
}

// NodeToBlockEdgeCounts returns a data node's edge counts to each block at a
// level.
func (n *Network) NodeToBlockEdgeCounts(nodeID string, level int) ([]BlockCount, error) {
	node, err := n.NodeByID(nodeID)
	if err != nil {
		return nil, err
	}
	if err := n.checkLevel(level); err != nil {
		return nil, err
	}

	counts, err := node.GatherNeighborsAtLevel(level)
	if err != nil {
		return nil, err
	}

	out := make([]BlockCount, 0, len(counts))
	for _, entry := range sortedCounts(counts) {
		out = append(out, BlockCount{Block: entry.node.id, Count: entry.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Block < out[j].Block })
	return out, nil
}
