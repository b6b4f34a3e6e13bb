package sbm

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Network owns every node of a hierarchical degree-corrected SBM. Level 0
// holds the data nodes; levels above partition the level below into blocks.
// All parent, child and neighbor references are non-owning and live exactly
// as long as the network.
type Network struct {
	levels     [][][]*Node // level -> type -> nodes
	types      []string
	typeIndex  map[string]int
	allowed    map[int]map[int]bool
	limitPairs bool
	byID       map[string]*Node // level-0 nodes only
	sampler    *Sampler
	logger     zerolog.Logger

	blockCounter int
	seqCounter   int
	nEdges       int
}

// NewNetwork creates an empty network over a fixed set of node types.
func NewNetwork(typeNames []string, seed int64) *Network {
	n := &Network{
		types:     append([]string(nil), typeNames...),
		typeIndex: make(map[string]int, len(typeNames)),
		allowed:   make(map[int]map[int]bool),
		byID:      make(map[string]*Node),
		sampler:   NewSampler(seed),
		logger:    zerolog.Nop(),
	}
	for i, name := range typeNames {
		n.typeIndex[name] = i
	}
	n.buildLevel()
	return n
}

// NewNetworkWithNodes creates a network and loads nodes and edges in one
// shot. allowedA/allowedB, when non-empty, activate the allowed-pair
// constraint before any edge is added.
func NewNetworkWithNodes(ids, nodeTypes, edgesA, edgesB, typeNames []string, seed int64, allowedA, allowedB []string) (*Network, error) {
	if len(ids) != len(nodeTypes) {
		return nil, logicErrorf("id and type columns differ in length: %d vs %d", len(ids), len(nodeTypes))
	}
	if len(allowedA) != len(allowedB) {
		return nil, logicErrorf("allowed pair columns differ in length: %d vs %d", len(allowedA), len(allowedB))
	}

	n := NewNetwork(typeNames, seed)

	for i := range ids {
		if _, err := n.AddNode(ids[i], nodeTypes[i], 0); err != nil {
			return nil, err
		}
	}

	for i := range allowedA {
		if err := n.AllowEdgeBetween(allowedA[i], allowedB[i]); err != nil {
			return nil, err
		}
	}

	if err := n.AddEdges(edgesA, edgesB); err != nil {
		return nil, err
	}

	return n, nil
}

// SetLogger attaches a logger used for sweep and merge progress reporting.
func (n *Network) SetLogger(logger zerolog.Logger) { n.logger = logger }

func (n *Network) typeIndexOf(name string) (int, error) {
	idx, ok := n.typeIndex[name]
	if !ok {
		return 0, logicErrorf("type %q does not exist in network", name)
	}
	return idx, nil
}

func (n *Network) checkLevel(level int) error {
	if level < 0 || level >= len(n.levels) {
		return rangeErrorf("level %d does not exist, network has %d", level, len(n.levels))
	}
	return nil
}

// buildLevel appends a new empty level with one bucket per type.
func (n *Network) buildLevel() {
	n.levels = append(n.levels, make([][]*Node, len(n.types)))
}

// NTypes returns the number of node types in the model.
func (n *Network) NTypes() int { return len(n.types) }

// NodeTypes returns the type names in index order.
func (n *Network) NodeTypes() []string { return append([]string(nil), n.types...) }

// NLevels returns the total number of levels, data level included.
func (n *Network) NLevels() int { return len(n.levels) }

// NEdges returns the number of edges loaded into the network.
func (n *Network) NEdges() int { return n.nEdges }

// HasBlocks reports whether at least one block level exists.
func (n *Network) HasBlocks() bool { return len(n.levels) > 1 }

// NNodes returns the number of nodes over all levels.
func (n *Network) NNodes() int {
	total := 0
	for level := range n.levels {
		for _, bucket := range n.levels[level] {
			total += len(bucket)
		}
	}
	return total
}

// NNodesAtLevel returns the number of nodes of all types at one level.
func (n *Network) NNodesAtLevel(level int) (int, error) {
	if err := n.checkLevel(level); err != nil {
		return 0, err
	}
	total := 0
	for _, bucket := range n.levels[level] {
		total += len(bucket)
	}
	return total, nil
}

// NNodesOfType returns the number of nodes of one type at a level.
func (n *Network) NNodesOfType(typeName string, level int) (int, error) {
	if err := n.checkLevel(level); err != nil {
		return 0, err
	}
	idx, err := n.typeIndexOf(typeName)
	if err != nil {
		return 0, err
	}
	return len(n.levels[level][idx]), nil
}

// NodeByID returns the data node with the given id.
func (n *Network) NodeByID(id string) (*Node, error) {
	node, ok := n.byID[id]
	if !ok {
		return nil, logicErrorf("node %q not found in network", id)
	}
	return node, nil
}

// nodeAtLevelByID scans one level for a node by id. Blocks are not indexed
// globally; this is only used by state handling and tests.
func (n *Network) nodeAtLevelByID(id string, level int) (*Node, error) {
	if err := n.checkLevel(level); err != nil {
		return nil, err
	}
	for _, bucket := range n.levels[level] {
		for _, node := range bucket {
			if node.id == id {
				return node, nil
			}
		}
	}
	return nil, logicErrorf("node %q not found at level %d", id, level)
}

// nodesAtLevel returns a flat snapshot of every node at a level, in bucket
// order.
func (n *Network) nodesAtLevel(level int) []*Node {
	var out []*Node
	for _, bucket := range n.levels[level] {
		out = append(out, bucket...)
	}
	return out
}

// AddNode creates a node with the given id and type at a level. Level-0 ids
// must be unique; the level must already exist.
func (n *Network) AddNode(id, typeName string, level int) (*Node, error) {
	typeIdx, err := n.typeIndexOf(typeName)
	if err != nil {
		return nil, err
	}
	if err := n.checkLevel(level); err != nil {
		return nil, err
	}
	if level == 0 {
		if _, exists := n.byID[id]; exists {
			return nil, logicErrorf("node %q already exists in network", id)
		}
	}

	node := newNode(id, typeIdx, level, len(n.types), n.seqCounter)
	n.seqCounter++

	if level == 0 {
		n.byID[id] = node
	}
	n.levels[level][typeIdx] = append(n.levels[level][typeIdx], node)
	return node, nil
}

// AllowEdgeBetween adds a symmetric pair to the permitted edge-type relation
// and activates the constraint.
func (n *Network) AllowEdgeBetween(typeA, typeB string) error {
	a, err := n.typeIndexOf(typeA)
	if err != nil {
		return err
	}
	b, err := n.typeIndexOf(typeB)
	if err != nil {
		return err
	}
	n.allowPair(a, b)
	n.limitPairs = true
	return nil
}

func (n *Network) allowPair(a, b int) {
	if n.allowed[a] == nil {
		n.allowed[a] = make(map[int]bool)
	}
	if n.allowed[b] == nil {
		n.allowed[b] = make(map[int]bool)
	}
	n.allowed[a][b] = true
	n.allowed[b][a] = true
}

// AddEdge connects two data nodes by id. Parallel edges are preserved and
// counted with multiplicity. When the allowed-pair constraint is active the
// types of both endpoints must form a permitted pair.
func (n *Network) AddEdge(idA, idB string) error {
	a, err := n.NodeByID(idA)
	if err != nil {
		return err
	}
	b, err := n.NodeByID(idB)
	if err != nil {
		return err
	}

	if n.limitPairs {
		// The pair check compares type(a) against type(b); the historical
		// implementation compared type(a) with itself, which accepted an
		// edge only when a's type was paired with itself, whatever type(b) was.
		if !n.allowed[a.typeIndex][b.typeIndex] {
			return logicErrorf("edge between %q and %q of types %q and %q is not allowed",
				idA, idB, n.types[a.typeIndex], n.types[b.typeIndex])
		}
	} else {
		n.allowPair(a.typeIndex, b.typeIndex)
	}

	a.addEdge(b)
	b.addEdge(a)
	n.nEdges++
	return nil
}

// AddEdges connects pairs of nodes from two equal-length id columns.
func (n *Network) AddEdges(idsA, idsB []string) error {
	if len(idsA) != len(idsB) {
		return logicErrorf("edge columns differ in length: %d vs %d", len(idsA), len(idsB))
	}
	for i := range idsA {
		if err := n.AddEdge(idsA[i], idsB[i]); err != nil {
			return err
		}
	}
	return nil
}

// InitializeBlocks appends a new block level on top of the hierarchy. With
// nBlocks == -1 every node gets its own block; otherwise nBlocks blocks are
// created per type and children are shuffled and assigned round-robin.
func (n *Network) InitializeBlocks(nBlocks int) error {
	onePerNode := nBlocks == -1
	if !onePerNode && nBlocks < 1 {
		return logicErrorf("cannot initialize %d blocks per type", nBlocks)
	}

	childLevel := len(n.levels) - 1

	if !onePerNode {
		for typeIdx := range n.types {
			if count := len(n.levels[childLevel][typeIdx]); nBlocks > count {
				return logicErrorf("cannot initialize %d blocks for type %q with only %d nodes",
					nBlocks, n.types[typeIdx], count)
			}
		}
	}

	blockLevel := len(n.levels)
	n.buildLevel()

	for typeIdx := range n.types {
		children := n.levels[childLevel][typeIdx]

		count := nBlocks
		if onePerNode {
			count = len(children)
		}
		if count == 0 {
			continue
		}

		blocks := make([]*Node, 0, count)
		for i := 0; i < count; i++ {
			id := fmt.Sprintf("b_%d", n.blockCounter)
			n.blockCounter++
			block, err := n.AddNode(id, n.types[typeIdx], blockLevel)
			if err != nil {
				return err
			}
			blocks = append(blocks, block)
		}

		if !onePerNode {
			n.sampler.ShuffleNodes(children)
		}

		for i, child := range children {
			if err := child.setParent(blocks[i%count]); err != nil {
				return err
			}
		}
	}

	return nil
}

// DeleteBlockLevel pops the topmost block level. Nodes one level down are
// left without parents.
func (n *Network) DeleteBlockLevel() error {
	if !n.HasBlocks() {
		return logicErrorf("no block level to delete")
	}

	top := len(n.levels) - 1
	for _, bucket := range n.levels[top] {
		for _, block := range bucket {
			for _, child := range block.children {
				child.parent = nil
			}
		}
	}
	n.levels = n.levels[:top]
	return nil
}

// ResetBlocks erases every block level, leaving only the data nodes.
func (n *Network) ResetBlocks() {
	for n.HasBlocks() {
		_ = n.DeleteBlockLevel()
	}
}

// SetParent moves a node into a new block. The old block sheds the node's
// edges and degree, the new block absorbs them, and the change propagates up
// through every ancestor, which is what keeps block-level counts exact under
// every MCMC move.
func (n *Network) SetParent(child, newParent *Node) error {
	return child.setParent(newParent)
}

// removeEmptyBlocks deletes every block with no children at every block
// level and returns the removed ids in level order.
func (n *Network) removeEmptyBlocks() []string {
	var removed []string
	for level := 1; level < len(n.levels); level++ {
		for typeIdx, bucket := range n.levels[level] {
			kept := bucket[:0]
			for _, block := range bucket {
				if len(block.children) > 0 {
					kept = append(kept, block)
					continue
				}
				if block.parent != nil {
					block.parent.removeChild(block)
					block.parent = nil
				}
				removed = append(removed, block.id)
			}
			n.levels[level][typeIdx] = kept
		}
	}
	return removed
}

// deleteBlock removes a single block node from its level bucket, detaching it
// from its parent. The block must have no children left.
func (n *Network) deleteBlock(block *Node) error {
	if len(block.children) != 0 {
		return logicErrorf("cannot delete block %q with %d children", block.id, len(block.children))
	}
	if block.parent != nil {
		block.parent.removeChild(block)
		block.parent = nil
	}

	bucket := n.levels[block.level][block.typeIndex]
	for i, candidate := range bucket {
		if candidate == block {
			n.levels[block.level][block.typeIndex] = append(bucket[:i], bucket[i+1:]...)
			return nil
		}
	}
	return logicErrorf("block %q not found at level %d", block.id, block.level)
}
