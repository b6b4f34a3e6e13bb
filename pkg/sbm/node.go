package sbm

import (
	"sort"
)

// Node is a single vertex in the hierarchy. Data nodes live at level 0 and
// block nodes at levels above; the two share one representation distinguished
// only by level. Edge lists are kept per neighbor type and, for blocks, hold
// the multiset union of the children's edges so block-level counts never
// require a rescan of the graph.
type Node struct {
	id        string
	typeIndex int
	level     int
	seq       int // creation sequence, used for deterministic iteration
	degree    int
	parent    *Node
	children  []*Node
	edges     [][]*Node // neighbor nodes grouped by neighbor type
}

func newNode(id string, typeIndex, level, numTypes, seq int) *Node {
	return &Node{
		id:        id,
		typeIndex: typeIndex,
		level:     level,
		seq:       seq,
		edges:     make([][]*Node, numTypes),
	}
}

// ID returns the node's unique identifier.
func (n *Node) ID() string { return n.id }

// Type returns the node's type index.
func (n *Node) Type() int { return n.typeIndex }

// Level returns the hierarchy level the node sits at.
func (n *Node) Level() int { return n.level }

// Degree returns the number of edge endpoints incident at this node.
// Self-loops contribute two.
func (n *Node) Degree() int { return n.degree }

// Parent returns the block containing this node, or nil at the top layer.
func (n *Node) Parent() *Node { return n.parent }

// HasParent reports whether the node currently belongs to a block.
func (n *Node) HasParent() bool { return n.parent != nil }

// NumChildren returns the number of nodes contained in this block.
func (n *Node) NumChildren() int { return len(n.children) }

// Children returns the nodes contained in this block.
func (n *Node) Children() []*Node { return n.children }

// EdgesToType returns the node's neighbors of the given type, with
// multiplicity.
func (n *Node) EdgesToType(typeIndex int) []*Node { return n.edges[typeIndex] }

func (n *Node) hasChild(child *Node) bool {
	for _, c := range n.children {
		if c == child {
			return true
		}
	}
	return false
}

// addEdge registers a single edge endpoint terminating at other. Only used at
// load time on level-0 nodes; block edge lists are filled by propagation.
func (n *Node) addEdge(other *Node) {
	n.edges[other.typeIndex] = append(n.edges[other.typeIndex], other)
	n.degree++
}

type edgeUpdate int

const (
	edgeAdd edgeUpdate = iota
	edgeRemove
)

// updateEdges adds or removes a child's edge multiset from this node and from
// every ancestor above it, keeping the union invariant intact at all levels.
func (n *Node) updateEdges(edges [][]*Node, kind edgeUpdate) {
	for typeIndex, neighbors := range edges {
		bucket := n.edges[typeIndex]
		for _, neighbor := range neighbors {
			switch kind {
			case edgeAdd:
				bucket = append(bucket, neighbor)
				n.degree++
			case edgeRemove:
				bucket = removeNodeOnce(bucket, neighbor)
				n.degree--
			}
		}
		n.edges[typeIndex] = bucket
	}

	if n.parent != nil {
		n.parent.updateEdges(edges, kind)
	}
}

// removeNodeOnce removes one occurrence of target by swapping it with the
// last element, so removal stays O(1) per edge.
func removeNodeOnce(nodes []*Node, target *Node) []*Node {
	for i, node := range nodes {
		if node == target {
			last := len(nodes) - 1
			nodes[i] = nodes[last]
			return nodes[:last]
		}
	}
	return nodes
}

func (n *Node) addChild(child *Node) {
	n.children = append(n.children, child)
	n.updateEdges(child.edges, edgeAdd)
}

func (n *Node) removeChild(child *Node) {
	n.children = removeNodeOnce(n.children, child)
	n.updateEdges(child.edges, edgeRemove)
}

// setParent reassigns the node to a new block, detaching it from its current
// block first. Levels must be adjacent.
func (n *Node) setParent(newParent *Node) error {
	if n.level != newParent.level-1 {
		return logicErrorf("parent %q at level %d must be one level above child %q at level %d",
			newParent.id, newParent.level, n.id, n.level)
	}

	if n.parent != nil {
		n.parent.removeChild(n)
	}
	newParent.addChild(n)
	n.parent = newParent
	return nil
}

// ParentAtLevel walks the parent chain up to the requested level.
func (n *Node) ParentAtLevel(level int) (*Node, error) {
	if level < n.level {
		return nil, logicErrorf("requested parent level %d is below node %q at level %d", level, n.id, n.level)
	}

	current := n
	for current.level != level {
		if current.parent == nil {
			return nil, rangeErrorf("node %q has no parent at level %d", n.id, level)
		}
		current = current.parent
	}
	return current, nil
}

// EdgeCountMap maps a block at some level to the number of edges that
// terminate in its descendants.
type EdgeCountMap map[*Node]int

// GatherNeighborsAtLevel collapses the node's edges into counts keyed by each
// neighbor's ancestor at the requested level. A self-loop at the target level
// is counted twice, once per endpoint, which is the convention every
// downstream formula assumes.
func (n *Node) GatherNeighborsAtLevel(level int) (EdgeCountMap, error) {
	counts := make(EdgeCountMap)
	for _, neighbors := range n.edges {
		for _, neighbor := range neighbors {
			block, err := neighbor.ParentAtLevel(level)
			if err != nil {
				return nil, err
			}
			counts[block]++
		}
	}
	return counts, nil
}

// edgeCount is one entry of a gathered count map in iteration form.
type edgeCount struct {
	node  *Node
	count int
}

// sortedCounts returns the map entries ordered by node creation sequence.
// Map iteration order in Go is randomized; every consumer that accumulates
// floats or consumes sampler draws iterates through this instead, so runs
// with the same seed stay bit-for-bit reproducible.
func sortedCounts(m EdgeCountMap) []edgeCount {
	entries := make([]edgeCount, 0, len(m))
	for node, count := range m {
		entries = append(entries, edgeCount{node: node, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].node.seq < entries[j].node.seq
	})
	return entries
}
