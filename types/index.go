package types

import "sort"

// LeveledNode pairs a node with its depth relative to the walk's starting point.
type LeveledNode struct {
	Node  Node
	Level int
}

// NodeIndex is an in-memory, read-only view of one tree's nodes keyed by id
// and by parent. Walks over it are iterative and guard against cycles so a
// corrupted parent chain cannot hang a caller.
type NodeIndex struct {
	byID     map[string]Node
	children map[string][]Node
}

// NewNodeIndex indexes nodes. Children are sorted by ordering, ties broken by
// label then id so the result is deterministic even when orderings have gaps
// or duplicates.
func NewNodeIndex(nodes []Node) *NodeIndex {
	idx := &NodeIndex{
		byID:     make(map[string]Node, len(nodes)),
		children: make(map[string][]Node),
	}
	for _, n := range nodes {
		idx.byID[n.ID] = n
		idx.children[n.ParentID] = append(idx.children[n.ParentID], n)
	}
	for parent := range idx.children {
		SortSiblings(idx.children[parent])
	}
	return idx
}

// SortSiblings orders nodes the way they are displayed.
func SortSiblings(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Ordering != nodes[j].Ordering {
			return nodes[i].Ordering < nodes[j].Ordering
		}
		if nodes[i].Label != nodes[j].Label {
			return nodes[i].Label < nodes[j].Label
		}
		return nodes[i].ID < nodes[j].ID
	})
}

// Len returns the number of indexed nodes
func (idx *NodeIndex) Len() int {
	return len(idx.byID)
}

// Get returns the node with the given id
func (idx *NodeIndex) Get(id string) (Node, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

// Children returns the ordered children of parentID ("" for the roots).
// The returned slice must not be modified.
func (idx *NodeIndex) Children(parentID string) []Node {
	return idx.children[parentID]
}

// Roots returns the ordered root nodes
func (idx *NodeIndex) Roots() []Node {
	return idx.children[""]
}

// Ancestors returns the chain from the root down to the node's parent.
func (idx *NodeIndex) Ancestors(id string) []Node {
	n, ok := idx.byID[id]
	if !ok {
		return nil
	}
	var chain []Node
	seen := map[string]bool{id: true}
	for n.ParentID != "" && !seen[n.ParentID] {
		parent, ok := idx.byID[n.ParentID]
		if !ok {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		n = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Progeny returns the node followed by all its descendants in display
// (pre-)order, each with its depth below the starting node. An empty id walks
// every root at level 0.
func (idx *NodeIndex) Progeny(id string) []LeveledNode {
	var stack []LeveledNode
	if id == "" {
		roots := idx.Roots()
		for i := len(roots) - 1; i >= 0; i-- {
			stack = append(stack, LeveledNode{Node: roots[i]})
		}
	} else {
		n, ok := idx.byID[id]
		if !ok {
			return nil
		}
		stack = append(stack, LeveledNode{Node: n})
	}

	var out []LeveledNode
	seen := make(map[string]bool)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[top.Node.ID] {
			continue
		}
		seen[top.Node.ID] = true
		out = append(out, top)

		kids := idx.children[top.Node.ID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, LeveledNode{Node: kids[i], Level: top.Level + 1})
		}
	}
	return out
}

// SubtreeIDs returns the ids of the node and all its descendants.
func (idx *NodeIndex) SubtreeIDs(id string) []string {
	progeny := idx.Progeny(id)
	ids := make([]string, 0, len(progeny))
	for _, ln := range progeny {
		ids = append(ids, ln.Node.ID)
	}
	return ids
}
