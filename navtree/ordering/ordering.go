// Package ordering keeps sibling ordering values dense while nodes are
// appended, moved within their sibling group or reparented.
//
// Orderings are 0-based: the first child of a parent has ordering 0 and
// appending gives max+1. Deletion is not handled here; callers that need a
// dense group after removing nodes call Renumber.
package ordering

import (
	"github.com/arthur-debert/navtree/types"
)

// Tx is the slice of a store transaction the engine needs. Every change is
// written through it, so the caller's transaction makes a move all-or-nothing.
type Tx interface {
	GetNode(treeID, id string) (types.Node, error)
	Children(treeID, parentID string) ([]types.Node, error)
	UpdateNode(node types.Node) error
}

// Engine applies ordering rules inside one transaction
type Engine struct {
	tx Tx
}

// New returns an engine bound to tx
func New(tx Tx) *Engine {
	return &Engine{tx: tx}
}

// Placement describes where a node should land. An empty RefID appends the
// node at the end of ParentID's children.
type Placement struct {
	ParentID string
	RefID    string
	Position types.RefPosition
}

// Next returns the ordering for a node appended under parentID
func (e *Engine) Next(treeID, parentID string) (int, error) {
	siblings, err := e.tx.Children(treeID, parentID)
	if err != nil {
		return 0, err
	}
	return nextOrdering(siblings), nil
}

func nextOrdering(siblings []types.Node) int {
	next := 0
	for _, s := range siblings {
		if s.Ordering+1 > next {
			next = s.Ordering + 1
		}
	}
	return next
}

// CheckParent fails with a validation error when parentID is nodeID itself
// or one of its descendants. The walk goes from the proposed parent up to
// the root.
func (e *Engine) CheckParent(treeID, nodeID, parentID string) error {
	seen := make(map[string]bool)
	for id := parentID; id != ""; {
		if id == nodeID {
			return types.Invalid("A node can not be moved under itself or one of its descendants")
		}
		if seen[id] {
			return types.Invalid("parent chain of node %q contains a cycle", parentID)
		}
		seen[id] = true

		n, err := e.tx.GetNode(treeID, id)
		if err != nil {
			return err
		}
		id = n.ParentID
	}
	return nil
}

// Move places node according to p and returns the updated node. Siblings
// whose ordering changes are written through the transaction.
func (e *Engine) Move(node types.Node, p Placement) (types.Node, error) {
	if p.ParentID != "" {
		if _, err := e.tx.GetNode(node.TreeID, p.ParentID); err != nil {
			return node, err
		}
		if err := e.CheckParent(node.TreeID, node.ID, p.ParentID); err != nil {
			return node, err
		}
	}

	var ref *types.Node
	if p.RefID != "" {
		if p.RefID == node.ID {
			return node, nil
		}
		r, err := e.tx.GetNode(node.TreeID, p.RefID)
		if err != nil {
			return node, err
		}
		if r.ParentID != p.ParentID {
			return node, types.Invalid("reference node %q is not a child of the target parent", p.RefID)
		}
		if !p.Position.Valid() {
			return node, types.Invalid("invalid position %q (expected before or after)", p.Position)
		}
		ref = &r
	}

	if node.ParentID == p.ParentID {
		if ref == nil {
			return e.moveToEnd(node)
		}
		return e.moveWithinParent(node, *ref, p.Position)
	}
	return e.reparent(node, p.ParentID, ref, p.Position)
}

// moveToEnd closes the gap at the node's position and appends it after the
// last sibling.
func (e *Engine) moveToEnd(node types.Node) (types.Node, error) {
	siblings, err := e.others(node.TreeID, node.ParentID, node.ID)
	if err != nil {
		return node, err
	}
	if err := e.shift(siblings, func(s types.Node) bool { return s.Ordering > node.Ordering }, -1); err != nil {
		return node, err
	}
	node.Ordering = nextOrdering(siblings)
	return node, e.tx.UpdateNode(node)
}

func (e *Engine) moveWithinParent(node, ref types.Node, pos types.RefPosition) (types.Node, error) {
	siblings, err := e.others(node.TreeID, node.ParentID, node.ID)
	if err != nil {
		return node, err
	}
	old := node.Ordering

	if ref.Ordering > old {
		// forward: everything strictly between slides back by one
		between := func(s types.Node) bool { return s.Ordering > old && s.Ordering < ref.Ordering }
		if err := e.shift(siblings, between, -1); err != nil {
			return node, err
		}
		if pos == types.Before {
			node.Ordering = ref.Ordering - 1
		} else {
			node.Ordering = ref.Ordering
			if err := e.shift(siblings, isNode(ref.ID), -1); err != nil {
				return node, err
			}
		}
	} else {
		// backward: everything strictly between slides forward by one
		between := func(s types.Node) bool { return s.Ordering > ref.Ordering && s.Ordering < old }
		if err := e.shift(siblings, between, 1); err != nil {
			return node, err
		}
		if pos == types.Before {
			node.Ordering = ref.Ordering
			if err := e.shift(siblings, isNode(ref.ID), 1); err != nil {
				return node, err
			}
		} else {
			node.Ordering = ref.Ordering + 1
		}
	}
	return node, e.tx.UpdateNode(node)
}

func (e *Engine) reparent(node types.Node, parentID string, ref *types.Node, pos types.RefPosition) (types.Node, error) {
	if err := e.CloseGap(node); err != nil {
		return node, err
	}

	siblings, err := e.others(node.TreeID, parentID, node.ID)
	if err != nil {
		return node, err
	}
	node.ParentID = parentID

	switch {
	case ref == nil:
		node.Ordering = nextOrdering(siblings)
	case pos == types.Before:
		at := ref.Ordering
		if err := e.shift(siblings, func(s types.Node) bool { return s.Ordering >= at }, 1); err != nil {
			return node, err
		}
		node.Ordering = at
	default:
		at := ref.Ordering
		if err := e.shift(siblings, func(s types.Node) bool { return s.Ordering > at }, 1); err != nil {
			return node, err
		}
		node.Ordering = at + 1
	}
	return node, e.tx.UpdateNode(node)
}

// CloseGap slides every sibling after node back by one, as if node had left
// its sibling group. The node itself is not written.
func (e *Engine) CloseGap(node types.Node) error {
	siblings, err := e.others(node.TreeID, node.ParentID, node.ID)
	if err != nil {
		return err
	}
	return e.shift(siblings, func(s types.Node) bool { return s.Ordering > node.Ordering }, -1)
}

// Renumber rewrites the children of parentID as 0..n-1 in display order and
// returns how many nodes changed.
func (e *Engine) Renumber(treeID, parentID string) (int, error) {
	siblings, err := e.tx.Children(treeID, parentID)
	if err != nil {
		return 0, err
	}
	types.SortSiblings(siblings)

	changed := 0
	for i, s := range siblings {
		if s.Ordering == i {
			continue
		}
		s.Ordering = i
		if err := e.tx.UpdateNode(s); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// others returns the children of parentID except the node being moved
func (e *Engine) others(treeID, parentID, exclude string) ([]types.Node, error) {
	children, err := e.tx.Children(treeID, parentID)
	if err != nil {
		return nil, err
	}
	out := children[:0:0]
	for _, c := range children {
		if c.ID != exclude {
			out = append(out, c)
		}
	}
	return out, nil
}

// shift adds delta to the ordering of every sibling matching pred. The
// slice is updated in place so later steps see the new values.
func (e *Engine) shift(siblings []types.Node, pred func(types.Node) bool, delta int) error {
	for i := range siblings {
		if !pred(siblings[i]) {
			continue
		}
		siblings[i].Ordering += delta
		if err := e.tx.UpdateNode(siblings[i]); err != nil {
			return err
		}
	}
	return nil
}

func isNode(id string) func(types.Node) bool {
	return func(s types.Node) bool { return s.ID == id }
}

// Dense reports whether the orderings of siblings are exactly 0..n-1
func Dense(siblings []types.Node) bool {
	seen := make([]bool, len(siblings))
	for _, s := range siblings {
		if s.Ordering < 0 || s.Ordering >= len(siblings) || seen[s.Ordering] {
			return false
		}
		seen[s.Ordering] = true
	}
	return true
}
