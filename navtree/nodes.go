package navtree

import (
	"context"
	"errors"

	"github.com/arthur-debert/navtree/internal/validation"
	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/navtree/ordering"
	"github.com/arthur-debert/navtree/navtree/store"
	"github.com/arthur-debert/navtree/types"
)

// NodeSpec describes a node to create
type NodeSpec struct {
	ParentID string
	// Label is required for empty nodes; bound nodes default to the label
	// rule of their kind.
	Label   string
	Content types.ContentRef
	Hidden  bool
}

// CreateNode appends a node under spec.ParentID (or at the root)
func (s *Service) CreateNode(ctx context.Context, treeID string, spec NodeSpec) (types.Node, error) {
	var node types.Node
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		node, err = s.createNode(ctx, tx, treeID, spec)
		if err != nil {
			return err
		}
		return s.touch(tx, treeID)
	})
	if err != nil {
		return types.Node{}, err
	}
	s.logger.Info("node created", "tree_id", treeID, "node_id", node.ID, "content", node.Content.String())
	s.publish(EventNodeAdded, treeID, node.ID)
	return node, nil
}

func (s *Service) createNode(ctx context.Context, tx store.Tx, treeID string, spec NodeSpec) (types.Node, error) {
	tree, err := tx.GetTree(treeID)
	if err != nil {
		return types.Node{}, err
	}
	if spec.ParentID != "" {
		if _, err := tx.GetNode(treeID, spec.ParentID); err != nil {
			return types.Node{}, err
		}
	}

	label := spec.Label
	if spec.Content.IsZero() {
		if label == "" {
			label = content.EmptyLabel
		}
	} else {
		obj, err := s.bindable(ctx, tx, tree, spec.Content)
		if err != nil {
			return types.Node{}, err
		}
		if label == "" {
			label = content.Label(obj, s.navType(tx, spec.Content.Kind))
		}
	}
	if err := validation.Label(label); err != nil {
		return types.Node{}, err
	}

	next, err := ordering.New(tx).Next(treeID, spec.ParentID)
	if err != nil {
		return types.Node{}, err
	}
	node := types.Node{
		ID:       s.newID(),
		TreeID:   treeID,
		ParentID: spec.ParentID,
		Label:    label,
		Ordering: next,
		Content:  spec.Content,
		Visible:  !spec.Hidden,
	}
	if err := tx.InsertNode(node); err != nil {
		return types.Node{}, err
	}
	return node, nil
}

// bindable checks that ref may be bound in tree and returns the object
func (s *Service) bindable(ctx context.Context, tx store.Tx, tree types.Tree, ref types.ContentRef) (content.Object, error) {
	src, ok := s.contents.Source(ref.Kind)
	if !ok {
		return nil, types.Invalid("unknown content type %q", ref.Kind)
	}
	if !tree.AllowsKind(ref.Kind) {
		return nil, types.Invalid("%s can not be added to the tree %q", src.VerboseName(), tree.Name)
	}
	if ref.ID == "" {
		return nil, types.Invalid("Please choose an existing %s", src.VerboseName())
	}
	obj, err := src.Get(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	bound, err := tx.NodesByContent(ref)
	if err != nil {
		return nil, err
	}
	for _, n := range bound {
		if n.TreeID == tree.ID {
			return nil, types.Invalid("The %s is already in navigation", src.VerboseName())
		}
	}
	return obj, nil
}

// navType returns the configuration row for kind, the default rule when
// there is none
func (s *Service) navType(tx store.Tx, kind string) types.NavType {
	nt, err := tx.GetNavType(kind)
	if err != nil {
		return types.NavType{Kind: kind}
	}
	return nt
}

// AddContent binds a content object under parentID, or adds an empty node
// when kind is empty. This is the editor's "add" command.
func (s *Service) AddContent(ctx context.Context, treeID, kind, objectID, parentID string) (types.Node, error) {
	spec := NodeSpec{ParentID: parentID}
	if kind != "" {
		if err := validation.Kind(kind); err != nil {
			return types.Node{}, err
		}
		spec.Content = types.ContentRef{Kind: kind, ID: objectID}
	}
	return s.CreateNode(ctx, treeID, spec)
}

// GetNode returns a node of a tree
func (s *Service) GetNode(ctx context.Context, treeID, id string) (types.Node, error) {
	var node types.Node
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		node, err = tx.GetNode(treeID, id)
		return err
	})
	return node, err
}

// NodeInfo is a node with its resolved content
type NodeInfo struct {
	Node types.Node
	// ModelName is the verbose name of the content kind, "" for empty nodes
	ModelName string
	// ObjectLabel is the default string of the content object
	ObjectLabel string
	URL         string
	Missing     bool
}

// Describe returns a node with details of its content
func (s *Service) Describe(ctx context.Context, treeID, id string) (NodeInfo, error) {
	node, err := s.GetNode(ctx, treeID, id)
	if err != nil {
		return NodeInfo{}, err
	}
	info := NodeInfo{Node: node}
	if !node.HasContent() {
		return info, nil
	}
	if src, ok := s.contents.Source(node.Content.Kind); ok {
		info.ModelName = src.VerboseName()
	}
	obj, err := s.contents.Resolve(ctx, node.Content)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return NodeInfo{}, err
		}
		info.Missing = true
		return info, nil
	}
	info.ObjectLabel = obj.String()
	info.URL = content.URL(obj)
	return info, nil
}

// ListChildren returns the children of parentID ("" for the roots)
func (s *Service) ListChildren(ctx context.Context, treeID, parentID string) ([]types.Node, error) {
	var nodes []types.Node
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := tx.GetTree(treeID); err != nil {
			return err
		}
		if parentID != "" {
			if _, err := tx.GetNode(treeID, parentID); err != nil {
				return err
			}
		}
		var err error
		nodes, err = tx.Children(treeID, parentID)
		return err
	})
	return nodes, err
}

// Rename sets a node's label and returns the node and its previous label.
// Renaming to the current label changes nothing.
func (s *Service) Rename(ctx context.Context, treeID, id, label string) (types.Node, string, error) {
	if err := validation.Label(label); err != nil {
		return types.Node{}, "", err
	}

	var node types.Node
	var old string
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		if node, err = tx.GetNode(treeID, id); err != nil {
			return err
		}
		old = node.Label
		if old == label {
			return nil
		}
		node.Label = label
		if err := tx.UpdateNode(node); err != nil {
			return err
		}
		return s.touch(tx, treeID)
	})
	if err != nil {
		return types.Node{}, "", err
	}
	if old != label {
		s.publish(EventNodeRenamed, treeID, id)
	}
	return node, old, nil
}

// Remove deletes the given nodes with everything below them. All ids must
// exist or nothing is removed. Sibling orderings keep their gaps; see
// Renumber. It returns the number of deleted nodes.
func (s *Service) Remove(ctx context.Context, treeID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, types.Invalid("no node to remove")
	}

	var doomed []string
	err := s.store.Update(ctx, func(tx store.Tx) error {
		for _, id := range ids {
			if _, err := tx.GetNode(treeID, id); err != nil {
				return err
			}
		}
		nodes, err := tx.TreeNodes(treeID)
		if err != nil {
			return err
		}
		idx := types.NewNodeIndex(nodes)
		seen := make(map[string]bool)
		for _, id := range ids {
			for _, sub := range idx.SubtreeIDs(id) {
				if !seen[sub] {
					seen[sub] = true
					doomed = append(doomed, sub)
				}
			}
		}
		if err := tx.DeleteNodes(treeID, doomed); err != nil {
			return err
		}
		return s.touch(tx, treeID)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("nodes removed", "tree_id", treeID, "count", len(doomed))
	s.publish(EventNodesRemoved, treeID, doomed...)
	return len(doomed), nil
}

// Move places a node relative to a sibling or at the end of a parent's
// children. Moving under the node itself or a descendant fails.
func (s *Service) Move(ctx context.Context, treeID, id string, p ordering.Placement) (types.Node, error) {
	var node types.Node
	err := s.store.Update(ctx, func(tx store.Tx) error {
		current, err := tx.GetNode(treeID, id)
		if err != nil {
			return err
		}
		if node, err = ordering.New(tx).Move(current, p); err != nil {
			return err
		}
		return s.touch(tx, treeID)
	})
	if err != nil {
		return types.Node{}, err
	}
	s.logger.Debug("node moved", "tree_id", treeID, "node_id", id, "parent_id", node.ParentID, "ordering", node.Ordering)
	s.publish(EventNodeMoved, treeID, id)
	return node, nil
}

// ToggleVisibility flips a node's Visible flag. Calling it twice restores
// the original state.
func (s *Service) ToggleVisibility(ctx context.Context, treeID, id string) (types.Node, error) {
	var node types.Node
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		if node, err = tx.GetNode(treeID, id); err != nil {
			return err
		}
		node.Visible = !node.Visible
		if err := tx.UpdateNode(node); err != nil {
			return err
		}
		return s.touch(tx, treeID)
	})
	if err != nil {
		return types.Node{}, err
	}
	s.publish(EventNodeVisibility, treeID, id)
	return node, nil
}

// Renumber compacts the orderings under parentID to 0..n-1 and returns how
// many nodes changed.
func (s *Service) Renumber(ctx context.Context, treeID, parentID string) (int, error) {
	var changed int
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetTree(treeID); err != nil {
			return err
		}
		if parentID != "" {
			if _, err := tx.GetNode(treeID, parentID); err != nil {
				return err
			}
		}
		var err error
		if changed, err = ordering.New(tx).Renumber(treeID, parentID); err != nil {
			return err
		}
		if changed == 0 {
			return nil
		}
		return s.touch(tx, treeID)
	})
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.publish(EventNodesRenumbered, treeID)
	}
	return changed, nil
}
