package navtree

import (
	"context"
	"sort"

	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/navtree/ordering"
	"github.com/arthur-debert/navtree/navtree/store"
	"github.com/arthur-debert/navtree/types"
)

// RemoveContent deletes every node bound to ref, in every tree, together
// with the subtrees below them. It returns the number of deleted nodes.
func (s *Service) RemoveContent(ctx context.Context, ref types.ContentRef) (int, error) {
	if ref.IsZero() {
		return 0, nil
	}

	removed := make(map[string][]string)
	err := s.store.Update(ctx, func(tx store.Tx) error {
		bound, err := tx.NodesByContent(ref)
		if err != nil {
			return err
		}
		byTree := make(map[string][]string)
		for _, n := range bound {
			byTree[n.TreeID] = append(byTree[n.TreeID], n.ID)
		}
		for treeID, ids := range byTree {
			nodes, err := tx.TreeNodes(treeID)
			if err != nil {
				return err
			}
			idx := types.NewNodeIndex(nodes)
			var doomed []string
			for _, id := range ids {
				doomed = append(doomed, idx.SubtreeIDs(id)...)
			}
			if err := tx.DeleteNodes(treeID, doomed); err != nil {
				return err
			}
			if err := s.touch(tx, treeID); err != nil {
				return err
			}
			removed[treeID] = doomed
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for treeID, ids := range removed {
		total += len(ids)
		s.publish(EventContentDetached, treeID, ids...)
	}
	if total > 0 {
		s.logger.Info("content removed from navigation", "content", ref.String(), "nodes", total)
	}
	return total, nil
}

// ContentDeleteHook returns a hook that detaches content from navigation
// before a catalog deletes it.
func (s *Service) ContentDeleteHook() content.DeleteHook {
	return func(ctx context.Context, ref types.ContentRef) error {
		_, err := s.RemoveContent(ctx, ref)
		return err
	}
}

// NavParent locates content in navigation: the tree and the parent node
// ("" when the node is a root).
type NavParent struct {
	TreeID   string
	ParentID string
}

// NavigationParent returns where ref sits in navigation. When it is bound
// in several trees the first tree by id wins. ok is false when ref is not
// in any tree.
func (s *Service) NavigationParent(ctx context.Context, ref types.ContentRef) (NavParent, bool, error) {
	var nodes []types.Node
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		nodes, err = tx.NodesByContent(ref)
		return err
	})
	if err != nil || len(nodes) == 0 {
		return NavParent{}, false, err
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].TreeID != nodes[j].TreeID {
			return nodes[i].TreeID < nodes[j].TreeID
		}
		return nodes[i].ID < nodes[j].ID
	})
	return NavParent{TreeID: nodes[0].TreeID, ParentID: nodes[0].ParentID}, true, nil
}

// PlaceContent puts ref under parent.ParentID in parent.TreeID (at the root
// when ParentID is ""). Content already in that tree is moved to the end of
// the new parent's children; otherwise a node is created.
func (s *Service) PlaceContent(ctx context.Context, ref types.ContentRef, parent NavParent) (types.Node, error) {
	var node types.Node
	created := false
	err := s.store.Update(ctx, func(tx store.Tx) error {
		bound, err := tx.NodesByContent(ref)
		if err != nil {
			return err
		}
		for _, n := range bound {
			if n.TreeID != parent.TreeID {
				continue
			}
			if node, err = ordering.New(tx).Move(n, ordering.Placement{ParentID: parent.ParentID}); err != nil {
				return err
			}
			return s.touch(tx, parent.TreeID)
		}

		if node, err = s.createNode(ctx, tx, parent.TreeID, NodeSpec{ParentID: parent.ParentID, Content: ref}); err != nil {
			return err
		}
		created = true
		return s.touch(tx, parent.TreeID)
	})
	if err != nil {
		return types.Node{}, err
	}
	if created {
		s.publish(EventNodeAdded, parent.TreeID, node.ID)
	} else {
		s.publish(EventNodeMoved, parent.TreeID, node.ID)
	}
	return node, nil
}
