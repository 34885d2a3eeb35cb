package navtree

import (
	"context"
	"errors"

	"github.com/arthur-debert/navtree/internal/validation"
	"github.com/arthur-debert/navtree/navtree/store"
	"github.com/arthur-debert/navtree/types"
)

// CreateTree creates an empty tree. kinds restricts the content kinds the
// tree offers; each must have a nav type.
func (s *Service) CreateTree(ctx context.Context, name string, kinds []string) (types.Tree, error) {
	if err := validation.TreeName(name); err != nil {
		return types.Tree{}, err
	}
	if err := validation.TreeTypes(kinds); err != nil {
		return types.Tree{}, err
	}

	tree := types.Tree{
		ID:         s.newID(),
		Name:       name,
		LastUpdate: s.now(),
		Types:      append([]string(nil), kinds...),
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireNavTypes(tx, kinds); err != nil {
			return err
		}
		return tx.CreateTree(tree)
	})
	if err != nil {
		return types.Tree{}, err
	}

	s.logger.Info("tree created", "tree_id", tree.ID, "name", name)
	s.publish(EventTreeCreated, tree.ID)
	return tree, nil
}

// EnsureTree returns the tree called name, creating it when missing
func (s *Service) EnsureTree(ctx context.Context, name string) (types.Tree, error) {
	tree, err := s.TreeByName(ctx, name)
	if err == nil || !errors.Is(err, types.ErrNotFound) {
		return tree, err
	}
	return s.CreateTree(ctx, name, nil)
}

func requireNavTypes(tx store.Tx, kinds []string) error {
	for _, k := range kinds {
		if _, err := tx.GetNavType(k); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return types.Invalid("%s is not a navigation type", k)
			}
			return err
		}
	}
	return nil
}

// GetTree returns a tree by id
func (s *Service) GetTree(ctx context.Context, id string) (types.Tree, error) {
	var tree types.Tree
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		tree, err = tx.GetTree(id)
		return err
	})
	return tree, err
}

// TreeByName returns a tree by its unique name
func (s *Service) TreeByName(ctx context.Context, name string) (types.Tree, error) {
	var tree types.Tree
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		tree, err = tx.GetTreeByName(name)
		return err
	})
	return tree, err
}

// ListTrees returns every tree sorted by name
func (s *Service) ListTrees(ctx context.Context) ([]types.Tree, error) {
	var trees []types.Tree
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		trees, err = tx.ListTrees()
		return err
	})
	return trees, err
}

// RenameTree changes a tree's name
func (s *Service) RenameTree(ctx context.Context, id, name string) (types.Tree, error) {
	if err := validation.TreeName(name); err != nil {
		return types.Tree{}, err
	}
	return s.updateTree(ctx, id, func(t *types.Tree) { t.Name = name })
}

// SetTreeTypes replaces the content kinds a tree offers
func (s *Service) SetTreeTypes(ctx context.Context, id string, kinds []string) (types.Tree, error) {
	if err := validation.TreeTypes(kinds); err != nil {
		return types.Tree{}, err
	}
	return s.updateTree(ctx, id, func(t *types.Tree) { t.Types = append([]string(nil), kinds...) })
}

func (s *Service) updateTree(ctx context.Context, id string, change func(*types.Tree)) (types.Tree, error) {
	var tree types.Tree
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		if tree, err = tx.GetTree(id); err != nil {
			return err
		}
		change(&tree)
		if err := requireNavTypes(tx, tree.Types); err != nil {
			return err
		}
		tree.LastUpdate = s.now()
		return tx.UpdateTree(tree)
	})
	if err != nil {
		return types.Tree{}, err
	}
	s.publish(EventTreeUpdated, id)
	return tree, nil
}

// DeleteTree removes a tree and all its nodes
func (s *Service) DeleteTree(ctx context.Context, id string) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteTree(id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("tree deleted", "tree_id", id)
	s.publish(EventTreeDeleted, id)
	return nil
}

// RootNodes returns the top-level nodes of a tree in display order
func (s *Service) RootNodes(ctx context.Context, treeID string) ([]types.Node, error) {
	return s.ListChildren(ctx, treeID, "")
}

// RootNodesCount returns the number of top-level nodes
func (s *Service) RootNodesCount(ctx context.Context, treeID string) (int, error) {
	roots, err := s.RootNodes(ctx, treeID)
	return len(roots), err
}

// SetNavType declares a registered content kind as navigable
func (s *Service) SetNavType(ctx context.Context, nt types.NavType) error {
	if err := validation.NavType(nt); err != nil {
		return err
	}
	if _, ok := s.contents.Source(nt.Kind); !ok {
		return types.Invalid("content type %q is not registered", nt.Kind)
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		return tx.PutNavType(nt)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("nav type set", "kind", nt.Kind, "label_rule", nt.LabelRule.String())
	s.publish(EventNavTypesModified, "")
	return nil
}

// NavTypes returns the configured nav types sorted by kind
func (s *Service) NavTypes(ctx context.Context) ([]types.NavType, error) {
	var nts []types.NavType
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		nts, err = tx.ListNavTypes()
		return err
	})
	return nts, err
}

// DeleteNavType removes a nav type and drops it from every tree's types.
// Existing nodes bound to that kind stay in place.
func (s *Service) DeleteNavType(ctx context.Context, kind string) error {
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := tx.DeleteNavType(kind); err != nil {
			return err
		}
		trees, err := tx.ListTrees()
		if err != nil {
			return err
		}
		for _, tree := range trees {
			kept := tree.Types[:0:0]
			for _, k := range tree.Types {
				if k != kind {
					kept = append(kept, k)
				}
			}
			if len(kept) == len(tree.Types) {
				continue
			}
			tree.Types = kept
			tree.LastUpdate = s.now()
			if err := tx.UpdateTree(tree); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(EventNavTypesModified, "")
	return nil
}

// EnsureNavTypes adds the given nav types unless a row for the kind exists
func (s *Service) EnsureNavTypes(ctx context.Context, defaults []types.NavType) error {
	return s.store.Update(ctx, func(tx store.Tx) error {
		for _, nt := range defaults {
			if _, ok := s.contents.Source(nt.Kind); !ok {
				continue
			}
			_, err := tx.GetNavType(nt.Kind)
			if err == nil {
				continue
			}
			if !errors.Is(err, types.ErrNotFound) {
				return err
			}
			if err := validation.NavType(nt); err != nil {
				return err
			}
			if err := tx.PutNavType(nt); err != nil {
				return err
			}
		}
		return nil
	})
}
