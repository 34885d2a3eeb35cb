package store

import (
	"sort"

	"github.com/arthur-debert/navtree/navtree/storage"
	"github.com/arthur-debert/navtree/types"
)

// jsonTx operates on a StoreData value. Inside Update it owns a private
// clone; inside View it reads the shared data and refuses writes.
type jsonTx struct {
	data     *storage.StoreData
	readOnly bool
}

func (tx *jsonTx) writable() error {
	if tx.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (tx *jsonTx) treeIndex(id string) int {
	for i, t := range tx.data.Trees {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (tx *jsonTx) nodeIndex(treeID, id string) int {
	for i, n := range tx.data.Nodes {
		if n.ID == id && n.TreeID == treeID {
			return i
		}
	}
	return -1
}

func (tx *jsonTx) CreateTree(tree types.Tree) error {
	if err := tx.writable(); err != nil {
		return err
	}
	for _, t := range tx.data.Trees {
		if t.ID == tree.ID {
			return types.Invalid("tree id %q already exists", tree.ID)
		}
		if t.Name == tree.Name {
			return duplicateTreeName(tree.Name)
		}
	}
	tree.Types = append([]string(nil), tree.Types...)
	tx.data.Trees = append(tx.data.Trees, tree)
	return nil
}

func (tx *jsonTx) GetTree(id string) (types.Tree, error) {
	if i := tx.treeIndex(id); i >= 0 {
		return tx.data.Trees[i], nil
	}
	return types.Tree{}, types.NotFound("tree", id)
}

func (tx *jsonTx) GetTreeByName(name string) (types.Tree, error) {
	for _, t := range tx.data.Trees {
		if t.Name == name {
			return t, nil
		}
	}
	return types.Tree{}, types.NotFound("tree", name)
}

func (tx *jsonTx) ListTrees() ([]types.Tree, error) {
	out := append([]types.Tree(nil), tx.data.Trees...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (tx *jsonTx) UpdateTree(tree types.Tree) error {
	if err := tx.writable(); err != nil {
		return err
	}
	i := tx.treeIndex(tree.ID)
	if i < 0 {
		return types.NotFound("tree", tree.ID)
	}
	for _, t := range tx.data.Trees {
		if t.ID != tree.ID && t.Name == tree.Name {
			return duplicateTreeName(tree.Name)
		}
	}
	tree.Types = append([]string(nil), tree.Types...)
	tx.data.Trees[i] = tree
	return nil
}

func (tx *jsonTx) DeleteTree(id string) error {
	if err := tx.writable(); err != nil {
		return err
	}
	i := tx.treeIndex(id)
	if i < 0 {
		return types.NotFound("tree", id)
	}
	tx.data.Trees = append(tx.data.Trees[:i], tx.data.Trees[i+1:]...)

	kept := tx.data.Nodes[:0]
	for _, n := range tx.data.Nodes {
		if n.TreeID != id {
			kept = append(kept, n)
		}
	}
	tx.data.Nodes = kept
	return nil
}

func (tx *jsonTx) PutNavType(nt types.NavType) error {
	if err := tx.writable(); err != nil {
		return err
	}
	for i, existing := range tx.data.NavTypes {
		if existing.Kind == nt.Kind {
			tx.data.NavTypes[i] = nt
			return nil
		}
	}
	tx.data.NavTypes = append(tx.data.NavTypes, nt)
	return nil
}

func (tx *jsonTx) GetNavType(kind string) (types.NavType, error) {
	for _, nt := range tx.data.NavTypes {
		if nt.Kind == kind {
			return nt, nil
		}
	}
	return types.NavType{}, types.NotFound("nav type", kind)
}

func (tx *jsonTx) ListNavTypes() ([]types.NavType, error) {
	out := append([]types.NavType(nil), tx.data.NavTypes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}

func (tx *jsonTx) DeleteNavType(kind string) error {
	if err := tx.writable(); err != nil {
		return err
	}
	for i, nt := range tx.data.NavTypes {
		if nt.Kind == kind {
			tx.data.NavTypes = append(tx.data.NavTypes[:i], tx.data.NavTypes[i+1:]...)
			return nil
		}
	}
	return types.NotFound("nav type", kind)
}

func (tx *jsonTx) InsertNode(node types.Node) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if tx.treeIndex(node.TreeID) < 0 {
		return types.NotFound("tree", node.TreeID)
	}
	if node.ParentID != "" && tx.nodeIndex(node.TreeID, node.ParentID) < 0 {
		return types.NotFound("node", node.ParentID)
	}
	for _, n := range tx.data.Nodes {
		if n.ID == node.ID {
			return types.Invalid("node id %q already exists", node.ID)
		}
		if node.HasContent() && n.TreeID == node.TreeID && n.Content == node.Content {
			return duplicateBinding(node.Content)
		}
	}
	tx.data.Nodes = append(tx.data.Nodes, node)
	return nil
}

func (tx *jsonTx) GetNode(treeID, id string) (types.Node, error) {
	if i := tx.nodeIndex(treeID, id); i >= 0 {
		return tx.data.Nodes[i], nil
	}
	return types.Node{}, types.NotFound("node", id)
}

func (tx *jsonTx) UpdateNode(node types.Node) error {
	if err := tx.writable(); err != nil {
		return err
	}
	i := tx.nodeIndex(node.TreeID, node.ID)
	if i < 0 {
		return types.NotFound("node", node.ID)
	}
	tx.data.Nodes[i] = node
	return nil
}

func (tx *jsonTx) DeleteNodes(treeID string, ids []string) error {
	if err := tx.writable(); err != nil {
		return err
	}
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}
	kept := tx.data.Nodes[:0]
	for _, n := range tx.data.Nodes {
		if n.TreeID == treeID && doomed[n.ID] {
			continue
		}
		kept = append(kept, n)
	}
	tx.data.Nodes = kept
	return nil
}

func (tx *jsonTx) Children(treeID, parentID string) ([]types.Node, error) {
	var out []types.Node
	for _, n := range tx.data.Nodes {
		if n.TreeID == treeID && n.ParentID == parentID {
			out = append(out, n)
		}
	}
	types.SortSiblings(out)
	return out, nil
}

func (tx *jsonTx) TreeNodes(treeID string) ([]types.Node, error) {
	var out []types.Node
	for _, n := range tx.data.Nodes {
		if n.TreeID == treeID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (tx *jsonTx) NodesByContent(ref types.ContentRef) ([]types.Node, error) {
	if ref.IsZero() {
		return nil, nil
	}
	var out []types.Node
	for _, n := range tx.data.Nodes {
		if n.Content == ref {
			out = append(out, n)
		}
	}
	return out, nil
}
