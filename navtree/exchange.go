package navtree

import (
	"context"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/navtree/internal/validation"
	"github.com/arthur-debert/navtree/navtree/store"
	"github.com/arthur-debert/navtree/types"
)

// Document is the portable form of a store: nav types and trees with their
// nodes nested in display order. Ids are not kept; importing assigns new
// ones.
type Document struct {
	NavTypes []types.NavType `yaml:"navtypes,omitempty"`
	Trees    []TreeDocument  `yaml:"trees"`
}

// TreeDocument is one exported tree
type TreeDocument struct {
	Name  string         `yaml:"name"`
	Types []string       `yaml:"types,omitempty"`
	Nodes []NodeDocument `yaml:"nodes,omitempty"`
}

// NodeDocument is one exported node
type NodeDocument struct {
	Label    string           `yaml:"label"`
	Content  types.ContentRef `yaml:"content,omitempty"`
	Hidden   bool             `yaml:"hidden,omitempty"`
	Children []NodeDocument   `yaml:"children,omitempty"`
}

// Export returns the trees with the given ids, or every tree when none is
// given, along with all nav types.
func (s *Service) Export(ctx context.Context, treeIDs ...string) (Document, error) {
	var doc Document
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		if doc.NavTypes, err = tx.ListNavTypes(); err != nil {
			return err
		}
		var trees []types.Tree
		if len(treeIDs) == 0 {
			if trees, err = tx.ListTrees(); err != nil {
				return err
			}
		}
		for _, id := range treeIDs {
			tree, err := tx.GetTree(id)
			if err != nil {
				return err
			}
			trees = append(trees, tree)
		}

		for _, tree := range trees {
			nodes, err := tx.TreeNodes(tree.ID)
			if err != nil {
				return err
			}
			doc.Trees = append(doc.Trees, TreeDocument{
				Name:  tree.Name,
				Types: tree.Types,
				Nodes: nest(types.NewNodeIndex(nodes)),
			})
		}
		return nil
	})
	return doc, err
}

// nest builds the nested node documents of idx without recursion
func nest(idx *types.NodeIndex) []NodeDocument {
	type frame struct {
		kids []types.Node
		next int
		docs []NodeDocument
	}
	toDoc := func(n types.Node) NodeDocument {
		return NodeDocument{Label: n.Label, Content: n.Content, Hidden: !n.Visible}
	}

	seen := make(map[string]bool)
	stack := []*frame{{kids: idx.Roots()}}
	for {
		top := stack[len(stack)-1]
		if top.next < len(top.kids) {
			n := top.kids[top.next]
			top.next++
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			top.docs = append(top.docs, toDoc(n))
			stack = append(stack, &frame{kids: idx.Children(n.ID)})
			continue
		}
		if len(stack) == 1 {
			return top.docs
		}
		stack = stack[:len(stack)-1]
		parent := stack[len(stack)-1]
		parent.docs[len(parent.docs)-1].Children = top.docs
	}
}

// Import creates the document's nav types and trees in one transaction.
// A tree whose name is taken fails the whole import.
func (s *Service) Import(ctx context.Context, doc Document) ([]types.Tree, error) {
	for _, nt := range doc.NavTypes {
		if err := validation.NavType(nt); err != nil {
			return nil, err
		}
	}
	for _, td := range doc.Trees {
		if err := validation.TreeName(td.Name); err != nil {
			return nil, err
		}
		if err := validation.TreeTypes(td.Types); err != nil {
			return nil, err
		}
	}

	var created []types.Tree
	err := s.store.Update(ctx, func(tx store.Tx) error {
		created = created[:0]
		for _, nt := range doc.NavTypes {
			if _, ok := s.contents.Source(nt.Kind); !ok {
				return types.Invalid("content type %q is not registered", nt.Kind)
			}
			if err := tx.PutNavType(nt); err != nil {
				return err
			}
		}
		for _, td := range doc.Trees {
			tree, err := s.importTree(ctx, tx, td)
			if err != nil {
				return err
			}
			created = append(created, tree)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, tree := range created {
		s.logger.Info("tree imported", "tree_id", tree.ID, "name", tree.Name)
		s.publish(EventTreeCreated, tree.ID)
	}
	return created, nil
}

func (s *Service) importTree(ctx context.Context, tx store.Tx, td TreeDocument) (types.Tree, error) {
	if err := requireNavTypes(tx, td.Types); err != nil {
		return types.Tree{}, err
	}
	tree := types.Tree{
		ID:         s.newID(),
		Name:       td.Name,
		LastUpdate: s.now(),
		Types:      append([]string(nil), td.Types...),
	}
	if err := tx.CreateTree(tree); err != nil {
		return types.Tree{}, err
	}

	type pending struct {
		parentID string
		doc      NodeDocument
	}
	// children are pushed in reverse so siblings are appended in order
	var queue []pending
	push := func(parentID string, docs []NodeDocument) {
		for i := len(docs) - 1; i >= 0; i-- {
			queue = append(queue, pending{parentID: parentID, doc: docs[i]})
		}
	}
	push("", td.Nodes)
	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		node, err := s.createNode(ctx, tx, tree.ID, NodeSpec{
			ParentID: p.parentID,
			Label:    p.doc.Label,
			Content:  p.doc.Content,
			Hidden:   p.doc.Hidden,
		})
		if err != nil {
			return types.Tree{}, err
		}
		push(node.ID, p.doc.Children)
	}
	return tree, nil
}

// WriteDocument encodes doc as YAML
func WriteDocument(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// ReadDocument decodes a YAML document
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return doc, nil
		}
		return Document{}, types.Invalid("invalid navigation document: %v", err)
	}
	return doc, nil
}
