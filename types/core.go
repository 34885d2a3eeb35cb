// Package types holds the domain types shared by the navigation store, the
// ordering engine, the dispatcher and the renderers. It has no dependencies on
// the rest of the module so every layer can import it.
package types

import "time"

// Tree is a named, independent forest of navigation nodes.
type Tree struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	LastUpdate time.Time `json:"last_update" yaml:"last_update"`
	// Types restricts which content kinds may be bound in this tree.
	// Empty means every registered nav type is allowed.
	Types []string `json:"types,omitempty" yaml:"types,omitempty"`
}

// AllowsKind reports whether content of the given kind may be bound in the tree.
func (t Tree) AllowsKind(kind string) bool {
	if len(t.Types) == 0 {
		return true
	}
	for _, k := range t.Types {
		if k == kind {
			return true
		}
	}
	return false
}

// ContentRef identifies an externally-owned content object.
type ContentRef struct {
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
}

// IsZero reports whether the reference points to nothing (an empty folder node).
func (r ContentRef) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

func (r ContentRef) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Kind + ":" + r.ID
}

// Node is an entry in a navigation tree.
type Node struct {
	ID       string `json:"id" yaml:"id"`
	TreeID   string `json:"tree_id" yaml:"tree_id"`
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"` // "" for root nodes
	Label    string `json:"label" yaml:"label"`
	Ordering int    `json:"ordering" yaml:"ordering"`
	// Content is the bound content object; zero for empty folder nodes.
	Content ContentRef `json:"content,omitempty" yaml:"content,omitempty"`
	// Visible is the editorial "in navigation" flag. It is independent of
	// accessibility, which is decided by the bound content.
	Visible bool `json:"visible" yaml:"visible"`
}

// IsRoot reports whether the node sits at the top level of its tree.
func (n Node) IsRoot() bool {
	return n.ParentID == ""
}

// HasContent reports whether the node is bound to a content object.
func (n Node) HasContent() bool {
	return !n.Content.IsZero()
}

// RefPosition tells the ordering engine on which side of the reference
// sibling a moved node lands.
type RefPosition string

const (
	Before RefPosition = "before"
	After  RefPosition = "after"
)

// Valid reports whether p is one of the known positions.
func (p RefPosition) Valid() bool {
	return p == Before || p == After
}
