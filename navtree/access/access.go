// Package access decides whether navigation nodes may be shown to a viewer.
//
// A node bound to content takes the answer from the content's capabilities.
// A node without content (or whose content can no longer be resolved) is
// accessible when at least one descendant reached through such nodes is.
// The editorial Visible flag plays no part in accessibility.
package access

import (
	"context"

	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/types"
)

// Resolver looks content up for nodes
type Resolver interface {
	Resolve(ctx context.Context, ref types.ContentRef) (content.Object, error)
}

// Tree gives access to a tree's children. *types.NodeIndex implements it.
type Tree interface {
	Children(parentID string) []types.Node
}

// Checker answers accessibility questions for one viewer
type Checker struct {
	resolver Resolver
	viewer   content.Viewer
}

// New returns a checker for viewer
func New(resolver Resolver, viewer content.Viewer) *Checker {
	return &Checker{resolver: resolver, viewer: viewer}
}

// Viewer returns the viewer the checker was built for
func (c *Checker) Viewer() content.Viewer {
	return c.viewer
}

// Content returns the object bound to node, if it resolves
func (c *Checker) Content(ctx context.Context, node types.Node) (content.Object, bool) {
	if !node.HasContent() {
		return nil, false
	}
	obj, err := c.resolver.Resolve(ctx, node.Content)
	if err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// IsAccessible walks down from node with an explicit stack. Bound content
// answers for its node; contentless nodes defer to their children.
func (c *Checker) IsAccessible(ctx context.Context, tree Tree, node types.Node) bool {
	stack := []types.Node{node}
	seen := make(map[string]bool)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true

		if obj, ok := c.Content(ctx, n); ok {
			if content.IsAccessible(obj, c.viewer) {
				return true
			}
			if n.ID == node.ID {
				return false
			}
			continue
		}
		kids := tree.Children(n.ID)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return false
}

// IsExternal reports the bound content's Externaler capability
func (c *Checker) IsExternal(ctx context.Context, node types.Node) bool {
	obj, ok := c.Content(ctx, node)
	return ok && content.IsExternal(obj)
}

// URL returns the link target of the bound content, "" without one
func (c *Checker) URL(ctx context.Context, node types.Node) string {
	obj, ok := c.Content(ctx, node)
	if !ok {
		return ""
	}
	return content.URL(obj)
}

// InNavigation reports whether node is visible and accessible
func (c *Checker) InNavigation(ctx context.Context, tree Tree, node types.Node) bool {
	return node.Visible && c.IsAccessible(ctx, tree, node)
}

// NavigableChildren returns the visible, accessible children of parentID
// ("" for the roots) in display order.
func (c *Checker) NavigableChildren(ctx context.Context, tree Tree, parentID string) []types.Node {
	var out []types.Node
	for _, child := range tree.Children(parentID) {
		if c.InNavigation(ctx, tree, child) {
			out = append(out, child)
		}
	}
	return out
}

// Siblings returns the visible, accessible nodes sharing node's parent,
// node included.
func (c *Checker) Siblings(ctx context.Context, tree Tree, node types.Node) []types.Node {
	return c.NavigableChildren(ctx, tree, node.ParentID)
}
