// Package render turns a tree snapshot into the HTML fragments sites embed:
// nested navigation lists, breadcrumbs, child and sibling menus, and the
// jstree markup of the tree editor.
//
// Every walk is iterative and skips nodes it has already seen, so a deep or
// corrupted tree cannot exhaust the stack.
package render

import (
	"context"
	"html"
	"strings"

	"github.com/arthur-debert/navtree/navtree/access"
	"github.com/arthur-debert/navtree/types"
)

// DefaultActiveClass marks the node whose URL is the current path
const DefaultActiveClass = "active-node"

// Renderer renders one tree for one viewer
type Renderer struct {
	idx     *types.NodeIndex
	checker *access.Checker

	// CurrentPath is the path of the page being served
	CurrentPath string
	// CSSClass is added to every li
	CSSClass string
	// ActiveClass replaces DefaultActiveClass when set
	ActiveClass string
}

// New returns a renderer over idx
func New(idx *types.NodeIndex, checker *access.Checker, currentPath string) *Renderer {
	return &Renderer{idx: idx, checker: checker, CurrentPath: currentPath}
}

// IsActiveNode reports whether node links to currentPath
func (r *Renderer) IsActiveNode(ctx context.Context, node types.Node, currentPath string) bool {
	url := r.checker.URL(ctx, node)
	return url != "" && url == currentPath
}

// link renders the anchor of a node
func (r *Renderer) link(ctx context.Context, node types.Node) string {
	label := html.EscapeString(node.Label)
	url := r.checker.URL(ctx, node)
	if url == "" {
		return "<a>" + label + "</a>"
	}
	target := ""
	if r.checker.IsExternal(ctx, node) {
		target = ` target="_blank"`
	}
	return `<a href="` + html.EscapeString(url) + `"` + target + ">" + label + "</a>"
}

func (r *Renderer) liOpen(classes ...string) string {
	var kept []string
	for _, c := range classes {
		if c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return "<li>"
	}
	return `<li class="` + html.EscapeString(strings.Join(kept, " ")) + `">`
}

func (r *Renderer) activeClass(ctx context.Context, node types.Node) string {
	if !r.IsActiveNode(ctx, node, r.CurrentPath) {
		return ""
	}
	if r.ActiveClass != "" {
		return r.ActiveClass
	}
	return DefaultActiveClass
}

// navFrame is a node whose li is being assembled
type navFrame struct {
	node  types.Node
	kids  []types.Node
	next  int
	inner strings.Builder
}

// AsNavigation renders node and its navigable descendants as nested
// <li>/<ul> elements. It returns "" when node is hidden or inaccessible.
func (r *Renderer) AsNavigation(ctx context.Context, node types.Node) string {
	if !r.checker.InNavigation(ctx, r.idx, node) {
		return ""
	}
	seen := map[string]bool{node.ID: true}
	stack := []*navFrame{{node: node, kids: r.checker.NavigableChildren(ctx, r.idx, node.ID)}}
	var out string

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.kids) {
			child := top.kids[top.next]
			top.next++
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			stack = append(stack, &navFrame{node: child, kids: r.checker.NavigableChildren(ctx, r.idx, child.ID)})
			continue
		}

		stack = stack[:len(stack)-1]
		var b strings.Builder
		b.WriteString(r.liOpen(r.CSSClass, r.activeClass(ctx, top.node)))
		b.WriteString(r.link(ctx, top.node))
		if top.inner.Len() > 0 {
			b.WriteString("<ul>")
			b.WriteString(top.inner.String())
			b.WriteString("</ul>")
		}
		b.WriteString("</li>")

		if len(stack) == 0 {
			out = b.String()
		} else {
			stack[len(stack)-1].inner.WriteString(b.String())
		}
	}
	return out
}

// RootsAsNavigation renders every navigable root with AsNavigation
func (r *Renderer) RootsAsNavigation(ctx context.Context) string {
	var b strings.Builder
	for _, root := range r.idx.Roots() {
		b.WriteString(r.AsNavigation(ctx, root))
	}
	return b.String()
}

// Breadcrumb renders the path from the root down to node, one li each
func (r *Renderer) Breadcrumb(ctx context.Context, node types.Node) string {
	var b strings.Builder
	for _, n := range append(r.idx.Ancestors(node.ID), node) {
		b.WriteString(r.liOpen(r.CSSClass))
		b.WriteString(r.link(ctx, n))
		b.WriteString("</li>")
	}
	return b.String()
}

func (r *Renderer) flat(ctx context.Context, nodes []types.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(r.liOpen(r.CSSClass))
		b.WriteString(r.link(ctx, n))
		b.WriteString("</li>")
	}
	return b.String()
}

// ChildrenAsNavigation renders the navigable children of node as a flat
// list of li
func (r *Renderer) ChildrenAsNavigation(ctx context.Context, node types.Node) string {
	return r.flat(ctx, r.checker.NavigableChildren(ctx, r.idx, node.ID))
}

// SiblingsAsNavigation renders the navigable nodes sharing node's parent,
// node included
func (r *Renderer) SiblingsAsNavigation(ctx context.Context, node types.Node) string {
	return r.flat(ctx, r.checker.Siblings(ctx, r.idx, node))
}

// jsFrame is a node whose jstree li is being assembled
type jsFrame struct {
	node  types.Node
	next  int
	inner strings.Builder
}

// AsJSTree renders node and all its descendants, hidden ones included, for
// the tree editor. rel is in_nav for visible accessible nodes.
func (r *Renderer) AsJSTree(ctx context.Context, node types.Node) string {
	seen := map[string]bool{node.ID: true}
	stack := []*jsFrame{{node: node}}
	var out string

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		kids := r.idx.Children(top.node.ID)
		if top.next < len(kids) {
			child := kids[top.next]
			top.next++
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			stack = append(stack, &jsFrame{node: child})
			continue
		}

		stack = stack[:len(stack)-1]
		rel := "out_nav"
		if r.checker.InNavigation(ctx, r.idx, top.node) {
			rel = "in_nav"
		}
		li := `<li id="node_` + html.EscapeString(top.node.ID) + `" rel="` + rel + `">` +
			r.link(ctx, top.node) + "<ul>" + top.inner.String() + "</ul></li>"

		if len(stack) == 0 {
			out = li
		} else {
			stack[len(stack)-1].inner.WriteString(li)
		}
	}
	return out
}

// TreeAsJSTree renders every root with AsJSTree
func (r *Renderer) TreeAsJSTree(ctx context.Context) string {
	var b strings.Builder
	for _, root := range r.idx.Roots() {
		b.WriteString(r.AsJSTree(ctx, root))
	}
	return b.String()
}

// Progeny returns node and its descendants in display order with their
// depth below node
func (r *Renderer) Progeny(node types.Node) []types.LeveledNode {
	return r.idx.Progeny(node.ID)
}
