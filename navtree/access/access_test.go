package access

import (
	"context"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/types"
)

func fixture(t *testing.T) (*content.Builtins, *types.NodeIndex) {
	t.Helper()
	b := content.NewBuiltins()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(b.Articles.Put(&content.Article{ID: "pub", Title: "Public", Slug: "public", Status: content.Published}))
	must(b.Articles.Put(&content.Article{ID: "draft", Title: "Draft", Slug: "draft", Status: content.Draft}))
	must(b.Links.Put(&content.Link{ID: "ext", Title: "Go", Href: "https://go.dev/"}))

	art := func(id string) types.ContentRef { return types.ContentRef{Kind: content.ArticleKind, ID: id} }
	nodes := []types.Node{
		{ID: "empty", Label: "Empty", Ordering: 0, Visible: true},
		{ID: "folder", Label: "Folder", Ordering: 1, Visible: false},
		{ID: "f-pub", ParentID: "folder", Label: "Public", Ordering: 0, Visible: true, Content: art("pub")},
		{ID: "hidden-folder", Label: "Hidden", Ordering: 2, Visible: true},
		{ID: "h-draft", ParentID: "hidden-folder", Label: "Draft", Ordering: 0, Visible: true, Content: art("draft")},
		{ID: "deep", Label: "Deep", Ordering: 3, Visible: true},
		{ID: "deep-1", ParentID: "deep", Label: "Deep 1", Ordering: 0, Visible: false},
		{ID: "deep-2", ParentID: "deep-1", Label: "Deep 2", Ordering: 0, Visible: false, Content: art("pub")},
		{ID: "dangling", Label: "Dangling", Ordering: 4, Visible: true, Content: art("gone")},
		{ID: "link", Label: "Link", Ordering: 5, Visible: true, Content: types.ContentRef{Kind: content.LinkKind, ID: "ext"}},
	}
	return b, types.NewNodeIndex(nodes)
}

func TestIsAccessible(t *testing.T) {
	b, idx := fixture(t)
	ctx := context.Background()

	tests := []struct {
		node   string
		viewer content.Viewer
		want   bool
	}{
		{"empty", content.Viewer{}, false},
		{"folder", content.Viewer{}, true},
		{"f-pub", content.Viewer{}, true},
		{"hidden-folder", content.Viewer{}, false},
		{"hidden-folder", content.Viewer{Staff: true}, true},
		{"h-draft", content.Viewer{}, false},
		{"deep", content.Viewer{}, true},
		{"dangling", content.Viewer{}, false},
		{"link", content.Viewer{}, true},
	}
	for _, tt := range tests {
		name := tt.node
		if tt.viewer.Staff {
			name += "/staff"
		}
		t.Run(name, func(t *testing.T) {
			n, ok := idx.Get(tt.node)
			if !ok {
				t.Fatalf("node %q missing", tt.node)
			}
			c := New(b.Registry(), tt.viewer)
			if got := c.IsAccessible(ctx, idx, n); got != tt.want {
				t.Errorf("IsAccessible(%s) = %v, want %v", tt.node, got, tt.want)
			}
		})
	}
}

func TestAccessibilityIndependentOfVisibility(t *testing.T) {
	b, idx := fixture(t)
	ctx := context.Background()
	c := New(b.Registry(), content.Viewer{})

	folder, _ := idx.Get("folder")
	if folder.Visible {
		t.Fatal("fixture folder must be hidden")
	}
	if !c.IsAccessible(ctx, idx, folder) {
		t.Error("hidden folder with an accessible child should be accessible")
	}
	if c.InNavigation(ctx, idx, folder) {
		t.Error("hidden folder must not be in navigation")
	}
}

func TestNavigableChildren(t *testing.T) {
	b, idx := fixture(t)
	ctx := context.Background()

	ids := func(nodes []types.Node) []string {
		var out []string
		for _, n := range nodes {
			out = append(out, n.ID)
		}
		return out
	}

	c := New(b.Registry(), content.Viewer{})
	if diff := cmp.Diff([]string{"deep", "link"}, ids(c.NavigableChildren(ctx, idx, ""))); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}

	staff := New(b.Registry(), content.Viewer{Staff: true})
	link, _ := idx.Get("link")
	if diff := cmp.Diff([]string{"hidden-folder", "deep", "link"}, ids(staff.Siblings(ctx, idx, link))); diff != "" {
		t.Errorf("siblings mismatch (-want +got):\n%s", diff)
	}
}

func TestExternalAndURL(t *testing.T) {
	b, idx := fixture(t)
	ctx := context.Background()
	c := New(b.Registry(), content.Viewer{})

	link, _ := idx.Get("link")
	pub, _ := idx.Get("f-pub")
	empty, _ := idx.Get("empty")

	if !c.IsExternal(ctx, link) || c.IsExternal(ctx, pub) || c.IsExternal(ctx, empty) {
		t.Error("only the link node is external")
	}
	if got := c.URL(ctx, pub); got != "/public/" {
		t.Errorf("unexpected url %q", got)
	}
	if got := c.URL(ctx, empty); got != "" {
		t.Errorf("empty node should have no url, got %q", got)
	}
}

func TestDeepChainTerminates(t *testing.T) {
	b, _ := fixture(t)
	const depth = 10000
	nodes := make([]types.Node, 0, depth+1)
	parent := ""
	for i := 0; i < depth; i++ {
		id := "n" + strconv.Itoa(i)
		nodes = append(nodes, types.Node{ID: id, ParentID: parent, Label: id, Visible: true})
		parent = id
	}
	nodes = append(nodes, types.Node{ID: "leaf", ParentID: parent, Label: "leaf",
		Content: types.ContentRef{Kind: content.ArticleKind, ID: "pub"}})
	idx := types.NewNodeIndex(nodes)

	c := New(b.Registry(), content.Viewer{})
	if !c.IsAccessible(context.Background(), idx, nodes[0]) {
		t.Error("root of a deep chain ending in public content should be accessible")
	}
}
