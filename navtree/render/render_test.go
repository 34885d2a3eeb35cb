package render_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/navtree/navtree/access"
	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/navtree/render"
	"github.com/arthur-debert/navtree/navtree/testutil"
	"github.com/arthur-debert/navtree/types"
)

func registry(t *testing.T) *content.Registry {
	t.Helper()
	b := content.NewBuiltins()
	if err := b.Load(strings.NewReader(testutil.Catalog)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return b.Registry()
}

func node(id, parent, label string, ordering int, ref types.ContentRef, visible bool) types.Node {
	return types.Node{ID: id, TreeID: "t", ParentID: parent, Label: label, Ordering: ordering, Content: ref, Visible: visible}
}

// fixture:
//
//	home   Home      article 1 (homepage)
//	about  About     empty
//	  us   About us  article 2
//	  team Our team  article 3, hidden
//	go     Go & co   link 1 (external)
//	wip    Drafts    article 4 (draft)
func fixture(t *testing.T, path string) (*render.Renderer, map[string]types.Node) {
	t.Helper()
	nodes := []types.Node{
		node("home", "", "Home", 0, testutil.Article("1"), true),
		node("about", "", "About", 1, types.ContentRef{}, true),
		node("us", "about", "About us", 0, testutil.Article("2"), true),
		node("team", "about", "Our team", 1, testutil.Article("3"), false),
		node("go", "", "Go & co", 2, testutil.Link("1"), true),
		node("wip", "", "Drafts", 3, testutil.Article("4"), true),
	}
	byID := make(map[string]types.Node)
	for _, n := range nodes {
		byID[n.ID] = n
	}
	checker := access.New(registry(t), content.Viewer{})
	return render.New(types.NewNodeIndex(nodes), checker, path), byID
}

func TestAsNavigation(t *testing.T) {
	ctx := context.Background()
	r, n := fixture(t, "/about/")

	got := r.AsNavigation(ctx, n["about"])
	want := `<li><a>About</a><ul><li class="active-node"><a href="/about/">About us</a></li></ul></li>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AsNavigation mismatch (-want +got):\n%s", diff)
	}

	for _, id := range []string{"team", "wip"} {
		if got := r.AsNavigation(ctx, n[id]); got != "" {
			t.Errorf("%s should not render, got %q", id, got)
		}
	}
}

func TestRootsAsNavigation(t *testing.T) {
	r, _ := fixture(t, "/")
	r.CSSClass = "menu"
	r.ActiveClass = "current"

	got := r.RootsAsNavigation(context.Background())
	want := `<li class="menu current"><a href="/">Home</a></li>` +
		`<li class="menu"><a>About</a><ul><li class="menu"><a href="/about/">About us</a></li></ul></li>` +
		`<li class="menu"><a href="https://go.dev/" target="_blank">Go &amp; co</a></li>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RootsAsNavigation mismatch (-want +got):\n%s", diff)
	}
}

func TestBreadcrumb(t *testing.T) {
	r, n := fixture(t, "")
	got := r.Breadcrumb(context.Background(), n["team"])
	want := `<li><a>About</a></li><li><a href="/team/">Our team</a></li>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Breadcrumb mismatch (-want +got):\n%s", diff)
	}
}

func TestChildrenAndSiblings(t *testing.T) {
	ctx := context.Background()
	r, n := fixture(t, "")

	if got, want := r.ChildrenAsNavigation(ctx, n["about"]), `<li><a href="/about/">About us</a></li>`; got != want {
		t.Errorf("ChildrenAsNavigation = %q, want %q", got, want)
	}
	if got := r.ChildrenAsNavigation(ctx, n["home"]); got != "" {
		t.Errorf("leaf should have no children, got %q", got)
	}

	got := r.SiblingsAsNavigation(ctx, n["home"])
	want := `<li><a href="/">Home</a></li><li><a>About</a></li><li><a href="https://go.dev/" target="_blank">Go &amp; co</a></li>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SiblingsAsNavigation mismatch (-want +got):\n%s", diff)
	}
}

func TestAsJSTree(t *testing.T) {
	r, n := fixture(t, "")
	got := r.AsJSTree(context.Background(), n["about"])
	want := `<li id="node_about" rel="in_nav"><a>About</a><ul>` +
		`<li id="node_us" rel="in_nav"><a href="/about/">About us</a><ul></ul></li>` +
		`<li id="node_team" rel="out_nav"><a href="/team/">Our team</a><ul></ul></li>` +
		`</ul></li>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AsJSTree mismatch (-want +got):\n%s", diff)
	}

	all := r.TreeAsJSTree(context.Background())
	if !strings.Contains(all, `<li id="node_wip" rel="out_nav">`) {
		t.Errorf("whole tree should include inaccessible nodes: %s", all)
	}
}

func TestIsActiveNodeAndProgeny(t *testing.T) {
	ctx := context.Background()
	r, n := fixture(t, "")

	if !r.IsActiveNode(ctx, n["us"], "/about/") {
		t.Error("About us should be active on /about/")
	}
	if r.IsActiveNode(ctx, n["about"], "") {
		t.Error("a node without URL is never active")
	}

	var got []string
	for _, ln := range r.Progeny(n["about"]) {
		got = append(got, ln.Node.ID+":"+strconv.Itoa(ln.Level))
	}
	if diff := cmp.Diff([]string{"about:0", "us:1", "team:1"}, got); diff != "" {
		t.Errorf("Progeny mismatch (-want +got):\n%s", diff)
	}
}

func TestDeepTreeRendersIteratively(t *testing.T) {
	const depth = 2000
	nodes := make([]types.Node, 0, depth+1)
	parent := ""
	for i := 0; i < depth; i++ {
		id := "n" + strconv.Itoa(i)
		nodes = append(nodes, node(id, parent, id, 0, types.ContentRef{}, true))
		parent = id
	}
	nodes = append(nodes, node("leaf", parent, "leaf", 0, testutil.Link("1"), true))

	idx := types.NewNodeIndex(nodes)
	r := render.New(idx, access.New(registry(t), content.Viewer{}), "")
	root, _ := idx.Get("n0")

	out := r.AsNavigation(context.Background(), root)
	if got := strings.Count(out, "<li>"); got != depth+1 {
		t.Errorf("rendered %d items, want %d", got, depth+1)
	}
	if got := len(r.Breadcrumb(context.Background(), nodes[len(nodes)-1])); got == 0 {
		t.Error("breadcrumb should not be empty")
	}
}
