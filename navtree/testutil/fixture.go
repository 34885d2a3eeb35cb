// Package testutil builds seeded navigation services for tests and provides
// assertions over tree shape and ordering.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/navtree/store"
	"github.com/arthur-debert/navtree/types"
)

// FixedTime is the clock of services built here
var FixedTime = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

// Catalog is the content every fixture service starts with
const Catalog = `
articles:
  - id: "1"
    title: Home
    slug: home
    status: published
    homepage: true
  - id: "2"
    title: About us
    slug: about
    status: published
  - id: "3"
    title: Our team
    slug: team
    status: published
  - id: "4"
    title: Work in progress
    slug: wip
    status: draft
  - id: "5"
    title: Old offers
    slug: offers
    status: archived
links:
  - id: "1"
    title: Go website
    url: https://go.dev/
  - id: "2"
    title: Contact form
    url: /contact/
`

// SequentialIDs returns an id generator yielding prefix1, prefix2, ...
func SequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// Env is a service with its catalogs
type Env struct {
	Service  *navtree.Service
	Builtins *content.Builtins
	Store    store.Store
}

// NewEnv builds a service over a JSON store in a temp dir, loaded with
// Catalog and the default nav types.
func NewEnv(t *testing.T, opts ...navtree.Option) *Env {
	t.Helper()
	st, err := store.NewJSONFileStore(filepath.Join(t.TempDir(), "navtree.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return newEnv(t, st, opts...)
}

// NewSQLiteEnv is NewEnv over a SQLite database
func NewSQLiteEnv(t *testing.T, opts ...navtree.Option) *Env {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{
		Backend: store.BackendSQLite,
		Path:    filepath.Join(t.TempDir(), "navtree.db"),
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return newEnv(t, st, opts...)
}

func newEnv(t *testing.T, st store.Store, opts ...navtree.Option) *Env {
	t.Helper()
	t.Cleanup(func() { _ = st.Close() })

	builtins := content.NewBuiltins()
	if err := builtins.Load(strings.NewReader(Catalog)); err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	base := []navtree.Option{
		navtree.WithClock(func() time.Time { return FixedTime }),
		navtree.WithIDFunc(SequentialIDs("id")),
	}
	svc := navtree.New(st, builtins.Registry(), append(base, opts...)...)
	builtins.OnDelete(svc.ContentDeleteHook())

	if err := svc.EnsureNavTypes(context.Background(), navtree.DefaultNavTypes); err != nil {
		t.Fatalf("failed to install nav types: %v", err)
	}
	return &Env{Service: svc, Builtins: builtins, Store: st}
}

// Site is a small tree:
//
//	Home            (article 1)
//	About           (empty)
//	  About us      (article 2)
//	  Our team      (article 3, hidden)
//	/contact/       (link 2)
type Site struct {
	Tree    types.Tree
	Home    types.Node
	About   types.Node
	AboutUs types.Node
	Team    types.Node
	Contact types.Node
}

// BuildSite creates the Site tree in env
func BuildSite(t *testing.T, env *Env) *Site {
	t.Helper()
	ctx := context.Background()
	svc := env.Service

	tree, err := svc.CreateTree(ctx, "main", nil)
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	add := func(spec navtree.NodeSpec) types.Node {
		t.Helper()
		n, err := svc.CreateNode(ctx, tree.ID, spec)
		if err != nil {
			t.Fatalf("failed to create node %+v: %v", spec, err)
		}
		return n
	}

	site := &Site{Tree: tree}
	site.Home = add(navtree.NodeSpec{Label: "Home", Content: article("1")})
	site.About = add(navtree.NodeSpec{Label: "About"})
	site.AboutUs = add(navtree.NodeSpec{ParentID: site.About.ID, Content: article("2")})
	site.Team = add(navtree.NodeSpec{ParentID: site.About.ID, Content: article("3"), Hidden: true})
	site.Contact = add(navtree.NodeSpec{Content: link("2")})

	// reload so LastUpdate is current
	if site.Tree, err = svc.GetTree(ctx, tree.ID); err != nil {
		t.Fatalf("failed to reload tree: %v", err)
	}
	return site
}

func article(id string) types.ContentRef {
	return types.ContentRef{Kind: content.ArticleKind, ID: id}
}

func link(id string) types.ContentRef {
	return types.ContentRef{Kind: content.LinkKind, ID: id}
}

// Article returns a reference to a built-in article
func Article(id string) types.ContentRef { return article(id) }

// Link returns a reference to a built-in link
func Link(id string) types.ContentRef { return link(id) }
