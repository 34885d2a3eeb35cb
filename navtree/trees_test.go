package navtree_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/navtree/ordering"
	"github.com/arthur-debert/navtree/navtree/testutil"
	"github.com/arthur-debert/navtree/types"
)

func TestCreateTree(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testutil.Env) {
		ctx := context.Background()
		svc := env.Service

		tree, err := svc.CreateTree(ctx, "main", []string{content.ArticleKind})
		if err != nil {
			t.Fatalf("CreateTree: %v", err)
		}
		got, err := svc.TreeByName(ctx, "main")
		if err != nil {
			t.Fatalf("TreeByName: %v", err)
		}
		if diff := cmp.Diff(tree, got); diff != "" {
			t.Errorf("tree mismatch (-created +loaded):\n%s", diff)
		}

		if _, err := svc.CreateTree(ctx, "main", nil); !errors.Is(err, types.ErrValidation) {
			t.Errorf("duplicate name: expected validation error, got %v", err)
		}
		if _, err := svc.CreateTree(ctx, "", nil); !errors.Is(err, types.ErrValidation) {
			t.Errorf("empty name: expected validation error, got %v", err)
		}
		if _, err := svc.CreateTree(ctx, "pages", []string{"cms.page"}); !errors.Is(err, types.ErrValidation) {
			t.Errorf("unknown nav type: expected validation error, got %v", err)
		}
		if _, err := svc.GetTree(ctx, "missing"); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("missing tree: expected not found, got %v", err)
		}
	})
}

func TestEnsureTree(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	first, err := env.Service.EnsureTree(ctx, "default")
	if err != nil {
		t.Fatalf("EnsureTree: %v", err)
	}
	second, err := env.Service.EnsureTree(ctx, "default")
	if err != nil {
		t.Fatalf("EnsureTree again: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("EnsureTree created a second tree: %s != %s", first.ID, second.ID)
	}
	trees, err := env.Service.ListTrees(ctx)
	if err != nil {
		t.Fatalf("ListTrees: %v", err)
	}
	if len(trees) != 1 {
		t.Errorf("expected one tree, got %d", len(trees))
	}
}

func TestRenameTreeAndTypes(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	svc := env.Service

	a, _ := flat(t, svc, "a")
	flat(t, svc, "b")

	renamed, err := svc.RenameTree(ctx, a.ID, "alpha")
	if err != nil {
		t.Fatalf("RenameTree: %v", err)
	}
	if renamed.Name != "alpha" {
		t.Errorf("name = %q, want alpha", renamed.Name)
	}
	if _, err := svc.RenameTree(ctx, a.ID, "b"); !errors.Is(err, types.ErrValidation) {
		t.Errorf("rename onto an existing name: expected validation error, got %v", err)
	}

	typed, err := svc.SetTreeTypes(ctx, a.ID, []string{content.LinkKind})
	if err != nil {
		t.Fatalf("SetTreeTypes: %v", err)
	}
	if diff := cmp.Diff([]string{content.LinkKind}, typed.Types); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	if _, err := svc.SetTreeTypes(ctx, a.ID, []string{content.LinkKind, content.LinkKind}); !errors.Is(err, types.ErrValidation) {
		t.Errorf("duplicate kinds: expected validation error, got %v", err)
	}
}

func TestDeleteTree(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testutil.Env) {
		ctx := context.Background()
		site := testutil.BuildSite(t, env)

		if err := env.Service.DeleteTree(ctx, site.Tree.ID); err != nil {
			t.Fatalf("DeleteTree: %v", err)
		}
		if _, err := env.Service.GetTree(ctx, site.Tree.ID); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
		// the content is free to be bound again
		other, _ := flat(t, env.Service, "other")
		if _, err := env.Service.AddContent(ctx, other.ID, content.ArticleKind, "1", ""); err != nil {
			t.Errorf("AddContent after tree deletion: %v", err)
		}
	})
}

func TestRootNodes(t *testing.T) {
	env := testutil.NewEnv(t)
	site := testutil.BuildSite(t, env)
	ctx := context.Background()

	count, err := env.Service.RootNodesCount(ctx, site.Tree.ID)
	if err != nil {
		t.Fatalf("RootNodesCount: %v", err)
	}
	if count != 3 {
		t.Errorf("RootNodesCount = %d, want 3", count)
	}
	testutil.AssertChildLabels(t, env.Service, site.Tree.ID, "", "Home", "About", "/contact/")
}

func TestMutationsBumpLastUpdate(t *testing.T) {
	now := testutil.FixedTime
	env := testutil.NewEnv(t, navtree.WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	}))
	ctx := context.Background()
	site := testutil.BuildSite(t, env)
	svc := env.Service

	ops := map[string]func() error{
		"rename": func() error {
			_, _, err := svc.Rename(ctx, site.Tree.ID, site.Home.ID, "Start")
			return err
		},
		"toggle": func() error {
			_, err := svc.ToggleVisibility(ctx, site.Tree.ID, site.Home.ID)
			return err
		},
		"add": func() error {
			_, err := svc.AddContent(ctx, site.Tree.ID, content.LinkKind, "1", "")
			return err
		},
		"remove": func() error {
			_, err := svc.Remove(ctx, site.Tree.ID, []string{site.Team.ID})
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			before, err := svc.GetTree(ctx, site.Tree.ID)
			if err != nil {
				t.Fatal(err)
			}
			if err := op(); err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			after, err := svc.GetTree(ctx, site.Tree.ID)
			if err != nil {
				t.Fatal(err)
			}
			if !after.LastUpdate.After(before.LastUpdate) {
				t.Errorf("LastUpdate not bumped: before %v after %v", before.LastUpdate, after.LastUpdate)
			}
		})
	}
}

func TestNavTypes(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	svc := env.Service

	nts, err := svc.NavTypes(ctx)
	if err != nil {
		t.Fatalf("NavTypes: %v", err)
	}
	if diff := cmp.Diff(navtree.DefaultNavTypes, nts); diff != "" {
		t.Errorf("default nav types mismatch (-want +got):\n%s", diff)
	}

	if err := svc.SetNavType(ctx, types.NavType{Kind: "cms.page"}); !errors.Is(err, types.ErrValidation) {
		t.Errorf("unregistered kind: expected validation error, got %v", err)
	}

	err = svc.SetNavType(ctx, types.NavType{Kind: content.ArticleKind, LabelRule: types.LabelUseDefaultString})
	if err != nil {
		t.Fatalf("SetNavType: %v", err)
	}
	site := testutil.BuildSite(t, env)
	n, err := svc.AddContent(ctx, site.Tree.ID, content.ArticleKind, "4", "")
	if err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if n.Label != "Work in progress" {
		t.Errorf("label = %q", n.Label)
	}

	links, _ := flat(t, svc, "links-only")
	if _, err := svc.SetTreeTypes(ctx, links.ID, []string{content.LinkKind}); err != nil {
		t.Fatalf("SetTreeTypes: %v", err)
	}
	if err := svc.DeleteNavType(ctx, content.LinkKind); err != nil {
		t.Fatalf("DeleteNavType: %v", err)
	}
	reloaded, err := svc.GetTree(ctx, links.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded.Types) != 0 {
		t.Errorf("deleted nav type should be dropped from tree types, got %v", reloaded.Types)
	}
}

func TestEvents(t *testing.T) {
	rec := &testutil.RecordingNotifier{}
	env := testutil.NewEnv(t, navtree.WithNotifier(rec))
	ctx := context.Background()
	site := testutil.BuildSite(t, env)
	svc := env.Service

	if _, _, err := svc.Rename(ctx, site.Tree.ID, site.Home.ID, "Home"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Move(ctx, site.Tree.ID, site.Home.ID, ordering.Placement{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Remove(ctx, site.Tree.ID, []string{site.About.ID}); err != nil {
		t.Fatal(err)
	}

	want := []navtree.EventType{
		navtree.EventTreeCreated,
		navtree.EventNodeAdded,
		navtree.EventNodeAdded,
		navtree.EventNodeAdded,
		navtree.EventNodeAdded,
		navtree.EventNodeAdded,
		navtree.EventNodeMoved,
		navtree.EventNodesRemoved,
	}
	if diff := cmp.Diff(want, rec.Types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	last := rec.Events[len(rec.Events)-1]
	if last.TreeID != site.Tree.ID || len(last.NodeIDs) != 3 {
		t.Errorf("unexpected remove event %+v", last)
	}
}
