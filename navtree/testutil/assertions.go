package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/navtree/ordering"
	"github.com/arthur-debert/navtree/types"
)

// Outline renders a tree as one line per node, indented two spaces per
// level, each line "label:ordering".
func Outline(t *testing.T, svc *navtree.Service, treeID string) []string {
	t.Helper()
	_, idx, err := svc.Snapshot(context.Background(), treeID)
	if err != nil {
		t.Fatalf("failed to snapshot tree: %v", err)
	}
	var lines []string
	for _, ln := range idx.Progeny("") {
		lines = append(lines, fmt.Sprintf("%s%s:%d", strings.Repeat("  ", ln.Level), ln.Node.Label, ln.Node.Ordering))
	}
	return lines
}

// AssertOutline compares a tree's outline with want
func AssertOutline(t *testing.T, svc *navtree.Service, treeID string, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, Outline(t, svc, treeID)); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
}

// AssertDense fails when any sibling group of the tree is not 0..n-1
func AssertDense(t *testing.T, svc *navtree.Service, treeID string) {
	t.Helper()
	_, idx, err := svc.Snapshot(context.Background(), treeID)
	if err != nil {
		t.Fatalf("failed to snapshot tree: %v", err)
	}
	parents := []string{""}
	for _, ln := range idx.Progeny("") {
		parents = append(parents, ln.Node.ID)
	}
	for _, p := range parents {
		kids := idx.Children(p)
		if !ordering.Dense(kids) {
			var got []int
			for _, k := range kids {
				got = append(got, k.Ordering)
			}
			t.Errorf("children of %q are not dense: orderings %v", p, got)
		}
	}
}

// AssertChildLabels checks the labels of parentID's children, in order
func AssertChildLabels(t *testing.T, svc *navtree.Service, treeID, parentID string, want ...string) {
	t.Helper()
	kids, err := svc.ListChildren(context.Background(), treeID, parentID)
	if err != nil {
		t.Fatalf("failed to list children: %v", err)
	}
	got := make([]string, 0, len(kids))
	for _, k := range kids {
		got = append(got, k.Label)
	}
	if want == nil {
		want = []string{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("children of %q mismatch (-want +got):\n%s", parentID, diff)
	}
}

// AssertNodeMissing fails unless the node is gone
func AssertNodeMissing(t *testing.T, svc *navtree.Service, treeID, id string) {
	t.Helper()
	_, err := svc.GetNode(context.Background(), treeID, id)
	if err == nil {
		t.Errorf("node %s should not exist", id)
		return
	}
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected not found for node %s, got %v", id, err)
	}
}

// RecordingNotifier keeps every published event
type RecordingNotifier struct {
	Events []navtree.Event
}

// Publish implements navtree.Notifier
func (r *RecordingNotifier) Publish(e navtree.Event) {
	r.Events = append(r.Events, e)
}

// Types returns the event types in publication order
func (r *RecordingNotifier) Types() []navtree.EventType {
	out := make([]navtree.EventType, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
