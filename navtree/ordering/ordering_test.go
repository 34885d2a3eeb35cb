package ordering

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/navtree/types"
)

// fakeTx is an in-memory Tx recording every write
type fakeTx struct {
	nodes   map[string]types.Node
	writes  int
	failOn  string
	failErr error
}

func newFakeTx(nodes ...types.Node) *fakeTx {
	tx := &fakeTx{nodes: make(map[string]types.Node)}
	for _, n := range nodes {
		n.TreeID = "t"
		tx.nodes[n.ID] = n
	}
	return tx
}

func (tx *fakeTx) GetNode(treeID, id string) (types.Node, error) {
	n, ok := tx.nodes[id]
	if !ok || n.TreeID != treeID {
		return types.Node{}, types.NotFound("node", id)
	}
	return n, nil
}

func (tx *fakeTx) Children(treeID, parentID string) ([]types.Node, error) {
	var out []types.Node
	for _, n := range tx.nodes {
		if n.TreeID == treeID && n.ParentID == parentID {
			out = append(out, n)
		}
	}
	types.SortSiblings(out)
	return out, nil
}

func (tx *fakeTx) UpdateNode(node types.Node) error {
	if node.ID == tx.failOn {
		return tx.failErr
	}
	tx.writes++
	tx.nodes[node.ID] = node
	return nil
}

// layout renders the children of parentID as "id:ordering" pairs
func (tx *fakeTx) layout(parentID string) []string {
	kids, _ := tx.Children("t", parentID)
	out := make([]string, 0, len(kids))
	for _, k := range kids {
		out = append(out, k.ID+":"+string(rune('0'+k.Ordering)))
	}
	return out
}

func abc() *fakeTx {
	return newFakeTx(
		types.Node{ID: "A", Label: "A", Ordering: 0},
		types.Node{ID: "B", Label: "B", Ordering: 1},
		types.Node{ID: "C", Label: "C", Ordering: 2},
		types.Node{ID: "D", Label: "D", Ordering: 3},
	)
}

func TestMoveWithinParent(t *testing.T) {
	tests := []struct {
		name string
		node string
		ref  string
		pos  types.RefPosition
		want []string
	}{
		{"forward after", "A", "C", types.After, []string{"B:0", "C:1", "A:2", "D:3"}},
		{"forward before", "A", "C", types.Before, []string{"B:0", "A:1", "C:2", "D:3"}},
		{"forward after last", "B", "D", types.After, []string{"A:0", "C:1", "D:2", "B:3"}},
		{"backward before", "D", "B", types.Before, []string{"A:0", "D:1", "B:2", "C:3"}},
		{"backward after", "D", "A", types.After, []string{"A:0", "D:1", "B:2", "C:3"}},
		{"backward before first", "C", "A", types.Before, []string{"C:0", "A:1", "B:2", "D:3"}},
		{"adjacent after", "A", "B", types.After, []string{"B:0", "A:1", "C:2", "D:3"}},
		{"adjacent before", "B", "A", types.Before, []string{"B:0", "A:1", "C:2", "D:3"}},
		{"already in place", "B", "C", types.Before, []string{"A:0", "B:1", "C:2", "D:3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := abc()
			node, _ := tx.GetNode("t", tt.node)
			if _, err := New(tx).Move(node, Placement{RefID: tt.ref, Position: tt.pos}); err != nil {
				t.Fatalf("move failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, tx.layout("")); diff != "" {
				t.Errorf("layout mismatch (-want +got):\n%s", diff)
			}
			kids, _ := tx.Children("t", "")
			if !Dense(kids) {
				t.Errorf("orderings not dense: %v", tx.layout(""))
			}
		})
	}
}

func TestMoveWithoutReferenceAppends(t *testing.T) {
	tx := abc()
	node, _ := tx.GetNode("t", "B")
	moved, err := New(tx).Move(node, Placement{})
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if moved.Ordering != 3 {
		t.Errorf("expected ordering 3, got %d", moved.Ordering)
	}
	if diff := cmp.Diff([]string{"A:0", "C:1", "D:2", "B:3"}, tx.layout("")); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestReparentClosesGap(t *testing.T) {
	tx := newFakeTx(
		types.Node{ID: "A", Label: "A", Ordering: 0},
		types.Node{ID: "B", Label: "B", Ordering: 1},
		types.Node{ID: "C", Label: "C", Ordering: 2},
		types.Node{ID: "D", Label: "D", Ordering: 3},
	)
	node, _ := tx.GetNode("t", "B")
	moved, err := New(tx).Move(node, Placement{ParentID: "D"})
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if moved.ParentID != "D" || moved.Ordering != 0 {
		t.Errorf("expected B first child of D, got parent=%q ordering=%d", moved.ParentID, moved.Ordering)
	}
	if diff := cmp.Diff([]string{"A:0", "C:1", "D:2"}, tx.layout("")); diff != "" {
		t.Errorf("root layout mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B:0"}, tx.layout("D")); diff != "" {
		t.Errorf("D layout mismatch (-want +got):\n%s", diff)
	}
}

func TestReparentPositional(t *testing.T) {
	setup := func() *fakeTx {
		return newFakeTx(
			types.Node{ID: "P", Label: "P", Ordering: 0},
			types.Node{ID: "X", Label: "X", Ordering: 1},
			types.Node{ID: "p0", ParentID: "P", Label: "p0", Ordering: 0},
			types.Node{ID: "p1", ParentID: "P", Label: "p1", Ordering: 1},
			types.Node{ID: "p2", ParentID: "P", Label: "p2", Ordering: 2},
		)
	}

	tests := []struct {
		name string
		pos  types.RefPosition
		want []string
	}{
		{"before", types.Before, []string{"p0:0", "X:1", "p1:2", "p2:3"}},
		{"after", types.After, []string{"p0:0", "p1:1", "X:2", "p2:3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := setup()
			node, _ := tx.GetNode("t", "X")
			ref := "p1"
			_, err := New(tx).Move(node, Placement{ParentID: "P", RefID: ref, Position: tt.pos})
			if err != nil {
				t.Fatalf("move failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, tx.layout("P")); diff != "" {
				t.Errorf("layout mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"P:0"}, tx.layout("")); diff != "" {
				t.Errorf("root layout mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMoveToRoot(t *testing.T) {
	tx := newFakeTx(
		types.Node{ID: "P", Label: "P", Ordering: 0},
		types.Node{ID: "c0", ParentID: "P", Label: "c0", Ordering: 0},
		types.Node{ID: "c1", ParentID: "P", Label: "c1", Ordering: 1},
	)
	node, _ := tx.GetNode("t", "c0")
	if _, err := New(tx).Move(node, Placement{}); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if diff := cmp.Diff([]string{"P:0", "c0:1"}, tx.layout("")); diff != "" {
		t.Errorf("root layout mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c1:0"}, tx.layout("P")); diff != "" {
		t.Errorf("P layout mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveRejectsCycles(t *testing.T) {
	tx := newFakeTx(
		types.Node{ID: "A", Label: "A", Ordering: 0},
		types.Node{ID: "A1", ParentID: "A", Label: "A1", Ordering: 0},
		types.Node{ID: "A11", ParentID: "A1", Label: "A11", Ordering: 0},
	)
	node, _ := tx.GetNode("t", "A")

	for _, parent := range []string{"A", "A1", "A11"} {
		t.Run(parent, func(t *testing.T) {
			writes := tx.writes
			_, err := New(tx).Move(node, Placement{ParentID: parent})
			if !errors.Is(err, types.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tx.writes != writes {
				t.Errorf("rejected move wrote %d nodes", tx.writes-writes)
			}
		})
	}
}

func TestMoveValidation(t *testing.T) {
	tests := []struct {
		name    string
		p       Placement
		wantErr error
	}{
		{"missing parent", Placement{ParentID: "nope"}, types.ErrNotFound},
		{"missing reference", Placement{RefID: "nope", Position: types.After}, types.ErrNotFound},
		{"reference under other parent", Placement{ParentID: "D", RefID: "C", Position: types.After}, types.ErrValidation},
		{"bad position", Placement{RefID: "C", Position: "sideways"}, types.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := abc()
			node, _ := tx.GetNode("t", "A")
			_, err := New(tx).Move(node, tt.p)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMoveRelativeToItselfIsNoop(t *testing.T) {
	tx := abc()
	node, _ := tx.GetNode("t", "B")
	if _, err := New(tx).Move(node, Placement{RefID: "B", Position: types.After}); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if tx.writes != 0 {
		t.Errorf("expected no writes, got %d", tx.writes)
	}
}

func TestMovePropagatesWriteErrors(t *testing.T) {
	tx := abc()
	tx.failOn = "B"
	tx.failErr = errors.New("disk full")
	node, _ := tx.GetNode("t", "A")
	if _, err := New(tx).Move(node, Placement{RefID: "C", Position: types.After}); !errors.Is(err, tx.failErr) {
		t.Errorf("expected write error, got %v", err)
	}
}

func TestNextAndRenumber(t *testing.T) {
	tx := newFakeTx(
		types.Node{ID: "A", Label: "A", Ordering: 0},
		types.Node{ID: "C", Label: "C", Ordering: 4},
		types.Node{ID: "E", Label: "E", Ordering: 7},
	)
	e := New(tx)

	next, err := e.Next("t", "")
	if err != nil {
		t.Fatal(err)
	}
	if next != 8 {
		t.Errorf("expected next 8, got %d", next)
	}
	if next, _ := e.Next("t", "A"); next != 0 {
		t.Errorf("expected 0 for empty group, got %d", next)
	}

	changed, err := e.Renumber("t", "")
	if err != nil {
		t.Fatal(err)
	}
	if changed != 2 {
		t.Errorf("expected 2 changes, got %d", changed)
	}
	if diff := cmp.Diff([]string{"A:0", "C:1", "E:2"}, tx.layout("")); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestDenseAfterRandomMoves(t *testing.T) {
	tx := newFakeTx(
		types.Node{ID: "A", Label: "A", Ordering: 0},
		types.Node{ID: "B", Label: "B", Ordering: 1},
		types.Node{ID: "C", Label: "C", Ordering: 2},
		types.Node{ID: "D", Label: "D", Ordering: 3},
		types.Node{ID: "E", Label: "E", Ordering: 4},
	)
	moves := []struct {
		node, parent, ref string
		pos               types.RefPosition
	}{
		{"A", "", "E", types.After},
		{"C", "", "B", types.Before},
		{"D", "E", "", ""},
		{"B", "E", "D", types.Before},
		{"E", "", "C", types.Before},
		{"D", "", "A", types.After},
		{"B", "C", "", ""},
		{"B", "", "", ""},
	}
	for i, m := range moves {
		node, _ := tx.GetNode("t", m.node)
		if _, err := New(tx).Move(node, Placement{ParentID: m.parent, RefID: m.ref, Position: m.pos}); err != nil {
			t.Fatalf("move %d failed: %v", i, err)
		}
		parents := map[string]bool{"": true}
		for _, n := range tx.nodes {
			parents[n.ID] = true
		}
		keys := make([]string, 0, len(parents))
		for p := range parents {
			keys = append(keys, p)
		}
		sort.Strings(keys)
		for _, p := range keys {
			kids, _ := tx.Children("t", p)
			if !Dense(kids) {
				t.Fatalf("after move %d children of %q not dense: %v", i, p, tx.layout(p))
			}
		}
	}
}

func TestDense(t *testing.T) {
	mk := func(orders ...int) []types.Node {
		out := make([]types.Node, len(orders))
		for i, o := range orders {
			out[i] = types.Node{Ordering: o}
		}
		return out
	}
	if !Dense(nil) || !Dense(mk(2, 0, 1)) {
		t.Error("expected dense")
	}
	if Dense(mk(0, 2)) || Dense(mk(0, 0)) || Dense(mk(1)) {
		t.Error("expected not dense")
	}
}
