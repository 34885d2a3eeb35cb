package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/arthur-debert/navtree/types"
)

const (
	treesTable     = "nav_trees"
	treeTypesTable = "nav_tree_types"
	navTypesTable  = "nav_types"
	nodesTable     = "nav_nodes"
)

var nodeColumns = []string{
	"id", "tree_id", "parent_id", "label", "ordering",
	"content_kind", "content_id", "in_navigation",
}

// sqlTx implements Tx on top of a database transaction. Rows are always
// drained and closed before the next statement runs, since SQLite uses a
// single connection.
type sqlTx struct {
	ctx      context.Context
	tx       *sql.Tx
	b        *sqlBuilder
	readOnly bool
}

func (t *sqlTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *sqlTx) exec(query string, args []interface{}, err error) (sql.Result, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	res, err := t.tx.ExecContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return res, nil
}

func nullable(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// Trees

func (t *sqlTx) CreateTree(tree types.Tree) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.GetTree(tree.ID); err == nil {
		return types.Invalid("tree id %q already exists", tree.ID)
	}
	if _, err := t.GetTreeByName(tree.Name); err == nil {
		return duplicateTreeName(tree.Name)
	}

	if _, err := t.exec(t.b.buildInsert(treesTable,
		[]string{"id", "name", "last_update"},
		[]interface{}{tree.ID, tree.Name, tree.LastUpdate.UnixNano()},
	)); err != nil {
		return err
	}
	return t.writeTreeTypes(tree.ID, tree.Types)
}

func (t *sqlTx) writeTreeTypes(treeID string, kinds []string) error {
	if _, err := t.exec(t.b.buildDelete(treeTypesTable, squirrel.Eq{"tree_id": treeID})); err != nil {
		return err
	}
	for _, kind := range kinds {
		if _, err := t.exec(t.b.buildInsert(treeTypesTable,
			[]string{"tree_id", "kind"},
			[]interface{}{treeID, kind},
		)); err != nil {
			return err
		}
	}
	return nil
}

func (t *sqlTx) queryTrees(where squirrel.Sqlizer) ([]types.Tree, error) {
	query, args, err := t.b.buildSelect(treesTable, []string{"id", "name", "last_update"}, where, "name")
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trees: %w", err)
	}

	var trees []types.Tree
	for rows.Next() {
		var tree types.Tree
		var nanos int64
		if err := rows.Scan(&tree.ID, &tree.Name, &nanos); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan tree: %w", err)
		}
		tree.LastUpdate = time.Unix(0, nanos)
		trees = append(trees, tree)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	for i := range trees {
		kinds, err := t.treeTypes(trees[i].ID)
		if err != nil {
			return nil, err
		}
		trees[i].Types = kinds
	}
	return trees, nil
}

func (t *sqlTx) treeTypes(treeID string) ([]string, error) {
	query, args, err := t.b.buildSelect(treeTypesTable, []string{"kind"}, squirrel.Eq{"tree_id": treeID}, "kind")
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tree types: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var kinds []string
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("failed to scan tree type: %w", err)
		}
		kinds = append(kinds, kind)
	}
	return kinds, rows.Err()
}

func (t *sqlTx) GetTree(id string) (types.Tree, error) {
	trees, err := t.queryTrees(squirrel.Eq{"id": id})
	if err != nil {
		return types.Tree{}, err
	}
	if len(trees) == 0 {
		return types.Tree{}, types.NotFound("tree", id)
	}
	return trees[0], nil
}

func (t *sqlTx) GetTreeByName(name string) (types.Tree, error) {
	trees, err := t.queryTrees(squirrel.Eq{"name": name})
	if err != nil {
		return types.Tree{}, err
	}
	if len(trees) == 0 {
		return types.Tree{}, types.NotFound("tree", name)
	}
	return trees[0], nil
}

func (t *sqlTx) ListTrees() ([]types.Tree, error) {
	return t.queryTrees(nil)
}

func (t *sqlTx) UpdateTree(tree types.Tree) error {
	if err := t.writable(); err != nil {
		return err
	}
	if other, err := t.GetTreeByName(tree.Name); err == nil && other.ID != tree.ID {
		return duplicateTreeName(tree.Name)
	}
	res, err := t.exec(t.b.buildUpdate(treesTable,
		map[string]interface{}{"name": tree.Name, "last_update": tree.LastUpdate.UnixNano()},
		squirrel.Eq{"id": tree.ID},
	))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NotFound("tree", tree.ID)
	}
	return t.writeTreeTypes(tree.ID, tree.Types)
}

func (t *sqlTx) DeleteTree(id string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.exec(t.b.buildDelete(nodesTable, squirrel.Eq{"tree_id": id})); err != nil {
		return err
	}
	if _, err := t.exec(t.b.buildDelete(treeTypesTable, squirrel.Eq{"tree_id": id})); err != nil {
		return err
	}
	res, err := t.exec(t.b.buildDelete(treesTable, squirrel.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NotFound("tree", id)
	}
	return nil
}

// Nav types

func (t *sqlTx) PutNavType(nt types.NavType) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.exec(t.b.buildDelete(navTypesTable, squirrel.Eq{"kind": nt.Kind})); err != nil {
		return err
	}
	_, err := t.exec(t.b.buildInsert(navTypesTable,
		[]string{"kind", "search_field", "label_rule"},
		[]interface{}{nt.Kind, nt.SearchField, int(nt.LabelRule)},
	))
	return err
}

func (t *sqlTx) queryNavTypes(where squirrel.Sqlizer) ([]types.NavType, error) {
	query, args, err := t.b.buildSelect(navTypesTable, []string{"kind", "search_field", "label_rule"}, where, "kind")
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nav types: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.NavType
	for rows.Next() {
		var nt types.NavType
		var rule int
		if err := rows.Scan(&nt.Kind, &nt.SearchField, &rule); err != nil {
			return nil, fmt.Errorf("failed to scan nav type: %w", err)
		}
		nt.LabelRule = types.LabelRule(rule)
		out = append(out, nt)
	}
	return out, rows.Err()
}

func (t *sqlTx) GetNavType(kind string) (types.NavType, error) {
	nts, err := t.queryNavTypes(squirrel.Eq{"kind": kind})
	if err != nil {
		return types.NavType{}, err
	}
	if len(nts) == 0 {
		return types.NavType{}, types.NotFound("nav type", kind)
	}
	return nts[0], nil
}

func (t *sqlTx) ListNavTypes() ([]types.NavType, error) {
	return t.queryNavTypes(nil)
}

func (t *sqlTx) DeleteNavType(kind string) error {
	if err := t.writable(); err != nil {
		return err
	}
	res, err := t.exec(t.b.buildDelete(navTypesTable, squirrel.Eq{"kind": kind}))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NotFound("nav type", kind)
	}
	return nil
}

// Nodes

func (t *sqlTx) queryNodes(where squirrel.Sqlizer, orderBy ...string) ([]types.Node, error) {
	query, args, err := t.b.buildSelect(nodesTable, nodeColumns, where, orderBy...)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Node
	for rows.Next() {
		var n types.Node
		var parent sql.NullString
		if err := rows.Scan(&n.ID, &n.TreeID, &parent, &n.Label, &n.Ordering,
			&n.Content.Kind, &n.Content.ID, &n.Visible); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n.ParentID = parent.String
		out = append(out, n)
	}
	return out, rows.Err()
}

func parentCondition(treeID, parentID string) squirrel.Eq {
	return squirrel.Eq{"tree_id": treeID, "parent_id": nullable(parentID)}
}

func (t *sqlTx) InsertNode(node types.Node) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, err := t.GetTree(node.TreeID); err != nil {
		return err
	}
	if node.ParentID != "" {
		if _, err := t.GetNode(node.TreeID, node.ParentID); err != nil {
			return err
		}
	}
	existing, err := t.queryNodes(squirrel.Eq{"id": node.ID})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return types.Invalid("node id %q already exists", node.ID)
	}
	if node.HasContent() {
		bound, err := t.queryNodes(squirrel.Eq{
			"tree_id":      node.TreeID,
			"content_kind": node.Content.Kind,
			"content_id":   node.Content.ID,
		})
		if err != nil {
			return err
		}
		if len(bound) > 0 {
			return duplicateBinding(node.Content)
		}
	}

	_, err = t.exec(t.b.buildInsert(nodesTable, nodeColumns, []interface{}{
		node.ID, node.TreeID, nullable(node.ParentID), node.Label, node.Ordering,
		node.Content.Kind, node.Content.ID, node.Visible,
	}))
	return err
}

func (t *sqlTx) GetNode(treeID, id string) (types.Node, error) {
	nodes, err := t.queryNodes(squirrel.Eq{"tree_id": treeID, "id": id})
	if err != nil {
		return types.Node{}, err
	}
	if len(nodes) == 0 {
		return types.Node{}, types.NotFound("node", id)
	}
	return nodes[0], nil
}

func (t *sqlTx) UpdateNode(node types.Node) error {
	if err := t.writable(); err != nil {
		return err
	}
	res, err := t.exec(t.b.buildUpdate(nodesTable, map[string]interface{}{
		"parent_id":     nullable(node.ParentID),
		"label":         node.Label,
		"ordering":      node.Ordering,
		"content_kind":  node.Content.Kind,
		"content_id":    node.Content.ID,
		"in_navigation": node.Visible,
	}, squirrel.Eq{"tree_id": node.TreeID, "id": node.ID}))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NotFound("node", node.ID)
	}
	return nil
}

func (t *sqlTx) DeleteNodes(treeID string, ids []string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := t.exec(t.b.buildDelete(nodesTable, squirrel.Eq{"tree_id": treeID, "id": ids}))
	return err
}

func (t *sqlTx) Children(treeID, parentID string) ([]types.Node, error) {
	nodes, err := t.queryNodes(parentCondition(treeID, parentID), "ordering", "label", "id")
	if err != nil {
		return nil, err
	}
	types.SortSiblings(nodes)
	return nodes, nil
}

func (t *sqlTx) TreeNodes(treeID string) ([]types.Node, error) {
	return t.queryNodes(squirrel.Eq{"tree_id": treeID}, "ordering", "id")
}

func (t *sqlTx) NodesByContent(ref types.ContentRef) ([]types.Node, error) {
	if ref.IsZero() {
		return nil, nil
	}
	return t.queryNodes(squirrel.Eq{"content_kind": ref.Kind, "content_id": ref.ID}, "tree_id", "id")
}
