// Package store is the Node Store: persistence of trees, nav types and nodes
// behind a transactional interface with a JSON file backend and a SQL backend.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/arthur-debert/navtree/types"
)

// ErrReadOnly is returned by mutating Tx methods inside View
var ErrReadOnly = errors.New("read-only transaction")

// Store runs functions inside transactions. Update applies all of fn's
// changes or none of them.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	CreateTree(tree types.Tree) error
	GetTree(id string) (types.Tree, error)
	GetTreeByName(name string) (types.Tree, error)
	ListTrees() ([]types.Tree, error)
	UpdateTree(tree types.Tree) error
	// DeleteTree removes the tree and every node in it
	DeleteTree(id string) error

	PutNavType(nt types.NavType) error
	GetNavType(kind string) (types.NavType, error)
	ListNavTypes() ([]types.NavType, error)
	DeleteNavType(kind string) error

	InsertNode(node types.Node) error
	GetNode(treeID, id string) (types.Node, error)
	UpdateNode(node types.Node) error
	// DeleteNodes removes exactly the given nodes. Callers pass whole
	// subtrees; sibling orderings are not repaired.
	DeleteNodes(treeID string, ids []string) error
	// Children returns the nodes under parentID ("" for roots) sorted by ordering
	Children(treeID, parentID string) ([]types.Node, error)
	TreeNodes(treeID string) ([]types.Node, error)
	// NodesByContent returns every node, in any tree, bound to ref
	NodesByContent(ref types.ContentRef) ([]types.Node, error)
}

// Backend names a storage implementation
type Backend string

const (
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Config selects and locates a backend
type Config struct {
	Backend Backend
	// Path is the JSON file or SQLite database path
	Path string
	// DSN is the PostgreSQL connection string
	DSN string
}

// Open creates the store described by cfg. Options apply to the JSON backend.
func Open(ctx context.Context, cfg Config, opts ...Option) (Store, error) {
	switch cfg.Backend {
	case "", BackendJSON:
		if cfg.Path == "" {
			return nil, fmt.Errorf("json backend requires a file path")
		}
		return NewJSONFileStore(cfg.Path, opts...)
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		return OpenSQL(ctx, "sqlite", cfg.Path)
	case BackendPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires a DSN")
		}
		return OpenSQL(ctx, "pgx", cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown backend %q (expected json, sqlite or postgres)", cfg.Backend)
	}
}

func duplicateTreeName(name string) error {
	return types.Invalid("A tree named %q already exists", name)
}

func duplicateBinding(ref types.ContentRef) error {
	return types.Invalid("%s is already in navigation", ref)
}
