// Package navtree maintains named, ordered navigation trees whose nodes
// optionally point to externally-owned content.
//
// A Service composes the node store, the ordering engine and the content
// registry. Every public operation runs in exactly one store transaction:
// either all of its writes (node, siblings, tree timestamp) become visible
// or none do.
package navtree

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/navtree/store"
	"github.com/arthur-debert/navtree/types"
)

// EventType names a change published after a commit
type EventType string

const (
	EventTreeCreated      EventType = "tree.created"
	EventTreeUpdated      EventType = "tree.updated"
	EventTreeDeleted      EventType = "tree.deleted"
	EventNodeAdded        EventType = "node.added"
	EventNodeRenamed      EventType = "node.renamed"
	EventNodeMoved        EventType = "node.moved"
	EventNodesRemoved     EventType = "node.removed"
	EventNodeVisibility   EventType = "node.visibility"
	EventNodesRenumbered  EventType = "node.renumbered"
	EventContentDetached  EventType = "content.detached"
	EventNavTypesModified EventType = "navtype.modified"
)

// Event describes a committed change to a tree
type Event struct {
	Type    EventType `json:"type"`
	TreeID  string    `json:"tree_id,omitempty"`
	NodeIDs []string  `json:"node_ids,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier receives events after their transaction committed. Publish must
// not block.
type Notifier interface {
	Publish(Event)
}

// Service is the navigation tree API
type Service struct {
	store    store.Store
	contents *content.Registry
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	notifier Notifier
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger, slog.Default() otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock sets the time source used for Tree.LastUpdate and events
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDFunc sets the generator for tree and node ids
func WithIDFunc(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithNotifier sets where change events go
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// New creates a service over st resolving content through contents
func New(st store.Store, contents *content.Registry, opts ...Option) *Service {
	s := &Service{
		store:    st,
		contents: contents,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Contents returns the content registry
func (s *Service) Contents() *content.Registry {
	return s.contents
}

// Close closes the underlying store
func (s *Service) Close() error {
	return s.store.Close()
}

// SetNotifier replaces the notifier. It is meant for wiring at startup,
// before requests are served.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) publish(typ EventType, treeID string, nodeIDs ...string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(Event{Type: typ, TreeID: treeID, NodeIDs: nodeIDs, At: s.now()})
}

// touch bumps the tree's LastUpdate inside tx
func (s *Service) touch(tx store.Tx, treeID string) error {
	tree, err := tx.GetTree(treeID)
	if err != nil {
		return err
	}
	tree.LastUpdate = s.now()
	return tx.UpdateTree(tree)
}

// Snapshot returns a tree and an index of all its nodes, read in one
// transaction.
func (s *Service) Snapshot(ctx context.Context, treeID string) (types.Tree, *types.NodeIndex, error) {
	var tree types.Tree
	var idx *types.NodeIndex
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		if tree, err = tx.GetTree(treeID); err != nil {
			return err
		}
		nodes, err := tx.TreeNodes(treeID)
		if err != nil {
			return err
		}
		idx = types.NewNodeIndex(nodes)
		return nil
	})
	return tree, idx, err
}
