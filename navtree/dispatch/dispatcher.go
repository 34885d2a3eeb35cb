// Package dispatch answers the tree editor: it resolves a message id to a
// command, checks the caller may edit the tree, runs the command against
// the navigation service and returns a structured Result.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/navtree/auth"
	"github.com/arthur-debert/navtree/navtree/ordering"
	"github.com/arthur-debert/navtree/types"
)

// Navigator is the part of the navigation service commands use
type Navigator interface {
	GetTree(ctx context.Context, id string) (types.Tree, error)
	Describe(ctx context.Context, treeID, id string) (navtree.NodeInfo, error)
	Rename(ctx context.Context, treeID, id, label string) (types.Node, string, error)
	Remove(ctx context.Context, treeID string, ids []string) (int, error)
	Move(ctx context.Context, treeID, id string, p ordering.Placement) (types.Node, error)
	AddContent(ctx context.Context, treeID, kind, objectID, parentID string) (types.Node, error)
	ToggleVisibility(ctx context.Context, treeID, id string) (types.Node, error)
	Suggest(ctx context.Context, treeID, term string) ([]navtree.Suggestion, error)
	ListChildren(ctx context.Context, treeID, parentID string) ([]types.Node, error)
}

// Authorizer decides whether a user may edit a tree
type Authorizer interface {
	CanModify(u auth.User, tree types.Tree) bool
}

// Dispatcher runs editor commands
type Dispatcher struct {
	nav    Navigator
	authz  Authorizer
	logger *slog.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger, slog.Default() otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New returns a dispatcher. A nil authz uses auth.PermissionChecker.
func New(nav Navigator, authz Authorizer, opts ...Option) *Dispatcher {
	if authz == nil {
		authz = auth.PermissionChecker{}
	}
	d := &Dispatcher{nav: nav, authz: authz, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the command named msgID on a tree with the form fields of
// the request. It never returns an error: failures are error Results.
func (d *Dispatcher) Dispatch(ctx context.Context, user auth.User, treeID, msgID string, form url.Values) Result {
	tree, err := d.nav.GetTree(ctx, treeID)
	if err != nil {
		return d.fail(msgID, treeID, err)
	}
	if !d.authz.CanModify(user, tree) {
		d.logger.Info("tree edit denied", "tree_id", treeID, "user_id", user.ID, "msg_id", msgID)
		return d.fail(msgID, treeID, types.ErrPermissionDenied)
	}
	cmd, err := ParseCommand(msgID)
	if err != nil {
		return d.fail(msgID, treeID, err)
	}

	res, err := d.run(ctx, cmd, tree.ID, form)
	if err != nil {
		return d.fail(msgID, treeID, err)
	}
	res.Status = StatusSuccess
	if res.Message == "" && cmd != CmdRename {
		res.Message = defaultMessage
	}
	d.logger.Debug("command done", "tree_id", treeID, "command", cmd.String(), "user_id", user.ID)
	return res
}

func (d *Dispatcher) fail(msgID, treeID string, err error) Result {
	kind, message := Classify(err)
	switch kind {
	case KindInternal:
		d.logger.Error("command failed", "msg_id", msgID, "tree_id", treeID, "error", err)
	case KindUnsupportedCommand:
		d.logger.Warn("unsupported command", "msg_id", msgID, "tree_id", treeID)
	default:
		d.logger.Debug("command rejected", "msg_id", msgID, "tree_id", treeID, "kind", string(kind), "error", err)
	}
	return failure(kind, message)
}

func (d *Dispatcher) run(ctx context.Context, cmd Command, treeID string, form url.Values) (Result, error) {
	switch cmd {
	case CmdView:
		return d.view(ctx, treeID, form)
	case CmdRename:
		return d.rename(ctx, treeID, form)
	case CmdRemove:
		return d.remove(ctx, treeID, form)
	case CmdMove:
		return d.move(ctx, treeID, form)
	case CmdAdd:
		return d.add(ctx, treeID, form)
	case CmdToggleVisibility:
		return d.toggle(ctx, treeID, form)
	case CmdSuggest:
		return d.suggest(ctx, treeID, form)
	case CmdListChildren:
		return d.listChildren(ctx, treeID, form)
	}
	return Result{}, &UnsupportedCommandError{Name: cmd.String()}
}

func required(form url.Values, key string) (string, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return "", types.Invalid("%s is required", key)
	}
	return v, nil
}

// optionalID reads an id field; editors send "0" for "none"
func optionalID(form url.Values, key string) string {
	v := strings.TrimSpace(form.Get(key))
	if v == "0" {
		return ""
	}
	return v
}

// NodeView is the JSON shape of a node in results
func NodeView(n types.Node) map[string]any {
	return map[string]any{
		"id":           n.ID,
		"label":        n.Label,
		"parent_id":    n.ParentID,
		"ordering":     n.Ordering,
		"visible":      n.Visible,
		"content_type": n.Content.Kind,
		"object_id":    n.Content.ID,
	}
}

func (d *Dispatcher) view(ctx context.Context, treeID string, form url.Values) (Result, error) {
	id, err := required(form, "node_id")
	if err != nil {
		return Result{}, err
	}
	info, err := d.nav.Describe(ctx, treeID, id)
	if err != nil {
		return Result{}, err
	}
	return success("Node content loaded.", map[string]any{
		"node":         NodeView(info.Node),
		"model_name":   info.ModelName,
		"object_label": info.ObjectLabel,
		"url":          info.URL,
		"missing":      info.Missing,
	}), nil
}

func (d *Dispatcher) rename(ctx context.Context, treeID string, form url.Values) (Result, error) {
	id, err := required(form, "node_id")
	if err != nil {
		return Result{}, err
	}
	node, old, err := d.nav.Rename(ctx, treeID, id, strings.TrimSpace(form.Get("name")))
	if err != nil {
		return Result{}, err
	}
	if old == node.Label {
		return success("", nil), nil
	}
	return success(fmt.Sprintf("The node '%s' has been renamed into '%s'.", old, node.Label), nil), nil
}

func (d *Dispatcher) remove(ctx context.Context, treeID string, form url.Values) (Result, error) {
	raw, err := required(form, "node_ids")
	if err != nil {
		return Result{}, err
	}
	var ids []string
	seen := make(map[string]bool)
	for _, id := range strings.Split(raw, ";") {
		if id = strings.TrimSpace(id); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	count, err := d.nav.Remove(ctx, treeID, ids)
	if err != nil {
		return Result{}, err
	}
	msg := "The node has been removed."
	if len(ids) > 1 {
		msg = fmt.Sprintf("%d nodes have been removed.", len(ids))
	}
	return success(msg, map[string]any{"count": count}), nil
}

func (d *Dispatcher) move(ctx context.Context, treeID string, form url.Values) (Result, error) {
	id, err := required(form, "node_id")
	if err != nil {
		return Result{}, err
	}
	p := ordering.Placement{
		ParentID: optionalID(form, "parent_id"),
		RefID:    optionalID(form, "ref_id"),
		Position: types.RefPosition(strings.TrimSpace(form.Get("ref_pos"))),
	}
	node, err := d.nav.Move(ctx, treeID, id, p)
	if err != nil {
		return Result{}, err
	}
	return success(fmt.Sprintf("The node '%s' has been moved.", node.Label), nil), nil
}

func (d *Dispatcher) add(ctx context.Context, treeID string, form url.Values) (Result, error) {
	kind := strings.TrimSpace(form.Get("object_type"))
	objectID := ""
	if kind != "" {
		objectID = optionalID(form, "object_id")
	}
	node, err := d.nav.AddContent(ctx, treeID, kind, objectID, optionalID(form, "parent_id"))
	if err != nil {
		return Result{}, err
	}
	return success(fmt.Sprintf("'%s' has been added to the navigation tree.", node.Label), map[string]any{
		"id":      "node_" + node.ID,
		"node_id": node.ID,
		"label":   node.Label,
	}), nil
}

func (d *Dispatcher) toggle(ctx context.Context, treeID string, form url.Values) (Result, error) {
	id, err := required(form, "node_id")
	if err != nil {
		return Result{}, err
	}
	node, err := d.nav.ToggleVisibility(ctx, treeID, id)
	if err != nil {
		return Result{}, err
	}
	if node.Visible {
		return success("The node is now visible.", map[string]any{
			"visible": true,
			"label":   "Hide node in navigation",
			"icon":    "in_nav",
		}), nil
	}
	return success("The node is now hidden.", map[string]any{
		"visible": false,
		"label":   "Show node in navigation",
		"icon":    "out_nav",
	}), nil
}

func (d *Dispatcher) suggest(ctx context.Context, treeID string, form url.Values) (Result, error) {
	suggestions, err := d.nav.Suggest(ctx, treeID, strings.TrimSpace(form.Get("term")))
	if err != nil {
		return Result{}, err
	}
	return success("", map[string]any{"suggestions": suggestions}), nil
}

func (d *Dispatcher) listChildren(ctx context.Context, treeID string, form url.Values) (Result, error) {
	nodes, err := d.nav.ListChildren(ctx, treeID, optionalID(form, "parent_id"))
	if err != nil {
		return Result{}, err
	}
	views := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, NodeView(n))
	}
	return success("", map[string]any{"nodes": views}), nil
}
