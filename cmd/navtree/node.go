package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/navtree/ordering"
	"github.com/arthur-debert/navtree/types"
)

func nodeTable(nodes ...types.Node) *table {
	tbl := &table{header: []string{"ID", "LABEL", "PARENT", "ORDERING", "CONTENT", "VISIBLE"}}
	for _, n := range nodes {
		tbl.add(n.ID, n.Label, n.ParentID, strconv.Itoa(n.Ordering), n.Content.String(), strconv.FormatBool(n.Visible))
	}
	return tbl
}

// parseContentRef reads "kind:id", e.g. cms.article:12
func parseContentRef(s string) (types.ContentRef, error) {
	if s == "" {
		return types.ContentRef{}, nil
	}
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return types.ContentRef{}, NewUsageError("parse content", "content reference", s, "Use the form kind:id, e.g. cms.article:12")
	}
	return types.ContentRef{Kind: s[:i], ID: s[i+1:]}, nil
}

// inTree wraps commands whose first argument is a tree id or name
func (cli *CLI) inTree(operation string, fn func(ctx context.Context, svc *navtree.Service, tree types.Tree, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
			tree, err := resolveTree(ctx, svc, args[0])
			if err != nil {
				return WrapError(operation, err)
			}
			if err := fn(ctx, svc, tree, args[1:]); err != nil {
				return WrapError(operation, err)
			}
			return nil
		})
	}
}

func (cli *CLI) nodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Edit the nodes of a tree",
	}

	var (
		parentID string
		label    string
		ref      string
		hidden   bool
	)
	add := &cobra.Command{
		Use:   "add <tree>",
		Short: "Append a node, bound to content or empty",
		Args:  cobra.ExactArgs(1),
		RunE: cli.inTree("add node", func(ctx context.Context, svc *navtree.Service, tree types.Tree, _ []string) error {
			cref, err := parseContentRef(ref)
			if err != nil {
				return err
			}
			node, err := svc.CreateNode(ctx, tree.ID, navtree.NodeSpec{
				ParentID: parentID,
				Label:    label,
				Content:  cref,
				Hidden:   hidden,
			})
			if err != nil {
				return err
			}
			return cli.formatter().Print(node, nodeTable(node))
		}),
	}
	add.Flags().StringVar(&parentID, "parent", "", "Parent node id (default root)")
	add.Flags().StringVar(&label, "label", "", "Label (required for empty nodes)")
	add.Flags().StringVar(&ref, "content", "", "Bound content as kind:id")
	add.Flags().BoolVar(&hidden, "hidden", false, "Keep the node out of navigation")

	var (
		moveParent string
		refID      string
		position   string
	)
	move := &cobra.Command{
		Use:   "move <tree> <node>",
		Short: "Move a node next to a sibling or to the end of a parent",
		Long: `Move a node. With --ref the node lands before or after that sibling,
which must be a child of --parent. Without --ref it is appended to --parent.`,
		Args: cobra.ExactArgs(2),
		RunE: cli.inTree("move node", func(ctx context.Context, svc *navtree.Service, tree types.Tree, args []string) error {
			node, err := svc.Move(ctx, tree.ID, args[0], ordering.Placement{
				ParentID: moveParent,
				RefID:    refID,
				Position: types.RefPosition(position),
			})
			if err != nil {
				return err
			}
			return cli.formatter().Print(node, nodeTable(node))
		}),
	}
	move.Flags().StringVar(&moveParent, "parent", "", "Target parent id (default root)")
	move.Flags().StringVar(&refID, "ref", "", "Reference sibling id")
	move.Flags().StringVar(&position, "pos", string(types.After), "before|after the reference")

	rename := &cobra.Command{
		Use:   "rename <tree> <node> <label>",
		Short: "Change a node's label",
		Args:  cobra.ExactArgs(3),
		RunE: cli.inTree("rename node", func(ctx context.Context, svc *navtree.Service, tree types.Tree, args []string) error {
			node, old, err := svc.Rename(ctx, tree.ID, args[0], args[1])
			if err != nil {
				return err
			}
			if old == node.Label {
				fmt.Fprintln(cli.out, "Label unchanged")
				return nil
			}
			fmt.Fprintf(cli.out, "Renamed %q to %q\n", old, node.Label)
			return nil
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <tree> <node>...",
		Short: "Remove nodes and their subtrees",
		Args:  cobra.MinimumNArgs(2),
		RunE: cli.inTree("remove nodes", func(ctx context.Context, svc *navtree.Service, tree types.Tree, args []string) error {
			n, err := svc.Remove(ctx, tree.ID, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "%d nodes removed\n", n)
			return nil
		}),
	}

	toggle := &cobra.Command{
		Use:   "toggle <tree> <node>",
		Short: "Show or hide a node in navigation",
		Args:  cobra.ExactArgs(2),
		RunE: cli.inTree("toggle visibility", func(ctx context.Context, svc *navtree.Service, tree types.Tree, args []string) error {
			node, err := svc.ToggleVisibility(ctx, tree.ID, args[0])
			if err != nil {
				return err
			}
			return cli.formatter().Print(node, nodeTable(node))
		}),
	}

	var renumberParent string
	renumber := &cobra.Command{
		Use:   "renumber <tree>",
		Short: "Compact sibling orderings to 0..n-1",
		Args:  cobra.ExactArgs(1),
		RunE: cli.inTree("renumber nodes", func(ctx context.Context, svc *navtree.Service, tree types.Tree, _ []string) error {
			n, err := svc.Renumber(ctx, tree.ID, renumberParent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "%d nodes renumbered\n", n)
			return nil
		}),
	}
	renumber.Flags().StringVar(&renumberParent, "parent", "", "Parent node id (default root)")

	var childrenParent string
	children := &cobra.Command{
		Use:   "children <tree>",
		Short: "List the children of a node in display order",
		Args:  cobra.ExactArgs(1),
		RunE: cli.inTree("list children", func(ctx context.Context, svc *navtree.Service, tree types.Tree, _ []string) error {
			nodes, err := svc.ListChildren(ctx, tree.ID, childrenParent)
			if err != nil {
				return err
			}
			return cli.formatter().Print(nodes, nodeTable(nodes...))
		}),
	}
	children.Flags().StringVar(&childrenParent, "parent", "", "Parent node id (default root)")

	cmd.AddCommand(add, move, rename, remove, toggle, renumber, children)
	return cmd
}
