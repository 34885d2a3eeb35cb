package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/types"
)

func treeTable(trees ...types.Tree) *table {
	tbl := &table{header: []string{"ID", "NAME", "TYPES", "LAST UPDATE"}}
	for _, t := range trees {
		tbl.add(t.ID, t.Name, strings.Join(t.Types, ","), t.LastUpdate.Format(time.RFC3339))
	}
	return tbl
}

func (cli *CLI) treeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Manage navigation trees",
	}

	var kinds []string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				tree, err := svc.CreateTree(ctx, args[0], kinds)
				if err != nil {
					return WrapError("create tree", err)
				}
				return cli.formatter().Print(tree, treeTable(tree))
			})
		},
	}
	create.Flags().StringSliceVar(&kinds, "types", nil, "Content types the tree offers (default all)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				trees, err := svc.ListTrees(ctx)
				if err != nil {
					return WrapError("list trees", err)
				}
				return cli.formatter().Print(trees, treeTable(trees...))
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <tree>",
		Short: "Print a tree outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				tree, err := resolveTree(ctx, svc, args[0])
				if err != nil {
					return WrapError("show tree", err)
				}
				_, idx, err := svc.Snapshot(ctx, tree.ID)
				if err != nil {
					return WrapError("show tree", err)
				}
				progeny := idx.Progeny("")
				nodes := make([]types.Node, 0, len(progeny))
				tbl := &table{header: []string{"LABEL", "ID", "ORDERING", "CONTENT", "VISIBLE"}}
				for _, ln := range progeny {
					nodes = append(nodes, ln.Node)
					tbl.add(strings.Repeat("  ", ln.Level)+ln.Node.Label, ln.Node.ID,
						strconv.Itoa(ln.Node.Ordering), ln.Node.Content.String(), strconv.FormatBool(ln.Node.Visible))
				}
				return cli.formatter().Print(nodes, tbl)
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <tree> <name>",
		Short: "Rename a tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				tree, err := resolveTree(ctx, svc, args[0])
				if err != nil {
					return WrapError("rename tree", err)
				}
				if tree, err = svc.RenameTree(ctx, tree.ID, args[1]); err != nil {
					return WrapError("rename tree", err)
				}
				return cli.formatter().Print(tree, treeTable(tree))
			})
		},
	}

	setTypes := &cobra.Command{
		Use:   "types <tree> [type...]",
		Short: "Restrict the content types a tree offers; none lifts the restriction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				tree, err := resolveTree(ctx, svc, args[0])
				if err != nil {
					return WrapError("set tree types", err)
				}
				if tree, err = svc.SetTreeTypes(ctx, tree.ID, args[1:]); err != nil {
					return WrapError("set tree types", err, "Run 'navtree navtype list' to see the navigable types")
				}
				return cli.formatter().Print(tree, treeTable(tree))
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <tree>",
		Short: "Delete a tree and all its nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				tree, err := resolveTree(ctx, svc, args[0])
				if err != nil {
					return WrapError("delete tree", err)
				}
				if err := svc.DeleteTree(ctx, tree.ID); err != nil {
					return WrapError("delete tree", err)
				}
				fmt.Fprintf(cli.out, "Tree %q deleted\n", tree.Name)
				return nil
			})
		},
	}

	cmd.AddCommand(create, list, show, rename, setTypes, del)
	return cmd
}
