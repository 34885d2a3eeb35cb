package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/navtree/navtree"
)

func (cli *CLI) exportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export [tree...]",
		Short: "Write trees and nav types as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				var ids []string
				for _, ref := range args {
					tree, err := resolveTree(ctx, svc, ref)
					if err != nil {
						return WrapError("export", err)
					}
					ids = append(ids, tree.ID)
				}
				doc, err := svc.Export(ctx, ids...)
				if err != nil {
					return WrapError("export", err)
				}

				var w io.Writer = cli.out
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return WrapError("export", err)
					}
					defer func() { _ = f.Close() }()
					w = f
				}
				if err := navtree.WriteDocument(w, doc); err != nil {
					return WrapError("export", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default stdout)")
	return cmd
}

func (cli *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Create the trees of an exported YAML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return WrapError("import", err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			doc, err := navtree.ReadDocument(r)
			if err != nil {
				return WrapError("import", err)
			}
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				trees, err := svc.Import(ctx, doc)
				if err != nil {
					return WrapError("import", err, "Tree names must not already exist in the store")
				}
				for _, t := range trees {
					fmt.Fprintf(cli.out, "Imported tree %q (%s)\n", t.Name, t.ID)
				}
				return nil
			})
		},
	}
}
