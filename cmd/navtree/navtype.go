package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/types"
)

func (cli *CLI) navTypeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "navtype",
		Aliases: []string{"navtypes"},
		Short:   "Configure which content types can be navigated and how they are labelled",
	}

	var (
		searchField string
		labelRule   string
	)
	set := &cobra.Command{
		Use:   "set <type>",
		Short: "Declare a content type navigable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := types.ParseLabelRule(labelRule)
			if err != nil {
				return NewUsageError("set nav type", "label rule", labelRule,
					"Use USE_DEFAULT_STRING, USE_SEARCH_FIELD or USE_GET_LABEL")
			}
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				nt := types.NavType{Kind: args[0], SearchField: searchField, LabelRule: rule}
				if err := svc.SetNavType(ctx, nt); err != nil {
					return WrapError("set nav type", err)
				}
				fmt.Fprintf(cli.out, "%s: %s\n", nt.Kind, nt.LabelRule)
				return nil
			})
		},
	}
	set.Flags().StringVar(&searchField, "search-field", "", "Field searched by suggestions and used as label")
	set.Flags().StringVar(&labelRule, "label-rule", "USE_DEFAULT_STRING", "How labels are derived from content")

	list := &cobra.Command{
		Use:   "list",
		Short: "List navigable content types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				nts, err := svc.NavTypes(ctx)
				if err != nil {
					return WrapError("list nav types", err)
				}
				tbl := &table{header: []string{"TYPE", "SEARCH FIELD", "LABEL RULE"}}
				for _, nt := range nts {
					tbl.add(nt.Kind, nt.SearchField, nt.LabelRule.String())
				}
				return cli.formatter().Print(nts, tbl)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <type>",
		Short: "Stop offering a content type; bound nodes stay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				if err := svc.DeleteNavType(ctx, args[0]); err != nil {
					return WrapError("delete nav type", err)
				}
				fmt.Fprintf(cli.out, "Nav type %s deleted\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(set, list, del)
	return cmd
}
