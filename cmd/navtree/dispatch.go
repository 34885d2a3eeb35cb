package main

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/navtree/auth"
	"github.com/arthur-debert/navtree/navtree/dispatch"
)

// operator is the CLI's identity towards the dispatcher
var operator = auth.User{ID: "cli", Name: "navtree", Superuser: true}

func parseForm(pairs []string) (url.Values, error) {
	form := url.Values{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, NewUsageError("dispatch", "field", p, "Pass payload fields as key=value")
		}
		form.Add(k, v)
	}
	return form, nil
}

func (cli *CLI) dispatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <tree> <msg_id> [key=value...]",
		Short: "Run a tree editor command and print its JSON result",
		Long: `Run one of the tree editor commands the way the HTTP edit endpoint
does, as a superuser. Commands: ` + strings.Join(commandNames(), ", ") + `.

Example:
  navtree dispatch main move node_id=id4 parent_id=id2 ref_id=id3 ref_pos=before`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := parseForm(args[2:])
			if err != nil {
				return err
			}
			return cli.withService(cmd, func(ctx context.Context, svc *navtree.Service) error {
				tree, err := resolveTree(ctx, svc, args[0])
				if err != nil {
					return WrapError("dispatch", err)
				}
				d := dispatch.New(svc, nil, dispatch.WithLogger(cli.logger))
				res := d.Dispatch(ctx, operator, tree.ID, args[1], form)

				enc := json.NewEncoder(cli.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
				if !res.OK() {
					return &CLIError{Operation: "dispatch " + args[1], Cause: res.Message}
				}
				return nil
			})
		},
	}
}

func commandNames() []string {
	var names []string
	for _, c := range dispatch.Commands() {
		names = append(names, c.String())
	}
	return names
}
