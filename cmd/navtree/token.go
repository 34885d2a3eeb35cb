package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/navtree/navtree/auth"
)

func (cli *CLI) authenticator() (*auth.Authenticator, error) {
	secret := cli.v.GetString("jwt-secret")
	if secret == "" {
		return nil, NewConfigError("load credentials", "jwt-secret is not set",
			"Pass --jwt-secret or set NAVTREE_JWT_SECRET")
	}
	return auth.NewAuthenticator(secret, cli.tokenTTL())
}

func (cli *CLI) tokenCommand() *cobra.Command {
	var u auth.User
	var editor bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authn, err := cli.authenticator()
			if err != nil {
				return err
			}
			if editor {
				u.Permissions = append(u.Permissions, auth.PermChangeNavTree)
			}
			if u.Name == "" {
				u.Name = u.ID
			}
			token, err := authn.Issue(u)
			if err != nil {
				return WrapError("issue token", err)
			}
			fmt.Fprintln(cli.out, token)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&u.ID, "user", "", "User id (required)")
	flags.StringVar(&u.Name, "name", "", "Display name (default user id)")
	flags.StringSliceVar(&u.Permissions, "perm", nil, "Permissions to grant")
	flags.BoolVar(&editor, "editor", false, "Grant "+auth.PermChangeNavTree)
	flags.BoolVar(&u.Staff, "staff", false, "Staff users see unpublished content")
	flags.BoolVar(&u.Superuser, "superuser", false, "Superusers hold every permission")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
