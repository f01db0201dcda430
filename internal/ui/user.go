package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piquetdestream/piquet/internal/stream"
)

func (a *App) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage community members and their roles",
	}
	cmd.AddCommand(a.userAddCmd(), a.userRolesCmd(), a.userListCmd())
	return cmd
}

func (a *App) userAddCmd() *cobra.Command {
	var name string
	var roles []string

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Register a user",
		Long: `Register a user or replace an existing user's name and roles.

The first user may be added by anyone and bootstraps the store; afterwards
only admins can add users.

Example:
  piquet user add 4242 --name alice --role admin --role planning
  piquet --as 4242 user add 5151 --name bob --role streamer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.ensureRepo(ctx); err != nil {
				return err
			}
			p, err := a.principal(ctx)
			if err != nil {
				return err
			}
			parsed, err := stream.ParseRoles(roles)
			if err != nil {
				return err
			}

			u := &stream.User{ID: args[0], Name: name, Roles: parsed}
			if u.Name == "" {
				u.Name = u.ID
			}
			if err := a.engine.RegisterUser(ctx, p, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered user %s\n", u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the id)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role to grant (admin, planning, streamer, tech, moderator); repeatable")
	return cmd
}

func (a *App) userRolesCmd() *cobra.Command {
	var roles []string

	cmd := &cobra.Command{
		Use:   "roles <id>",
		Short: "Replace a user's roles (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.ensureRepo(ctx); err != nil {
				return err
			}
			p, err := a.principal(ctx)
			if err != nil {
				return err
			}
			parsed, err := stream.ParseRoles(roles)
			if err != nil {
				return err
			}
			u, err := a.engine.SetUserRoles(ctx, p, args[0], parsed)
			if err != nil {
				return err
			}
			printUsers(cmd.OutOrStdout(), []*stream.User{u})
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role to grant; repeatable, none clears every role")
	return cmd
}

func (a *App) userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.ensureRepo(ctx); err != nil {
				return err
			}
			p, err := a.principal(ctx)
			if err != nil {
				return err
			}
			users, err := a.engine.ListUsers(ctx, p)
			if err != nil {
				return err
			}
			printUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
}
