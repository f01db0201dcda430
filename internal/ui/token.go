package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/piquetdestream/piquet/internal/httpapi"
	"github.com/piquetdestream/piquet/internal/stream"
)

func (a *App) tokenCmd() *cobra.Command {
	var userID string
	var roles []string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token for a user",
		Long: `Sign a bearer token for the HTTP API with auth.jwt_secret.

Without --role the token carries the roles stored for the user.

Example:
  piquet token --user 4242 --ttl 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return fmt.Errorf("%w: --user is required", stream.ErrValidation)
			}
			granted, err := stream.ParseRoles(roles)
			if err != nil {
				return err
			}
			if len(granted) == 0 {
				ctx := cmd.Context()
				if err := a.ensureRepo(ctx); err != nil {
					return err
				}
				p, err := a.engine.Principal(ctx, userID)
				if err != nil {
					return err
				}
				granted = p.Roles
			}

			auth := httpapi.NewAuthenticator(a.config.Auth.JWTSecret, a.config.RoleMapping())
			token, err := auth.Issue(userID, granted, ttl, a.now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id the token identifies")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role to embed; repeatable (default the stored roles)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
