package ui

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/piquetdestream/piquet/internal/httpapi"
)

func (a *App) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning HTTP API",
		Long: `Serve the JSON and iCalendar API until interrupted.

Callers authenticate with an HS256 bearer token signed with auth.jwt_secret
(see 'piquet token'). Requests without a token act anonymously and only see
approved slots.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.ensureRepo(ctx); err != nil {
				return err
			}
			loc, err := a.config.Location()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = a.config.Server.Listen
			}
			if a.config.Auth.JWTSecret == "" {
				a.logger.Warn("auth.jwt_secret is not set; every request is anonymous")
			}

			auth := httpapi.NewAuthenticator(a.config.Auth.JWTSecret, a.config.RoleMapping())
			srv := httpapi.New(a.engine, auth, httpapi.Options{
				Location: loc,
				FirstDay: a.config.FirstWeekday(),
				Logger:   a.logger,
				Now:      a.now,
			})
			return srv.Run(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	return cmd
}
