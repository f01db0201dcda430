package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/config"
	"github.com/piquetdestream/piquet/internal/db"
	"github.com/piquetdestream/piquet/internal/logging"
	"github.com/piquetdestream/piquet/internal/planning"
	"github.com/piquetdestream/piquet/internal/stream"
	"github.com/piquetdestream/piquet/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	repo   stream.Repository
	engine *planning.Engine
	config *config.Config
	logger *zap.Logger
	root   *cobra.Command
	now    func() time.Time

	as      string // User the commands act as
	debug   bool   // Enable debug logging
	noColor bool
}

// NewApp creates a new CLI application. A nil repo is opened lazily from the
// configured storage on first use.
func NewApp(repo stream.Repository, cfg *config.Config, logger *zap.Logger) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	a := &App{repo: repo, config: cfg, logger: logger, now: time.Now}

	a.root = &cobra.Command{
		Use:   "piquet",
		Short: "Plan stream slots for a community channel",
		Long: `Piquet plans stream slots for a shared community channel.

Streamers propose candidate time slots, planners approve exactly one of
them, and techs book support for approved streams. Running piquet with no
subcommand opens the interactive week editor.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor {
				DisableColor()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runEditor(cmd.Context())
		},
	}

	flags := a.root.PersistentFlags()
	flags.StringVar(&a.as, "as", "", "User id to act as (roles come from the store)")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging (editor logs to "+tui.DebugLogPath+")")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable color output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.userCmd())
	a.root.AddCommand(a.requestCmd())
	a.root.AddCommand(a.techCmd())
	a.root.AddCommand(a.scheduleCmd())
	a.root.AddCommand(a.gridCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.tokenCmd())
	a.root.AddCommand(a.importCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "piquet %s (commit: %s)\n", Version, Commit)
		},
	}
}

// runEditor opens the interactive week editor.
func (a *App) runEditor(ctx context.Context) error {
	if err := a.ensureRepo(ctx); err != nil {
		return err
	}
	p, err := a.principal(ctx)
	if err != nil {
		return err
	}
	loc, err := a.config.Location()
	if err != nil {
		return err
	}

	// The editor owns the terminal, so its logs go to a file or nowhere.
	logger := logging.Nop()
	if a.debug {
		l, closeLog, err := tui.OpenDebugLog(tui.DebugLogPath)
		if err != nil {
			return err
		}
		defer closeLog()
		logger = l
	}

	return tui.Run(tui.Options{
		Planner:   a.engine,
		Principal: p,
		Theme:     a.config.UI.Theme,
		FirstDay:  a.config.FirstWeekday(),
		Location:  loc,
		Logger:    logger,
		Now:       a.now,
	})
}

// ensureRepo opens the configured store if none was injected and builds the
// planning engine over it.
func (a *App) ensureRepo(ctx context.Context) error {
	if a.engine != nil {
		return nil
	}
	if a.repo == nil {
		s := a.config.Storage
		if s.Driver == "" || s.Driver == db.DriverSQLite {
			if err := os.MkdirAll(filepath.Dir(s.DBPath), 0o755); err != nil {
				return fmt.Errorf("creating database directory: %w", err)
			}
		}
		repo, err := db.Open(ctx, db.Options{Driver: s.Driver, Path: s.DBPath, DSN: s.DSN}, a.logger)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		a.repo = repo
	}
	a.engine = planning.New(a.repo, a.logger)
	a.engine.Now = a.now
	return nil
}

// principal resolves the --as user. No user means the anonymous caller.
func (a *App) principal(ctx context.Context) (stream.Principal, error) {
	p, err := a.engine.Principal(ctx, a.as)
	if err != nil {
		return stream.Principal{}, fmt.Errorf("resolving --as: %w", err)
	}
	return p, nil
}

// Close releases the repository.
func (a *App) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}
