package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piquetdestream/piquet/internal/config"
	"github.com/piquetdestream/piquet/internal/dateutil"
	"github.com/piquetdestream/piquet/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  piquet config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInteractive(path, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.PersistentFlags().StringVar(&path, "file", config.DefaultConfigPath(), "Config file path")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n\n", path)
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			}
			if err := config.Default().SaveTo(path); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	})

	return cmd
}

func runConfigInteractive(configPath string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Check if file exists
	_, fileErr := os.Stat(configPath)
	isNew := os.IsNotExist(fileErr)

	if isNew {
		fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "Created %s\n\n", configPath)
	}

	// Display current config
	printConfig(out, cfg)

	reader := bufio.NewReader(in)

	// Ask if user wants to edit
	if !promptYesNo(reader, out, "\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Storage.Driver = promptValue(reader, out, "Storage driver (sqlite, postgres)", cfg.Storage.Driver)
	if cfg.Storage.Driver == "postgres" {
		cfg.Storage.DSN = promptValue(reader, out, "PostgreSQL DSN", cfg.Storage.DSN)
	} else {
		cfg.Storage.DBPath = promptValue(reader, out, "Database path", cfg.Storage.DBPath)
	}
	cfg.Schedule.Timezone = promptValue(reader, out, "Timezone (IANA name)", cfg.Schedule.Timezone)
	cfg.Schedule.WeekStart = promptWeekday(reader, out, cfg.Schedule.WeekStart)
	cfg.Server.Listen = promptValue(reader, out, "API listen address", cfg.Server.Listen)
	cfg.Auth.JWTSecret = promptValue(reader, out, "JWT secret (empty keeps the API anonymous)", cfg.Auth.JWTSecret)
	cfg.Discord.RoleAdmin = promptSlice(reader, out, "Discord admin role ids (comma-separated)", cfg.Discord.RoleAdmin)
	cfg.Discord.RolePlanning = promptSlice(reader, out, "Discord planning role ids", cfg.Discord.RolePlanning)
	cfg.Discord.RoleStreamer = promptSlice(reader, out, "Discord streamer role ids", cfg.Discord.RoleStreamer)
	cfg.Discord.RoleTech = promptSlice(reader, out, "Discord tech role ids", cfg.Discord.RoleTech)
	cfg.Discord.RoleModerator = promptSlice(reader, out, "Discord moderator role ids", cfg.Discord.RoleModerator)
	cfg.UI.Theme = promptTheme(reader, out, cfg.UI.Theme)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out, "──────────────────────")
	fmt.Fprintln(out, "[storage]")
	fmt.Fprintf(out, "  driver           = %s\n", cfg.Storage.Driver)
	if cfg.Storage.Driver == "postgres" {
		fmt.Fprintf(out, "  dsn              = %s\n", redact(cfg.Storage.DSN))
	} else {
		fmt.Fprintf(out, "  db_path          = %s\n", cfg.Storage.DBPath)
	}
	fmt.Fprintln(out, "\n[schedule]")
	fmt.Fprintf(out, "  timezone         = %s\n", cfg.Schedule.Timezone)
	fmt.Fprintf(out, "  week_start       = %s\n", cfg.Schedule.WeekStart)
	fmt.Fprintln(out, "\n[server]")
	fmt.Fprintf(out, "  listen           = %s\n", cfg.Server.Listen)
	fmt.Fprintln(out, "\n[auth]")
	fmt.Fprintf(out, "  jwt_secret       = %s\n", redact(cfg.Auth.JWTSecret))
	fmt.Fprintln(out, "\n[log]")
	fmt.Fprintf(out, "  env              = %s\n", cfg.Log.Env)
	fmt.Fprintf(out, "  level            = %s\n", cfg.Log.Level)
	fmt.Fprintln(out, "\n[discord]")
	fmt.Fprintf(out, "  role_admin       = %s\n", strings.Join(cfg.Discord.RoleAdmin, ", "))
	fmt.Fprintf(out, "  role_planning    = %s\n", strings.Join(cfg.Discord.RolePlanning, ", "))
	fmt.Fprintf(out, "  role_streamer    = %s\n", strings.Join(cfg.Discord.RoleStreamer, ", "))
	fmt.Fprintf(out, "  role_tech        = %s\n", strings.Join(cfg.Discord.RoleTech, ", "))
	fmt.Fprintf(out, "  role_moderator   = %s\n", strings.Join(cfg.Discord.RoleModerator, ", "))
	fmt.Fprintln(out, "\n[ui]")
	fmt.Fprintf(out, "  theme            = %s\n", cfg.UI.Theme)
}

// redact hides secrets in printed config.
func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func promptYesNo(reader *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, out io.Writer, label, current string) string {
	if current == "" {
		fmt.Fprintf(out, "  %s: ", label)
	} else {
		fmt.Fprintf(out, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptSlice(reader *bufio.Reader, out io.Writer, label string, current []string) []string {
	currentStr := strings.Join(current, ", ")
	fmt.Fprintf(out, "  %s [%s]: ", label, currentStr)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func promptWeekday(reader *bufio.Reader, out io.Writer, current string) string {
	for {
		value := strings.ToLower(promptValue(reader, out, "First day of the week", current))
		if _, err := dateutil.ParseWeekday(value); err == nil {
			return value
		}
		fmt.Fprintf(out, "  Invalid weekday %q.\n", value)
		if _, err := reader.Peek(1); err != nil {
			return "monday"
		}
	}
}

func promptTheme(reader *bufio.Reader, out io.Writer, current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(promptValue(reader, out, label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(out, "  Invalid theme %q. Available: %s\n", value, options)
		if _, err := reader.Peek(1); err != nil {
			return theme.DefaultName
		}
	}
}
