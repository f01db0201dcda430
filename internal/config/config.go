// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve without a system zoneinfo

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/piquetdestream/piquet/internal/dateutil"
	"github.com/piquetdestream/piquet/internal/stream"
)

// Config holds the application configuration.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`
	Schedule ScheduleConfig `toml:"schedule"`
	Log      LogConfig      `toml:"log"`
	Auth     AuthConfig     `toml:"auth"`
	Discord  DiscordConfig  `toml:"discord"`
	UI       UIConfig       `toml:"ui"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	Driver string `toml:"driver"`  // "sqlite" or "postgres"
	DBPath string `toml:"db_path"` // SQLite file
	DSN    string `toml:"dsn"`     // PostgreSQL connection string
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Listen string `toml:"listen"` // e.g., ":8080"
}

// ScheduleConfig holds the operating timezone and week layout.
type ScheduleConfig struct {
	Timezone  string `toml:"timezone"`   // IANA name, e.g., "Europe/Paris"
	WeekStart string `toml:"week_start"` // e.g., "monday"
}

// LogConfig holds logger settings.
type LogConfig struct {
	Env   string `toml:"env"`   // "development" or "production"
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// DiscordConfig maps Discord role ids to piquet roles.
type DiscordConfig struct {
	RoleAdmin     []string `toml:"role_admin"`
	RolePlanning  []string `toml:"role_planning"`
	RoleStreamer  []string `toml:"role_streamer"`
	RoleTech      []string `toml:"role_tech"`
	RoleModerator []string `toml:"role_moderator"`
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: "sqlite",
			DBPath: defaultDBPath(),
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
		Schedule: ScheduleConfig{
			Timezone:  "Europe/Paris",
			WeekStart: "monday",
		},
		Log: LogConfig{
			Env:   "development",
			Level: "info",
		},
		UI: UIConfig{
			Theme: "frappe",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "piquet.db"
	}
	return filepath.Join(home, ".local", "share", "piquet", "piquet.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "piquet", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env
// overrides. A .env file in the working directory is loaded into the
// environment first; variables already set are left alone.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	if v := os.Getenv("PIQUET_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("PIQUET_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("PIQUET_DATABASE_URL"); v != "" {
		cfg.Storage.DSN = v
	}

	if v := os.Getenv("PIQUET_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}

	// Schedule overrides
	if v := os.Getenv("PIQUET_TIMEZONE"); v != "" {
		cfg.Schedule.Timezone = v
	}
	if v := os.Getenv("PIQUET_WEEK_START"); v != "" {
		cfg.Schedule.WeekStart = v
	}

	// Log overrides
	if v := os.Getenv("PIQUET_LOG_ENV"); v != "" {
		cfg.Log.Env = v
	}
	if v := os.Getenv("PIQUET_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("PIQUET_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	// Discord role lists, comma separated
	overrideList(&cfg.Discord.RoleAdmin, "PIQUET_DISCORD_ROLE_ADMIN")
	overrideList(&cfg.Discord.RolePlanning, "PIQUET_DISCORD_ROLE_PLANNING")
	overrideList(&cfg.Discord.RoleStreamer, "PIQUET_DISCORD_ROLE_STREAMER")
	overrideList(&cfg.Discord.RoleTech, "PIQUET_DISCORD_ROLE_TECH")
	overrideList(&cfg.Discord.RoleModerator, "PIQUET_DISCORD_ROLE_MODERATOR")

	if v := os.Getenv("PIQUET_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
}

func overrideList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

var validLogEnvs = map[string]bool{
	"development": true,
	"production":  true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return errors.New("db_path must be set")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := dateutil.ParseWeekday(c.Schedule.WeekStart); err != nil {
		return fmt.Errorf("invalid week_start: %s", c.Schedule.WeekStart)
	}

	if !validLogEnvs[c.Log.Env] {
		return fmt.Errorf("invalid log env: %s", c.Log.Env)
	}

	if c.Server.Listen == "" {
		return errors.New("listen must be set")
	}

	seen := make(map[string]stream.Role)
	for role, ids := range c.discordLists() {
		for _, id := range ids {
			if prev, ok := seen[id]; ok && prev != role {
				return fmt.Errorf("discord role id %s mapped to both %s and %s", id, prev, role)
			}
			seen[id] = role
		}
	}
	return nil
}

// Location returns the operating timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// FirstWeekday returns the configured first day of the week.
func (c *Config) FirstWeekday() time.Weekday {
	d, err := dateutil.ParseWeekday(c.Schedule.WeekStart)
	if err != nil {
		return time.Monday
	}
	return d
}

// RoleMapping returns the Discord role id to piquet role mapping.
func (c *Config) RoleMapping() stream.RoleMapping {
	m := make(stream.RoleMapping)
	for role, ids := range c.discordLists() {
		for _, id := range ids {
			m[id] = role
		}
	}
	return m
}

func (c *Config) discordLists() map[stream.Role][]string {
	return map[stream.Role][]string{
		stream.RoleAdmin:     c.Discord.RoleAdmin,
		stream.RolePlanning:  c.Discord.RolePlanning,
		stream.RoleStreamer:  c.Discord.RoleStreamer,
		stream.RoleTech:      c.Discord.RoleTech,
		stream.RoleModerator: c.Discord.RoleModerator,
	}
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// The file may carry the JWT secret.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
