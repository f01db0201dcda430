package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/db"
	"github.com/piquetdestream/piquet/internal/stream"
)

func (a *App) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [database_path]",
		Short: "Import users and stream requests from another database",
		Long: `Import every user, stream request and tech appointment from another
piquet SQLite database into the current store. Slot statuses are kept.

Example:
  piquet import /path/to/other.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.ensureRepo(ctx); err != nil {
				return err
			}

			sourcePath, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			if a.config.Storage.Driver == "" || a.config.Storage.Driver == db.DriverSQLite {
				destPath, err := resolvePath(a.config.Storage.DBPath)
				if err != nil {
					return err
				}
				if sourcePath == destPath {
					return fmt.Errorf("source database matches current database")
				}
			}

			info, err := os.Stat(sourcePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("source database does not exist: %s", sourcePath)
				}
				return fmt.Errorf("checking source database: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source database path is a directory: %s", sourcePath)
			}

			res, err := importStore(ctx, a.repo, sourcePath, a.logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d users, %d requests and %d tech appointments from %s\n",
				res.Users, res.Requests, res.Appointments, sourcePath)
			return nil
		},
	}

	return cmd
}

type importResult struct {
	Users        int
	Requests     int
	Appointments int
}

// importStore copies the SQLite store at sourcePath into dest. Users are
// upserted; requests get new IDs.
func importStore(ctx context.Context, dest stream.Repository, sourcePath string, logger *zap.Logger) (importResult, error) {
	var res importResult

	source, err := db.NewSQLite(ctx, sourcePath, logger)
	if err != nil {
		return res, fmt.Errorf("opening source database: %w", err)
	}
	defer func() { _ = source.Close() }()

	users, err := source.ListUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("listing source users: %w", err)
	}
	for _, u := range users {
		if err := dest.SaveUser(ctx, u); err != nil {
			return res, fmt.Errorf("importing user %s: %w", u.ID, err)
		}
		res.Users++
	}

	// Every slot lies inside this range, so every request with a slot is listed.
	listed, err := source.ListSchedule(ctx, stream.ScheduleFilter{
		From: time.Time{},
		To:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return res, fmt.Errorf("listing source requests: %w", err)
	}

	for _, l := range listed {
		r, err := source.GetStreamRequest(ctx, l.ID)
		if err != nil {
			return res, fmt.Errorf("reading source request %d: %w", l.ID, err)
		}
		if r == nil {
			continue
		}

		copied := &stream.StreamRequest{
			StreamerID:  r.StreamerID,
			Title:       r.Title,
			Description: r.Description,
			Category:    r.Category,
			Guests:      r.Guests,
			CreatedAt:   r.CreatedAt,
		}
		for _, s := range r.TimeSlots {
			copied.TimeSlots = append(copied.TimeSlots, &stream.TimeSlot{
				Start:  s.Start,
				End:    s.End,
				Status: s.Status,
			})
		}
		if err := dest.CreateStreamRequest(ctx, copied); err != nil {
			return res, fmt.Errorf("importing request %q: %w", r.Title, err)
		}
		res.Requests++

		if a := r.TechAppointment; a != nil {
			appt := &stream.TechAppointment{
				StreamRequestID: copied.ID,
				TechUserID:      a.TechUserID,
				StartTime:       a.StartTime,
				Status:          a.Status,
			}
			if err := dest.UpsertTechAppointment(ctx, appt); err != nil {
				return res, fmt.Errorf("importing tech appointment of %q: %w", r.Title, err)
			}
			res.Appointments++
		}
	}

	return res, nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
