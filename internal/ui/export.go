package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/piquetdestream/piquet/internal/ics"
	"github.com/piquetdestream/piquet/internal/planning"
	"github.com/piquetdestream/piquet/internal/stream"
)

func (a *App) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the schedule to other formats",
	}
	cmd.AddCommand(a.exportICSCmd())
	return cmd
}

func (a *App) exportICSCmd() *cobra.Command {
	var week, output string

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export a week's approved streams as an iCalendar file",
		Long: `Write one VEVENT per approved slot of the week.

Example:
  piquet export ics --week next-week -o streams.ics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
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
			weekStart, err := a.resolveWeek(week, loc)
			if err != nil {
				return err
			}

			requests, err := a.engine.GetSchedule(ctx, p, planning.ScheduleQuery{
				WeekStart: weekStart,
				Statuses:  []stream.TimeSlotStatus{stream.SlotApproved},
			})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := ics.Write(w, requests, a.now()); err != nil {
				return fmt.Errorf("writing calendar: %w", err)
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d streams to %s\n", len(requests), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&week, "week", "", "Any day of the week to export (default today)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}
