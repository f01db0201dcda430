package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/piquetdestream/piquet/internal/calendar"
	"github.com/piquetdestream/piquet/internal/stream"
)

const gridColWidth = 8

func (a *App) gridCmd() *cobra.Command {
	var week string
	var from, to int

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Show a week as a grid of half-hour cells",
		Long: `Project the approved slots of a week onto 30-minute cells.

  █  occupied by an approved stream
  ░  in the past
  ·  free

Example:
  piquet grid --week next-week --from 16 --to 24`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from < 0 || to > 24 || from >= to {
				return fmt.Errorf("%w: need 0 <= --from < --to <= 24", stream.ErrValidation)
			}
			ctx := cmd.Context()
			if err := a.ensureRepo(ctx); err != nil {
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

			approved, err := a.engine.ApprovedIntervals(ctx, weekStart)
			if err != nil {
				return err
			}
			days := calendar.WeekDays(weekStart)
			g := calendar.Project(days, approved, a.now().In(loc))
			renderGrid(cmd.OutOrStdout(), days, &g, from*2, to*2)
			return nil
		},
	}

	cmd.Flags().StringVar(&week, "week", "", "Any day of the week to show (default today)")
	cmd.Flags().IntVar(&from, "from", 0, "First hour shown")
	cmd.Flags().IntVar(&to, "to", 24, "Hour the grid stops at")
	return cmd
}

// renderGrid writes rows [fromRow, toRow) of g, one line per half hour.
func renderGrid(w io.Writer, days [calendar.DaysPerWeek]time.Time, g *calendar.Grid, fromRow, toRow int) {
	var b strings.Builder
	b.WriteString("       ")
	for _, d := range days {
		fmt.Fprintf(&b, "%-*s", gridColWidth, d.Format("Mon 02"))
	}
	fmt.Fprintln(w, formatHeader(strings.TrimRight(b.String(), " ")))

	for row := fromRow; row < toRow; row++ {
		label := "     "
		if row%2 == 0 {
			label = fmt.Sprintf("%02d:00", row/2)
		}
		b.Reset()
		b.WriteString(formatMuted(label))
		b.WriteString("  ")
		for col := range calendar.DaysPerWeek {
			cell, _ := g.Cell(col, row)
			b.WriteString(gridCell(cell.Type))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func gridCell(t calendar.CellType) string {
	switch t {
	case calendar.CellOccupied:
		return statusColor(stream.SlotApproved).Sprint(strings.Repeat("█", gridColWidth-1)) + " "
	case calendar.CellPast:
		return colorMuted.Sprint(strings.Repeat("░", gridColWidth-1)) + " "
	default:
		return "   ·    "
	}
}
