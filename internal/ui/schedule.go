package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/piquetdestream/piquet/internal/dateutil"
	"github.com/piquetdestream/piquet/internal/planning"
	"github.com/piquetdestream/piquet/internal/stream"
)

func (a *App) scheduleCmd() *cobra.Command {
	var week, streamer string
	var statuses []string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "List the stream slots of a week",
		Long: `List the candidate slots of one week, grouped by day.

--week accepts a date (YYYY-MM-DD) or a relative name such as "today",
"next-week", "last-week" or a weekday; the week containing it is shown.
Without --as only approved slots are listed.

Example:
  piquet --as 4242 schedule --week next-week --status pending`,
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

			q := planning.ScheduleQuery{WeekStart: weekStart, StreamerID: streamer}
			for _, s := range statuses {
				q.Statuses = append(q.Statuses, stream.TimeSlotStatus(strings.ToUpper(strings.TrimSpace(s))))
			}
			requests, err := a.engine.GetSchedule(ctx, p, q)
			if err != nil {
				return err
			}
			printSchedule(cmd.OutOrStdout(), weekStart, requests, loc, termWidth())
			return nil
		},
	}

	cmd.Flags().StringVar(&week, "week", "", "Any day of the week to show (default today)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only slots with this status; repeatable")
	cmd.Flags().StringVar(&streamer, "streamer", "", "Only requests of this streamer")
	return cmd
}

// resolveWeek returns the start of the week containing the day named by s.
func (a *App) resolveWeek(s string, loc *time.Location) (time.Time, error) {
	day, err := dateutil.ParseRelativeDate(s, a.now().In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --week %q: %v", stream.ErrValidation, s, err)
	}
	return dateutil.WeekStart(day, a.config.FirstWeekday()), nil
}

type scheduleEntry struct {
	request *stream.StreamRequest
	slot    *stream.TimeSlot
}

// printSchedule prints every slot of requests under its day header.
func printSchedule(w io.Writer, weekStart time.Time, requests []*stream.StreamRequest, loc *time.Location, width int) {
	weekEnd := weekStart.AddDate(0, 0, 6)
	header := fmt.Sprintf("WEEK: %s - %s", weekStart.Format("Mon Jan 2"), weekEnd.Format("Mon Jan 2, 2006"))
	fmt.Fprintf(w, "\n  %s\n", formatHeader(header))
	fmt.Fprintln(w, strings.Repeat("─", min(width, 74)))

	var entries []scheduleEntry
	for _, r := range requests {
		for _, s := range r.TimeSlots {
			entries = append(entries, scheduleEntry{request: r, slot: s})
		}
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "  No stream slots this week.")
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].slot.Start.Before(entries[j].slot.Start)
	})

	// "    HH:MM-HH:MM  [STATUS  ]  #id  " is about 36 columns.
	titleWidth := max(12, width-36-16)

	var currentDay string
	counts := make(map[stream.TimeSlotStatus]int)
	for _, e := range entries {
		start, end := e.slot.Start.In(loc), e.slot.End.In(loc)
		day := start.Format("2006-01-02")
		if day != currentDay {
			if currentDay != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "  %s\n", formatHeader(start.Format("Mon Jan 2")))
			currentDay = day
		}

		fmt.Fprintf(w, "    %s-%s  %s  %-5s %-*s %s\n",
			start.Format("15:04"), end.Format("15:04"),
			statusBadge(e.slot.Status),
			fmt.Sprintf("#%d", e.request.ID),
			titleWidth, truncate(e.request.Title, titleWidth),
			formatMuted(truncate(streamerName(e.request), 14)))
		counts[e.slot.Status]++
	}

	fmt.Fprintln(w, strings.Repeat("─", min(width, 74)))
	fmt.Fprintf(w, "  %s  |  %s  |  %s\n",
		statusColor(stream.SlotApproved).Sprintf("Approved: %d", counts[stream.SlotApproved]),
		statusColor(stream.SlotPending).Sprintf("Pending: %d", counts[stream.SlotPending]),
		statusColor(stream.SlotDenied).Sprintf("Denied: %d", counts[stream.SlotDenied]))
}
