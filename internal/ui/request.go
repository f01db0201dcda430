package ui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/piquetdestream/piquet/internal/dateutil"
	"github.com/piquetdestream/piquet/internal/stream"
)

func (a *App) requestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "request",
		Aliases: []string{"req"},
		Short:   "Create, edit and review stream requests",
	}
	cmd.AddCommand(a.requestCreateCmd(), a.requestEditCmd(), a.requestShowCmd(), a.requestStatusCmd())
	return cmd
}

func (a *App) requestCreateCmd() *cobra.Command {
	var in stream.CreateInput
	var slots []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Propose a stream with one or more candidate slots",
		Long: `Create a stream request. Each --slot is a candidate interval written as
START/END in the configured timezone; END may omit the date.

Example:
  piquet --as 5151 request create --title "Speedrun night" --category games \
    --slot 2024-06-03T18:00/20:00 --slot 2024-06-04T18:00/20:00`,
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
			if in.TimeSlots, err = parseSlots(slots, loc); err != nil {
				return err
			}

			r, err := a.engine.CreateStreamRequest(ctx, p, in)
			if err != nil {
				return err
			}
			printRequest(cmd.OutOrStdout(), r, loc)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.StreamerID, "streamer", "", "Streamer to create the request for (planners and admins only)")
	f.StringVar(&in.Title, "title", "", "Stream title")
	f.StringVar(&in.Category, "category", "", "Stream category")
	f.StringVar(&in.Description, "description", "", "Stream description")
	f.StringSliceVar(&in.Guests, "guest", nil, "Guest name; repeatable")
	f.StringArrayVar(&slots, "slot", nil, "Candidate slot START/END; repeatable")
	return cmd
}

func (a *App) requestEditCmd() *cobra.Command {
	var (
		title, category, description string
		guests                      []string
		add                         []string
		drop                        []int64
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a stream request",
		Long: `Edit a stream request's metadata and candidate slots. Unset flags keep
the current values. --slot adds a candidate, --drop removes one by id.
The approved slot cannot be dropped.

Example:
  piquet --as 5151 request edit 12 --title "Any% night" --drop 31 --slot 2024-06-05T18:00/20:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "request id")
			if err != nil {
				return err
			}
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
			current, err := a.engine.GetStreamRequest(ctx, p, id)
			if err != nil {
				return err
			}

			in := stream.EditInput{
				ID:          id,
				Title:       current.Title,
				Category:    current.Category,
				Description: current.Description,
				Guests:      current.Guests,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = title
			}
			if flags.Changed("category") {
				in.Category = category
			}
			if flags.Changed("description") {
				in.Description = description
			}
			if flags.Changed("guest") {
				in.Guests = guests
			}
			for _, s := range current.TimeSlots {
				if slices.Contains(drop, s.ID) {
					continue
				}
				in.TimeSlots = append(in.TimeSlots, stream.SlotInput{ID: s.ID, Start: s.Start, End: s.End})
			}
			added, err := parseSlots(add, loc)
			if err != nil {
				return err
			}
			in.TimeSlots = append(in.TimeSlots, added...)

			r, err := a.engine.EditStreamRequest(ctx, p, in)
			if err != nil {
				return err
			}
			printRequest(cmd.OutOrStdout(), r, loc)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "New title")
	f.StringVar(&category, "category", "", "New category")
	f.StringVar(&description, "description", "", "New description")
	f.StringSliceVar(&guests, "guest", nil, "Guest name; repeatable, replaces the guest list")
	f.StringArrayVar(&add, "slot", nil, "Candidate slot START/END to add; repeatable")
	f.Int64SliceVar(&drop, "drop", nil, "Slot id to remove; repeatable")
	return cmd
}

func (a *App) requestShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stream request with its slots and tech appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "request id")
			if err != nil {
				return err
			}
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
			r, err := a.engine.GetStreamRequest(ctx, p, id)
			if err != nil {
				return err
			}
			printRequest(cmd.OutOrStdout(), r, loc)
			return nil
		},
	}
}

func (a *App) requestStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <slotId> <approved|pending|denied>",
		Short: "Review one candidate slot (planners and admins only)",
		Long: `Set the status of one candidate slot. Approving a slot denies every
other slot of the request.

Example:
  piquet --as 4242 request status 12 31 approved`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "request id")
			if err != nil {
				return err
			}
			slotID, err := parseID(args[1], "slot id")
			if err != nil {
				return err
			}
			status := stream.TimeSlotStatus(strings.ToUpper(args[2]))
			if !status.Valid() {
				return fmt.Errorf("%w: unknown status %q", stream.ErrValidation, args[2])
			}
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
			r, err := a.engine.SetStreamRequestStatus(ctx, p, id, slotID, status)
			if err != nil {
				return err
			}
			printRequest(cmd.OutOrStdout(), r, loc)
			return nil
		},
	}
}

// parseSlots parses START/END ranges in loc.
func parseSlots(ranges []string, loc *time.Location) ([]stream.SlotInput, error) {
	out := make([]stream.SlotInput, 0, len(ranges))
	for _, s := range ranges {
		start, end, err := dateutil.ParseRange(s, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %q: %v", stream.ErrValidation, s, err)
		}
		out = append(out, stream.SlotInput{Start: start, End: end})
	}
	return out, nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", stream.ErrValidation, what, s)
	}
	return id, nil
}
