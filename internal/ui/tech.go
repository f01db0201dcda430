package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piquetdestream/piquet/internal/dateutil"
	"github.com/piquetdestream/piquet/internal/stream"
)

func (a *App) techCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tech",
		Short: "Book and review tech support for approved streams",
	}
	cmd.AddCommand(a.techAssignCmd(), a.techStatusCmd())
	return cmd
}

func (a *App) techAssignCmd() *cobra.Command {
	var techID, start string

	cmd := &cobra.Command{
		Use:   "assign <requestId>",
		Short: "Book a tech for a request with an approved slot",
		Long: `Create the tech appointment of a request. The request needs an approved
slot, and an existing appointment can only be replaced once it was denied.

Example:
  piquet --as 4242 tech assign 12 --tech 6060 --start 2024-06-03T17:30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "request id")
			if err != nil {
				return err
			}
			if techID == "" {
				return fmt.Errorf("%w: --tech is required", stream.ErrValidation)
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
			at, err := dateutil.ParseDateTime(start, loc)
			if err != nil {
				return fmt.Errorf("%w: --start: %v", stream.ErrValidation, err)
			}

			appt, err := a.engine.CreateTechAppointment(ctx, p, id, at, techID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Booked tech appointment #%d: %s at %s %s\n",
				appt.ID, appt.TechUserID, appt.StartTime.In(loc).Format("Mon 02 Jan 15:04"),
				appointmentBadge(appt.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&techID, "tech", "", "User id of the tech")
	cmd.Flags().StringVar(&start, "start", "", "Appointment start, YYYY-MM-DDTHH:MM")
	return cmd
}

func (a *App) techStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <appointmentId> <approved|denied>",
		Short: "Approve or deny a tech appointment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "appointment id")
			if err != nil {
				return err
			}
			status := stream.AppointmentStatus(strings.ToUpper(args[1]))
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
			r, err := a.engine.SetTechAppointmentStatus(ctx, p, id, status)
			if err != nil {
				return err
			}
			printRequest(cmd.OutOrStdout(), r, loc)
			return nil
		},
	}
}
