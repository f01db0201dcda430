package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/piquetdestream/piquet/internal/stream"
)

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// slotMinutes returns the slot length in minutes.
func slotMinutes(s *stream.TimeSlot) int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

// statusBadge renders a slot status as a fixed-width coloured tag.
func statusBadge(s stream.TimeSlotStatus) string {
	return statusColor(s).Sprintf("[%-8s]", s)
}

func appointmentBadge(s stream.AppointmentStatus) string {
	return statusBadge(stream.TimeSlotStatus(s))
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// streamerName returns the display name of the request's streamer.
func streamerName(r *stream.StreamRequest) string {
	if r.Streamer != nil && r.Streamer.Name != "" {
		return r.Streamer.Name
	}
	return r.StreamerID
}

// printRequest prints one stream request with all of its slots.
func printRequest(w io.Writer, r *stream.StreamRequest, loc *time.Location) {
	fmt.Fprintf(w, "%s %s\n", formatHeader(fmt.Sprintf("#%d", r.ID)), formatHeader(r.Title))
	fmt.Fprintf(w, "  streamer  %s\n", streamerName(r))
	fmt.Fprintf(w, "  category  %s\n", r.Category)
	if len(r.Guests) > 0 {
		fmt.Fprintf(w, "  guests    %s\n", strings.Join(r.Guests, ", "))
	}
	if r.Description != "" {
		fmt.Fprintf(w, "  about     %s\n", r.Description)
	}

	slots := make([]*stream.TimeSlot, len(r.TimeSlots))
	copy(slots, r.TimeSlots)
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })

	fmt.Fprintln(w, "  slots")
	for _, s := range slots {
		start, end := s.Start.In(loc), s.End.In(loc)
		fmt.Fprintf(w, "    %s  %-4d %s %s-%s  %s\n",
			statusBadge(s.Status), s.ID,
			start.Format("Mon 02 Jan"), start.Format("15:04"), end.Format("15:04"),
			formatMuted(FormatDuration(slotMinutes(s))))
	}

	if a := r.TechAppointment; a != nil {
		tech := a.TechUserID
		if a.Tech != nil && a.Tech.Name != "" {
			tech = a.Tech.Name
		}
		fmt.Fprintf(w, "  tech      %s  #%d %s at %s\n",
			appointmentBadge(a.Status), a.ID, tech, a.StartTime.In(loc).Format("Mon 02 Jan 15:04"))
	}
}

// printUsers prints one user per line.
func printUsers(w io.Writer, users []*stream.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users registered.")
		return
	}
	idWidth := 2
	for _, u := range users {
		idWidth = max(idWidth, len(u.ID))
	}
	for _, u := range users {
		roles := make([]string, len(u.Roles))
		for i, r := range u.Roles {
			roles[i] = strings.ToLower(string(r))
		}
		fmt.Fprintf(w, "  %-*s  %-20s %s\n", idWidth, u.ID, truncate(u.Name, 20), formatMuted(strings.Join(roles, ", ")))
	}
}
