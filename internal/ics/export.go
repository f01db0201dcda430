// Package ics renders approved stream slots as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/piquetdestream/piquet/internal/stream"
)

// ProductID identifies piquet as the producer of exported calendars.
const ProductID = "-//Piquet de Stream//piquet//FR"

// Calendar builds a calendar holding one event per APPROVED slot of requests.
// Other slots are skipped. stamp is written as DTSTAMP on every event.
func Calendar(requests []*stream.StreamRequest, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName("Piquet de Stream")

	for _, r := range requests {
		for _, s := range r.TimeSlots {
			if s.Status != stream.SlotApproved {
				continue
			}
			ev := cal.AddEvent(EventUID(s))
			ev.SetDtStampTime(stamp.UTC())
			ev.SetStartAt(s.Start.UTC())
			ev.SetEndAt(s.End.UTC())
			ev.SetSummary(summary(r))
			ev.SetDescription(description(r))
			if r.Category != "" {
				ev.SetProperty(ical.ComponentPropertyCategories, r.Category)
			}
		}
	}
	return cal
}

// Write serializes the calendar of requests to w.
func Write(w io.Writer, requests []*stream.StreamRequest, stamp time.Time) error {
	if _, err := io.WriteString(w, Calendar(requests, stamp).Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

// EventUID returns the stable UID of a slot's event.
func EventUID(s *stream.TimeSlot) string {
	return fmt.Sprintf("slot-%d-%d@piquet", s.StreamRequestID, s.ID)
}

func summary(r *stream.StreamRequest) string {
	if r.Streamer != nil && r.Streamer.Name != "" {
		return r.Title + " (" + r.Streamer.Name + ")"
	}
	return r.Title
}

func description(r *stream.StreamRequest) string {
	var lines []string
	if r.Description != "" {
		lines = append(lines, r.Description)
	}
	if len(r.Guests) > 0 {
		lines = append(lines, "Guests: "+strings.Join(r.Guests, ", "))
	}
	if a := r.TechAppointment; a != nil && a.Status == stream.AppointmentApproved {
		tech := a.TechUserID
		if a.Tech != nil && a.Tech.Name != "" {
			tech = a.Tech.Name
		}
		lines = append(lines, fmt.Sprintf("Tech: %s from %s", tech, a.StartTime.UTC().Format("15:04 MST")))
	}
	return strings.Join(lines, "\n")
}
