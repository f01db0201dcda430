// Package stream defines the core domain types for piquet: stream requests,
// their candidate time slots and the tech appointments attached to them.
package stream

import (
	"time"

	"github.com/piquetdestream/piquet/internal/interval"
)

// TimeSlotStatus represents the review state of a candidate time slot.
type TimeSlotStatus string

const (
	SlotPending  TimeSlotStatus = "PENDING"
	SlotApproved TimeSlotStatus = "APPROVED"
	SlotDenied   TimeSlotStatus = "DENIED"
)

// Valid returns true if the status is a known value.
func (s TimeSlotStatus) Valid() bool {
	switch s {
	case SlotPending, SlotApproved, SlotDenied:
		return true
	default:
		return false
	}
}

// AppointmentStatus represents the review state of a tech appointment.
type AppointmentStatus string

const (
	AppointmentPending  AppointmentStatus = "PENDING"
	AppointmentApproved AppointmentStatus = "APPROVED"
	AppointmentDenied   AppointmentStatus = "DENIED"
)

// Valid returns true if the status is a known value.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentApproved, AppointmentDenied:
		return true
	default:
		return false
	}
}

// User is a community member known to the planning system.
type User struct {
	ID    string
	Name  string
	Roles []Role
}

// HasRole reports whether the user carries role r.
func (u *User) HasRole(r Role) bool {
	return hasRole(u.Roles, r)
}

// TimeSlot is one candidate interval of a stream request.
type TimeSlot struct {
	ID              int64
	StreamRequestID int64
	Start           time.Time
	End             time.Time
	Status          TimeSlotStatus
}

// Interval returns the slot as a half-open interval.
func (s *TimeSlot) Interval() interval.Interval {
	return interval.Interval{Start: s.Start, End: s.End}
}

// TechAppointment is the technical support booking for a request.
type TechAppointment struct {
	ID              int64
	StreamRequestID int64
	TechUserID      string
	StartTime       time.Time
	Status          AppointmentStatus
	Tech            *User
}

// StreamRequest is a streamer's proposal: metadata plus the candidate slots.
// At most one of TimeSlots is APPROVED at any time.
type StreamRequest struct {
	ID              int64
	StreamerID      string
	Title           string
	Description     string
	Category        string
	Guests          []string
	TimeSlots       []*TimeSlot
	TechAppointment *TechAppointment
	Streamer        *User
	CreatedAt       time.Time
}

// ApprovedSlot returns the approved slot, or nil if none is approved.
func (r *StreamRequest) ApprovedSlot() *TimeSlot {
	for _, s := range r.TimeSlots {
		if s.Status == SlotApproved {
			return s
		}
	}
	return nil
}

// Slot returns the slot with the given id, or nil.
func (r *StreamRequest) Slot(id int64) *TimeSlot {
	for _, s := range r.TimeSlots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ScheduleFilter narrows a schedule listing.
// Slots must lie fully inside [From, To). An empty Statuses means any status.
type ScheduleFilter struct {
	From       time.Time
	To         time.Time
	Statuses   []TimeSlotStatus
	StreamerID string
}

// Matches reports whether a slot passes the filter.
func (f ScheduleFilter) Matches(s *TimeSlot) bool {
	if s.Start.Before(f.From) || s.End.After(f.To) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if s.Status == st {
			return true
		}
	}
	return false
}
