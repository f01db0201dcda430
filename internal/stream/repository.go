package stream

import (
	"context"
	"time"
)

// Repository defines the storage interface for users, stream requests and
// tech appointments. Lookups return (nil, nil) when the record does not exist.
type Repository interface {
	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id string) (*User, error)

	// SaveUser creates the user or replaces its name and roles.
	SaveUser(ctx context.Context, u *User) error

	// ListUsers returns every user ordered by ID.
	ListUsers(ctx context.Context) ([]*User, error)

	// CreateStreamRequest inserts the request and all of its time slots in one
	// transaction, filling in the generated IDs.
	CreateStreamRequest(ctx context.Context, r *StreamRequest) error

	// GetStreamRequest retrieves a request with its slots, streamer and tech appointment.
	GetStreamRequest(ctx context.Context, id int64) (*StreamRequest, error)

	// UpdateStreamRequest replaces the request metadata and its slot set in one
	// transaction: slots with an ID are updated, slots without one are inserted
	// and stored slots missing from r.TimeSlots are deleted.
	UpdateStreamRequest(ctx context.Context, r *StreamRequest) error

	// ListApprovedSlots returns every APPROVED slot overlapping [from, to).
	ListApprovedSlots(ctx context.Context, from, to time.Time) ([]*TimeSlot, error)

	// ListSchedule returns the requests having at least one slot matching the
	// filter. Each request carries only its matching slots.
	ListSchedule(ctx context.Context, f ScheduleFilter) ([]*StreamRequest, error)

	// SetTimeSlotStatus reads the request's slots, applies ApplySlotStatus and
	// writes the changes inside a single transaction.
	// Returns ErrConflict if a concurrent writer approved another slot.
	SetTimeSlotStatus(ctx context.Context, requestID, slotID int64, status TimeSlotStatus) error

	// UpsertTechAppointment creates the request's appointment or replaces the
	// existing one. At most one appointment exists per request.
	UpsertTechAppointment(ctx context.Context, a *TechAppointment) error

	// GetTechAppointment retrieves an appointment by ID.
	GetTechAppointment(ctx context.Context, id int64) (*TechAppointment, error)

	// SetTechAppointmentStatus updates an appointment status.
	SetTechAppointmentStatus(ctx context.Context, id int64, status AppointmentStatus) error

	// Close releases any resources held by the repository.
	Close() error
}
