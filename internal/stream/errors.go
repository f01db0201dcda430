package stream

import "errors"

// Request errors.
var (
	ErrValidation       = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflicting concurrent update")
)

// ErrInvalidState groups every rejection caused by the current state of a
// request. Each of the errors below satisfies errors.Is(err, ErrInvalidState).
var ErrInvalidState = errors.New("invalid state")

// State errors.
var (
	ErrAlreadyApproved   = &stateError{"stream request already has an approved time slot"}
	ErrAppointmentExists = &stateError{"stream request already has a tech appointment"}
	ErrNoApprovedSlot    = &stateError{"stream request has no approved time slot"}
	ErrNotAStreamer      = &stateError{"user is not a streamer"}
	ErrNotATech          = &stateError{"user is not a tech"}
	ErrPastTimeSlot      = &stateError{"time slot starts in the past"}
	ErrSlotLocked        = &stateError{"approved time slot cannot be moved"}
)

type stateError struct {
	msg string
}

func (e *stateError) Error() string { return e.msg }

func (e *stateError) Is(target error) bool { return target == ErrInvalidState }
