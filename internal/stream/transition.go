package stream

import (
	"fmt"

	"github.com/piquetdestream/piquet/internal/interval"
)

// ApplySlotStatus computes the slot status changes caused by setting slotID
// to status. Only slots whose status actually changes are returned.
//
//   - APPROVED: fails with ErrAlreadyApproved if a different slot is approved;
//     otherwise the target becomes APPROVED and every other slot DENIED.
//   - PENDING: fails with ErrAlreadyApproved if a different slot is approved.
//   - DENIED: always allowed.
//
// The result keeps at most one APPROVED slot per request.
func ApplySlotStatus(slots []*TimeSlot, slotID int64, status TimeSlotStatus) (map[int64]TimeSlotStatus, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown time slot status %q", ErrValidation, status)
	}

	var target *TimeSlot
	var otherApproved bool
	for _, s := range slots {
		if s.ID == slotID {
			target = s
			continue
		}
		if s.Status == SlotApproved {
			otherApproved = true
		}
	}
	if target == nil {
		return nil, fmt.Errorf("time slot %d: %w", slotID, ErrNotFound)
	}

	changes := make(map[int64]TimeSlotStatus)
	set := func(s *TimeSlot, st TimeSlotStatus) {
		if s.Status != st {
			changes[s.ID] = st
		}
	}

	switch status {
	case SlotApproved:
		if otherApproved {
			return nil, ErrAlreadyApproved
		}
		for _, s := range slots {
			if s.ID == slotID {
				set(s, SlotApproved)
			} else {
				set(s, SlotDenied)
			}
		}
	case SlotPending:
		if otherApproved {
			return nil, ErrAlreadyApproved
		}
		set(target, SlotPending)
	case SlotDenied:
		set(target, SlotDenied)
	}

	return changes, nil
}

// SeedStatus returns the initial status of a new candidate slot: DENIED when
// an already approved slot fully contains it, PENDING otherwise.
func SeedStatus(candidate interval.Interval, approved []interval.Interval) TimeSlotStatus {
	if interval.AnyContains(approved, candidate) {
		return SlotDenied
	}
	return SlotPending
}

// CountApproved returns the number of APPROVED slots.
func CountApproved(slots []*TimeSlot) int {
	n := 0
	for _, s := range slots {
		if s.Status == SlotApproved {
			n++
		}
	}
	return n
}
