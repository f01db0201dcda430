package stream

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/piquetdestream/piquet/internal/interval"
)

// MaxTitleLength is the maximum title length in characters.
const MaxTitleLength = 100

// SlotInput is a candidate slot in a create or edit payload.
// ID is set only when an edit keeps an existing slot.
type SlotInput struct {
	ID    int64     `json:"id,omitempty"`
	Start time.Time `json:"startTime"`
	End   time.Time `json:"endTime"`
}

// Interval returns the slot as a half-open interval.
func (s SlotInput) Interval() interval.Interval {
	return interval.Interval{Start: s.Start, End: s.End}
}

// CreateInput is the payload of a new stream request.
type CreateInput struct {
	StreamerID  string      `json:"streamerId,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category"`
	Guests      []string    `json:"guests"`
	TimeSlots   []SlotInput `json:"streamRequestTimeSlots"`
}

// Validate checks the payload shape and truncates slot times to
// SlotPrecision. Errors wrap ErrValidation.
func (in *CreateInput) Validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title cannot exceed %d characters", ErrValidation, MaxTitleLength)
	}
	if strings.TrimSpace(in.Category) == "" {
		return fmt.Errorf("%w: category cannot be empty", ErrValidation)
	}
	return validateSlots(in.TimeSlots)
}

// Intervals returns the candidate slots as intervals.
func (in *CreateInput) Intervals() []interval.Interval {
	return slotIntervals(in.TimeSlots)
}

// EditInput is the payload of an edit to an existing stream request.
// Slots carrying an ID are kept (and possibly moved), slots without one are
// added, and existing slots missing from the list are removed. An empty
// Title or Category keeps the stored value, a nil Guests keeps the stored
// guests, and Description replaces the stored one.
type EditInput struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category"`
	Guests      []string    `json:"guests"`
	TimeSlots   []SlotInput `json:"streamRequestTimeSlots"`
}

// Validate checks the payload shape and truncates slot times to
// SlotPrecision. Errors wrap ErrValidation.
func (in *EditInput) Validate() error {
	if in.ID <= 0 {
		return fmt.Errorf("%w: stream request id is required", ErrValidation)
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title cannot exceed %d characters", ErrValidation, MaxTitleLength)
	}
	seen := make(map[int64]bool)
	for _, s := range in.TimeSlots {
		if s.ID == 0 {
			continue
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: time slot %d listed twice", ErrValidation, s.ID)
		}
		seen[s.ID] = true
	}
	return validateSlots(in.TimeSlots)
}

// SlotPrecision is the resolution slot times are stored at. Finer parts are
// truncated before validation.
const SlotPrecision = time.Minute

// validateSlots truncates every slot to SlotPrecision in place, then checks
// the list.
func validateSlots(slots []SlotInput) error {
	if len(slots) == 0 {
		return fmt.Errorf("%w: at least one time slot is required", ErrValidation)
	}
	for i := range slots {
		slots[i].Start = slots[i].Start.Truncate(SlotPrecision)
		slots[i].End = slots[i].End.Truncate(SlotPrecision)
	}
	for i, s := range slots {
		if !s.Start.Before(s.End) {
			return fmt.Errorf("%w: time slot %d: %v", ErrValidation, i+1, interval.ErrEndBeforeStart)
		}
	}
	return nil
}

func slotIntervals(slots []SlotInput) []interval.Interval {
	out := make([]interval.Interval, len(slots))
	for i, s := range slots {
		out[i] = s.Interval()
	}
	return out
}
