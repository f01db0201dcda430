package calendar

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/piquetdestream/piquet/internal/interval"
)

// ErrDuplicateID is returned when an added slot carries an ID already present.
var ErrDuplicateID = errors.New("time slot with same id already exists")

// ActionKind identifies a time slot collection mutation.
type ActionKind int

const (
	AddTimeSlot ActionKind = iota
	RemoveTimeSlot
	UpdateTimeSlot
)

func (k ActionKind) String() string {
	switch k {
	case AddTimeSlot:
		return "AddTimeSlot"
	case RemoveTimeSlot:
		return "RemoveTimeSlot"
	case UpdateTimeSlot:
		return "UpdateTimeSlot"
	default:
		return "Unknown"
	}
}

// Action is a mutation of the candidate slot collection.
type Action struct {
	Kind    ActionKind
	Payload interval.Interval
}

// IDGenerator returns a fresh candidate slot id.
type IDGenerator func() string

// TimeSlots holds the candidate slots of a request being edited.
// It is safe for concurrent use.
type TimeSlots struct {
	mu       sync.Mutex
	slots    []interval.Interval
	newID    IDGenerator
	onChange func([]interval.Interval)
}

// NewTimeSlots creates an empty collection. A nil gen uses random UUIDs.
func NewTimeSlots(gen IDGenerator) *TimeSlots {
	if gen == nil {
		gen = uuid.NewString
	}
	return &TimeSlots{newID: gen}
}

// OnChange registers fn to be called with a snapshot after every dispatch
// that changed the collection.
func (ts *TimeSlots) OnChange(fn func([]interval.Interval)) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.onChange = fn
}

// Dispatch applies a to the collection.
//
//   - AddTimeSlot appends the payload, generating an id when it has none.
//     Returns ErrDuplicateID if the payload id is already present.
//   - RemoveTimeSlot drops the slot with the payload id, if any.
//   - UpdateTimeSlot merges the payload's non-zero fields into the slot with
//     the payload id, if any.
func (ts *TimeSlots) Dispatch(a Action) error {
	ts.mu.Lock()
	changed, err := ts.reduce(a)
	var (
		snapshot []interval.Interval
		notify   func([]interval.Interval)
	)
	if changed && ts.onChange != nil {
		snapshot = ts.snapshot()
		notify = ts.onChange
	}
	ts.mu.Unlock()

	if err != nil {
		return err
	}
	if notify != nil {
		notify(snapshot)
	}
	return nil
}

func (ts *TimeSlots) reduce(a Action) (bool, error) {
	switch a.Kind {
	case AddTimeSlot:
		slot := a.Payload
		if slot.ID != "" {
			if ts.indexOf(slot.ID) >= 0 {
				return false, fmt.Errorf("%w: %s", ErrDuplicateID, slot.ID)
			}
		} else {
			id := ts.newID()
			for ts.indexOf(id) >= 0 {
				id = ts.newID()
			}
			slot.ID = id
		}
		ts.slots = append(ts.slots, slot)
		return true, nil

	case RemoveTimeSlot:
		i := ts.indexOf(a.Payload.ID)
		if i < 0 {
			return false, nil
		}
		ts.slots = append(ts.slots[:i:i], ts.slots[i+1:]...)
		return true, nil

	case UpdateTimeSlot:
		i := ts.indexOf(a.Payload.ID)
		if i < 0 {
			return false, nil
		}
		merged := ts.slots[i]
		if !a.Payload.Start.IsZero() {
			merged.Start = a.Payload.Start
		}
		if !a.Payload.End.IsZero() {
			merged.End = a.Payload.End
		}
		if merged.Start.Equal(ts.slots[i].Start) && merged.End.Equal(ts.slots[i].End) {
			return false, nil
		}
		ts.slots[i] = merged
		return true, nil

	default:
		return false, fmt.Errorf("unknown action %v", a.Kind)
	}
}

func (ts *TimeSlots) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range ts.slots {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (ts *TimeSlots) snapshot() []interval.Interval {
	out := make([]interval.Interval, len(ts.slots))
	copy(out, ts.slots)
	return out
}

// All returns a copy of every slot in insertion order.
func (ts *TimeSlots) All() []interval.Interval {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.snapshot()
}

// Get returns the slot with the given id.
func (ts *TimeSlots) Get(id string) (interval.Interval, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	i := ts.indexOf(id)
	if i < 0 {
		return interval.Interval{}, false
	}
	return ts.slots[i], true
}

// Len returns the number of slots.
func (ts *TimeSlots) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.slots)
}

// Visible returns the slots whose start day is one of the week's days.
// Slots of other weeks stay in the collection.
func (ts *TimeSlots) Visible(week [DaysPerWeek]time.Time) []interval.Interval {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	var out []interval.Interval
	for _, s := range ts.slots {
		if ColOf(s.Start, week) >= 0 {
			out = append(out, s)
		}
	}
	return out
}

// Clear removes every slot.
func (ts *TimeSlots) Clear() {
	ts.mu.Lock()
	changed := len(ts.slots) > 0
	ts.slots = nil
	notify := ts.onChange
	ts.mu.Unlock()

	if changed && notify != nil {
		notify([]interval.Interval{})
	}
}
