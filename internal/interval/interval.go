// Package interval defines the half-open time interval used for every
// overlap and containment decision in piquet.
package interval

import (
	"errors"
	"time"
)

// ErrEndBeforeStart is returned when an interval would not satisfy Start < End.
var ErrEndBeforeStart = errors.New("end time must be after start time")

// Interval is the half-open range [Start, End).
// ID is optional and only meaningful for client-side candidate slots.
type Interval struct {
	ID    string
	Start time.Time
	End   time.Time
}

// New creates an Interval with validation.
func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if !iv.Valid() {
		return Interval{}, ErrEndBeforeStart
	}
	return iv, nil
}

// Valid reports whether Start is strictly before End.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Shift moves both endpoints by d.
func (iv Interval) Shift(d time.Duration) Interval {
	iv.Start = iv.Start.Add(d)
	iv.End = iv.End.Add(d)
	return iv
}

// Overlaps returns true if a and b share at least one instant.
// Two intervals overlap if: a.Start < b.End AND b.Start < a.End.
// Touching intervals ([10:00,11:00) and [11:00,12:00)) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains returns true if inner lies entirely within outer (boundaries inclusive).
func Contains(outer, inner Interval) bool {
	return !inner.Start.Before(outer.Start) && !inner.End.After(outer.End)
}

// OverlapMinutes calculates the overlapping whole minutes between a and b.
// Returns 0 if there is no overlap.
func OverlapMinutes(a, b Interval) int {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !start.Before(end) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// Bounds returns the smallest interval covering every element of ivs.
// The second return value is false when ivs is empty.
func Bounds(ivs []Interval) (Interval, bool) {
	if len(ivs) == 0 {
		return Interval{}, false
	}
	b := Interval{Start: ivs[0].Start, End: ivs[0].End}
	for _, iv := range ivs[1:] {
		if iv.Start.Before(b.Start) {
			b.Start = iv.Start
		}
		if iv.End.After(b.End) {
			b.End = iv.End
		}
	}
	return b, true
}

// AnyContains reports whether some interval in outer contains inner.
func AnyContains(outer []Interval, inner Interval) bool {
	for _, o := range outer {
		if Contains(o, inner) {
			return true
		}
	}
	return false
}

// AnyOverlaps reports whether some interval in ivs overlaps iv.
func AnyOverlaps(ivs []Interval, iv Interval) bool {
	for _, o := range ivs {
		if Overlaps(o, iv) {
			return true
		}
	}
	return false
}
