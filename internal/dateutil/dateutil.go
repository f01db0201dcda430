// Package dateutil provides date parsing and week arithmetic in the
// operating timezone.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat     = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidDateTimeFormat = errors.New("date-time must be in YYYY-MM-DDTHH:MM format")
	ErrInvalidRangeFormat    = errors.New("range must be in START/END format")
	ErrInvalidWeekday        = errors.New("unknown weekday")
)

// DateLayout and DateTimeLayout are the accepted input layouts.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04"
)

// weekdayMap maps weekday names to time.Weekday values.
var weekdayMap = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses a case-insensitive weekday name.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayMap[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return time.Sunday, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return d, nil
}

// ParseDate parses a date string in YYYY-MM-DD format in loc.
// If the string is empty, returns today's date.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return TruncateToDay(time.Now().In(loc)), nil
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// ParseDateTime parses "YYYY-MM-DDTHH:MM" in loc. RFC 3339 timestamps are
// accepted too and keep their own offset.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(DateTimeLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDateTimeFormat
}

// ParseRange parses "START/END" where both sides are date-times.
// END may omit the date ("2024-06-03T18:00/20:00").
func ParseRange(s string, loc *time.Location) (start, end time.Time, err error) {
	left, right, ok := strings.Cut(s, "/")
	if !ok {
		return time.Time{}, time.Time{}, ErrInvalidRangeFormat
	}
	start, err = ParseDateTime(left, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(strings.TrimSpace(right)) == len("15:04") {
		right = start.Format(DateLayout) + "T" + strings.TrimSpace(right)
	}
	end, err = ParseDateTime(right, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	monday = WeekStart(t, time.Monday)
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

// WeekStart returns midnight of the most recent firstDay on or before t.
func WeekStart(t time.Time, firstDay time.Weekday) time.Time {
	t = TruncateToDay(t)
	back := (int(t.Weekday()) - int(firstDay) + 7) % 7
	return t.AddDate(0, 0, -back)
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseRelativeDate parses a date string that can be:
//   - Empty string or "today": returns relativeTo date
//   - Absolute date: "2025-01-15" (YYYY-MM-DD)
//   - Keywords: "tomorrow", "yesterday"
//   - Weekday names: "monday" through "sunday" (next occurrence, always future)
//   - Next prefixed: "next-monday" through "next-sunday", "next-week"
//   - "last-week": same weekday, 7 days earlier
//
// All inputs are case-insensitive and resolved in relativeTo's location.
// Returns ErrInvalidDateFormat for unrecognized input.
func ParseRelativeDate(s string, relativeTo time.Time) (time.Time, error) {
	today := TruncateToDay(relativeTo)
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "next-week":
		return today.AddDate(0, 0, 7), nil
	case "last-week":
		return today.AddDate(0, 0, -7), nil
	}

	if strings.HasPrefix(input, "next-") {
		weekdayName := strings.TrimPrefix(input, "next-")
		if targetDay, ok := weekdayMap[weekdayName]; ok {
			return nextWeekday(today, targetDay), nil
		}
		return time.Time{}, ErrInvalidDateFormat
	}

	if targetDay, ok := weekdayMap[input]; ok {
		return nextWeekday(today, targetDay), nil
	}

	result, err := time.ParseInLocation(DateLayout, input, relativeTo.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return result, nil
}

// nextWeekday returns the next occurrence of the given weekday after today.
// If today is the target weekday, returns one week from today.
func nextWeekday(today time.Time, target time.Weekday) time.Time {
	current := today.Weekday()
	daysUntil := int(target) - int(current)
	if daysUntil <= 0 {
		daysUntil += 7
	}
	return today.AddDate(0, 0, daysUntil)
}
