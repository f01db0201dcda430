package calendar

import (
	"sync"
	"time"

	"github.com/piquetdestream/piquet/internal/dateutil"
)

// Week is the displayed week of a calendar view.
//
// Every navigation bumps a generation counter. Loads started for a week
// carry the generation they were started with, and Accept discards results
// that belong to a week the view has since left.
type Week struct {
	mu       sync.Mutex
	anchor   time.Time
	firstDay time.Weekday
	now      func() time.Time
	gen      uint64
}

// NewWeek creates a view showing the week containing anchor.
// A nil now uses time.Now.
func NewWeek(anchor time.Time, firstDay time.Weekday, now func() time.Time) *Week {
	if now == nil {
		now = time.Now
	}
	return &Week{anchor: anchor, firstDay: firstDay, now: now}
}

// Start returns midnight of the week's first day.
func (w *Week) Start() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return dateutil.WeekStart(w.anchor, w.firstDay)
}

// Days returns the seven day starts of the displayed week.
func (w *Week) Days() [DaysPerWeek]time.Time {
	return WeekDays(w.Start())
}

// Generation returns the current navigation generation.
func (w *Week) Generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen
}

// Accept reports whether a result loaded for generation gen is still current.
func (w *Week) Accept(gen uint64) bool {
	return w.Generation() == gen
}

// Next moves one week forward and returns the new generation.
func (w *Week) Next() uint64 {
	return w.move(func(t time.Time) time.Time { return t.AddDate(0, 0, DaysPerWeek) })
}

// Previous moves one week back and returns the new generation.
func (w *Week) Previous() uint64 {
	return w.move(func(t time.Time) time.Time { return t.AddDate(0, 0, -DaysPerWeek) })
}

// Today moves to the week containing now and returns the new generation.
func (w *Week) Today() uint64 {
	return w.move(func(time.Time) time.Time { return w.now() })
}

// Set moves to the week containing t and returns the new generation.
func (w *Week) Set(t time.Time) uint64 {
	return w.move(func(time.Time) time.Time { return t })
}

func (w *Week) move(f func(time.Time) time.Time) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.anchor = f(w.anchor)
	w.gen++
	return w.gen
}
