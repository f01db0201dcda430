package view

import (
	"time"
)

// HeaderLabels builds the day column labels of a week and reports which
// column is today, or -1.
func HeaderLabels(days [7]time.Time, today time.Time) ([7]string, int) {
	var labels [7]string
	todayCol := -1
	for i, day := range days {
		labels[i] = day.Format("Mon 02")
		if sameDay(day, today) {
			todayCol = i
		}
	}
	return labels, todayCol
}

// WeekTitle formats the displayed week range, e.g. "03 Jun - 09 Jun 2024".
func WeekTitle(days [7]time.Time) string {
	first, last := days[0], days[6]
	if first.Year() != last.Year() {
		return first.Format("02 Jan 2006") + " - " + last.Format("02 Jan 2006")
	}
	return first.Format("02 Jan") + " - " + last.Format("02 Jan 2006")
}

func sameDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.In(a.Location()).Date()
	return ya == yb && ma == mb && da == db
}
