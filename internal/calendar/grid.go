// Package calendar implements the week-view planning model: projecting
// approved intervals onto a 7x48 grid, the click and drag selection machine,
// and the collection of candidate slots being edited.
package calendar

import (
	"time"

	"github.com/piquetdestream/piquet/internal/interval"
)

const (
	// DaysPerWeek is the number of grid columns.
	DaysPerWeek = 7
	// RowsPerDay is 24 hours * 2 cells per hour.
	RowsPerDay = 48
	// RowDuration is the length of one grid cell.
	RowDuration = 30 * time.Minute
	// MinutesPerRow is RowDuration in minutes.
	MinutesPerRow = 30
)

// CellType classifies a grid cell.
type CellType int

const (
	CellFree CellType = iota
	CellOccupied
	CellPast
)

func (t CellType) String() string {
	switch t {
	case CellFree:
		return "FREE"
	case CellOccupied:
		return "OCCUPIED"
	case CellPast:
		return "PAST"
	default:
		return "UNKNOWN"
	}
}

// GridCell is one 30-minute cell of the week view.
type GridCell struct {
	Col       int
	Row       int
	DateStart time.Time
	DateEnd   time.Time
	Type      CellType
}

// Interval returns the cell as a half-open interval.
func (c GridCell) Interval() interval.Interval {
	return interval.Interval{Start: c.DateStart, End: c.DateEnd}
}

// Grid is the projected week, indexed [col][row].
type Grid [DaysPerWeek][RowsPerDay]GridCell

// Project builds the grid for the week starting at week[0].
// A cell is OCCUPIED when it overlaps any approved interval, and PAST when it
// ends before now; PAST wins over OCCUPIED. approved is not modified.
func Project(week [DaysPerWeek]time.Time, approved []interval.Interval, now time.Time) Grid {
	var g Grid
	for col := 0; col < DaysPerWeek; col++ {
		for row := 0; row < RowsPerDay; row++ {
			start := RowTime(week[col], row)
			cell := GridCell{
				Col:       col,
				Row:       row,
				DateStart: start,
				DateEnd:   start.Add(RowDuration),
				Type:      CellFree,
			}
			if interval.AnyOverlaps(approved, cell.Interval()) {
				cell.Type = CellOccupied
			}
			if cell.DateEnd.Before(now) {
				cell.Type = CellPast
			}
			g[col][row] = cell
		}
	}
	return g
}

// Cell returns the cell at (col, row). The second return value is false
// when the position is outside the grid.
func (g *Grid) Cell(col, row int) (GridCell, bool) {
	if col < 0 || col >= DaysPerWeek || row < 0 || row >= RowsPerDay {
		return GridCell{}, false
	}
	return g[col][row], true
}

// OccupiedBetween reports whether any cell of column col between rowA and
// rowB (both inclusive, in either order) is OCCUPIED.
// Rows outside the grid are treated as occupied.
func (g *Grid) OccupiedBetween(col, rowA, rowB int) bool {
	lo, hi := min(rowA, rowB), max(rowA, rowB)
	if col < 0 || col >= DaysPerWeek || lo < 0 || hi >= RowsPerDay {
		return true
	}
	for row := lo; row <= hi; row++ {
		if g[col][row].Type == CellOccupied {
			return true
		}
	}
	return false
}

// WeekDays returns the seven day starts of the week beginning at first.
func WeekDays(first time.Time) [DaysPerWeek]time.Time {
	var days [DaysPerWeek]time.Time
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// RowOf returns the row containing t within its day.
func RowOf(t time.Time) int {
	return t.Hour()*2 + t.Minute()/MinutesPerRow
}

// EndRowOf returns the exclusive end row of an interval ending at t.
// Midnight maps to RowsPerDay and a partial cell counts as a whole one.
func EndRowOf(t time.Time) int {
	mins := t.Hour()*60 + t.Minute()
	if mins == 0 && t.Second() == 0 {
		return RowsPerDay
	}
	return (mins + MinutesPerRow - 1) / MinutesPerRow
}

// RowSpan returns the number of rows iv covers on its start day, at least 1.
// Intervals running past midnight are clipped to the end of the day.
func RowSpan(iv interval.Interval) int {
	end := EndRowOf(iv.End)
	if !sameDay(iv.Start, iv.End) {
		end = RowsPerDay
	}
	return max(end-RowOf(iv.Start), 1)
}

// ColOf returns the column of t in the week starting at week[0], or -1 when
// t falls outside that week.
func ColOf(t time.Time, week [DaysPerWeek]time.Time) int {
	for i, day := range week {
		if sameDay(day, t.In(day.Location())) {
			return i
		}
	}
	return -1
}

// RowTime returns the start time of row on day. Rows follow the wall clock,
// so on a daylight saving change the rows of the skipped hour repeat the
// next hour and the repeated hour is shown once.
func RowTime(day time.Time, row int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, row*MinutesPerRow, 0, 0, day.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
