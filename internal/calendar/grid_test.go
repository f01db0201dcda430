package calendar

import (
	"testing"
	"time"

	"github.com/piquetdestream/piquet/internal/interval"
)

var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func evening() interval.Interval {
	return interval.Interval{
		Start: time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC),
	}
}

func TestProject(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g := Project(WeekDays(monday), []interval.Interval{evening()}, now)

	tests := []struct {
		name     string
		col, row int
		want     CellType
	}{
		{"start of approved slot", 0, 36, CellOccupied},
		{"last cell of approved slot", 0, 39, CellOccupied},
		{"cell touching the end", 0, 40, CellFree},
		{"cell touching the start", 0, 35, CellFree},
		{"morning", 0, 20, CellFree},
		{"same time next day", 1, 36, CellFree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g[tt.col][tt.row].Type; got != tt.want {
				t.Errorf("cell (%d,%d) = %s, want %s", tt.col, tt.row, got, tt.want)
			}
		})
	}

	c := g[0][36]
	if !c.DateStart.Equal(time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("row 36 starts at %v", c.DateStart)
	}
	if c.DateEnd.Sub(c.DateStart) != RowDuration {
		t.Errorf("cell length %v, want %v", c.DateEnd.Sub(c.DateStart), RowDuration)
	}
	if last := g[6][47]; !last.DateEnd.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("last cell ends at %v", last.DateEnd)
	}
}

func TestProject_PastOverridesOccupied(t *testing.T) {
	now := time.Date(2024, 6, 3, 19, 15, 0, 0, time.UTC)
	g := Project(WeekDays(monday), []interval.Interval{evening()}, now)

	tests := []struct {
		row  int
		want CellType
	}{
		{20, CellPast},
		{36, CellPast},
		{37, CellPast},
		// [19:00, 19:30) ends after now
		{38, CellOccupied},
		{40, CellFree},
	}
	for _, tt := range tests {
		if got := g[0][tt.row].Type; got != tt.want {
			t.Errorf("row %d = %s, want %s", tt.row, got, tt.want)
		}
	}
	if got := g[1][0].Type; got != CellFree {
		t.Errorf("tuesday midnight = %s, want FREE", got)
	}
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	approved := []interval.Interval{evening()}
	before := approved[0]
	_ = Project(WeekDays(monday), approved, monday)
	if !approved[0].Start.Equal(before.Start) || !approved[0].End.Equal(before.End) {
		t.Error("Project modified its input")
	}
}

func TestOccupiedBetween(t *testing.T) {
	g := Project(WeekDays(monday), []interval.Interval{evening()}, monday)

	tests := []struct {
		name       string
		rowA, rowB int
		want       bool
	}{
		{"before the slot", 30, 35, false},
		{"spanning the slot", 30, 42, true},
		{"reversed order", 42, 30, true},
		{"ending on occupied row", 36, 36, true},
		{"after the slot", 40, 47, false},
		{"outside the grid", 40, 48, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.OccupiedBetween(0, tt.rowA, tt.rowB); got != tt.want {
				t.Errorf("OccupiedBetween(0, %d, %d) = %v, want %v", tt.rowA, tt.rowB, got, tt.want)
			}
		})
	}
}

func TestRowHelpers(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2024, 6, 3, h, m, 0, 0, time.UTC) }

	if got := RowOf(at(18, 45)); got != 37 {
		t.Errorf("RowOf(18:45) = %d, want 37", got)
	}
	if got := EndRowOf(at(20, 0)); got != 40 {
		t.Errorf("EndRowOf(20:00) = %d, want 40", got)
	}
	if got := EndRowOf(at(20, 10)); got != 41 {
		t.Errorf("EndRowOf(20:10) = %d, want 41", got)
	}
	if got := EndRowOf(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)); got != RowsPerDay {
		t.Errorf("EndRowOf(midnight) = %d, want %d", got, RowsPerDay)
	}

	tests := []struct {
		name string
		iv   interval.Interval
		want int
	}{
		{"two hours", interval.Interval{Start: at(18, 0), End: at(20, 0)}, 4},
		{"until midnight", interval.Interval{Start: at(23, 0), End: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)}, 2},
		{"past midnight is clipped", interval.Interval{Start: at(23, 0), End: time.Date(2024, 6, 4, 2, 0, 0, 0, time.UTC)}, 2},
		{"short slot", interval.Interval{Start: at(10, 0), End: at(10, 10)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RowSpan(tt.iv); got != tt.want {
				t.Errorf("RowSpan() = %d, want %d", got, tt.want)
			}
		})
	}

	week := WeekDays(monday)
	if got := ColOf(at(12, 0).AddDate(0, 0, 2), week); got != 2 {
		t.Errorf("ColOf(wednesday) = %d, want 2", got)
	}
	if got := ColOf(monday.AddDate(0, 0, 7), week); got != -1 {
		t.Errorf("ColOf(next monday) = %d, want -1", got)
	}
}
