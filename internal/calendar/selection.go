package calendar

import "github.com/piquetdestream/piquet/internal/interval"

// NoRow marks an unset row or column in a SelectionRange.
const NoRow = -1

// SelectionState is the phase of a click selection.
type SelectionState int

const (
	Idle SelectionState = iota
	RangeStart
	RangeComplete
)

func (s SelectionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case RangeStart:
		return "range-start"
	case RangeComplete:
		return "range-complete"
	default:
		return "unknown"
	}
}

// SelectionRange is the transient range being selected in one column.
// Unset fields hold NoRow.
type SelectionRange struct {
	StartRow int
	EndRow   int
	ColIndex int
}

var emptyRange = SelectionRange{StartRow: NoRow, EndRow: NoRow, ColIndex: NoRow}

// State derives the selection phase from which fields are set.
func (r SelectionRange) State() SelectionState {
	switch {
	case r.StartRow == NoRow:
		return Idle
	case r.EndRow == NoRow:
		return RangeStart
	default:
		return RangeComplete
	}
}

// Contains reports whether the cell lies inside the range (inclusive).
func (r SelectionRange) Contains(col, row int) bool {
	if r.State() == Idle || col != r.ColIndex {
		return false
	}
	end := r.EndRow
	if end == NoRow {
		end = r.StartRow
	}
	return row >= min(r.StartRow, end) && row <= max(r.StartRow, end)
}

// Selector turns clicks on grid cells into new candidate slots.
//
//	Idle          --click(c)-----------------> RangeStart{c}
//	RangeStart{s} --click(c), c.Col == s.Col--> emit AddTimeSlot, Idle
//	RangeStart{s} --click(c), c.Col != s.Col--> RangeStart{s}
//	RangeComplete --click(any)---------------> Idle
type Selector struct {
	rng SelectionRange
}

// NewSelector creates an idle selector.
func NewSelector() *Selector {
	return &Selector{rng: emptyRange}
}

// Range returns the current selection.
func (s *Selector) Range() SelectionRange {
	return s.rng
}

// State returns the current phase.
func (s *Selector) State() SelectionState {
	return s.rng.State()
}

// Reset returns the selector to Idle.
func (s *Selector) Reset() {
	s.rng = emptyRange
}

// Click handles a click on cell. Only FREE cells react.
// When the click completes a range, the AddTimeSlot action covering
// [grid[col][min].DateStart, grid[col][max].DateEnd) is returned with true.
func (s *Selector) Click(g *Grid, cell GridCell) (Action, bool) {
	if cell.Type != CellFree {
		return Action{}, false
	}

	switch s.rng.State() {
	case Idle:
		s.rng = SelectionRange{StartRow: cell.Row, EndRow: NoRow, ColIndex: cell.Col}
		return Action{}, false

	case RangeStart:
		if cell.Col != s.rng.ColIndex {
			return Action{}, false
		}
		lo, hi := min(s.rng.StartRow, cell.Row), max(s.rng.StartRow, cell.Row)
		first, okFirst := g.Cell(cell.Col, lo)
		last, okLast := g.Cell(cell.Col, hi)
		s.Reset()
		if !okFirst || !okLast {
			return Action{}, false
		}
		return Action{
			Kind:    AddTimeSlot,
			Payload: interval.Interval{Start: first.DateStart, End: last.DateEnd},
		}, true

	default:
		s.Reset()
		return Action{}, false
	}
}

// seed starts a drag selection on a single cell.
func (s *Selector) seed(cell GridCell) {
	s.rng = SelectionRange{StartRow: cell.Row, EndRow: cell.Row, ColIndex: cell.Col}
}

// extend moves the range end to row when it stays in the selected column.
func (s *Selector) extend(col, row int) {
	if s.rng.State() == Idle || col != s.rng.ColIndex {
		return
	}
	s.rng.EndRow = row
}
