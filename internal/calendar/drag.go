package calendar

import (
	"time"

	"github.com/piquetdestream/piquet/internal/interval"
)

// DragPayload is the item being dragged: a CellPayload or a SlotPayload.
type DragPayload interface {
	dragPayload()
}

// CellPayload drags out a new range starting at Cell.
type CellPayload struct {
	Cell GridCell
}

// SlotPayload moves an existing candidate slot.
type SlotPayload struct {
	ID    string
	Start time.Time
	End   time.Time
	Span  int
}

func (CellPayload) dragPayload() {}
func (SlotPayload) dragPayload() {}

// NewSlotPayload creates the payload for dragging iv.
func NewSlotPayload(iv interval.Interval) SlotPayload {
	return SlotPayload{ID: iv.ID, Start: iv.Start, End: iv.End, Span: RowSpan(iv)}
}

// Hover is where a dragged slot currently hovers. Used for highlighting only.
type Hover struct {
	Col    int
	Row    int
	Span   int
	Active bool
}

// CanDrop reports whether payload may be dropped on target.
//
// A cell drag must stay in its column and may not end on or cross an
// OCCUPIED cell. A slot drag may not land on an OCCUPIED cell and every row
// it would cover must be free. PAST targets never accept a drop.
func CanDrop(g *Grid, payload DragPayload, target GridCell) bool {
	if target.Type == CellPast || target.Type == CellOccupied {
		return false
	}

	switch p := payload.(type) {
	case CellPayload:
		if p.Cell.Col != target.Col {
			return false
		}
		return !g.OccupiedBetween(target.Col, p.Cell.Row, target.Row)

	case SlotPayload:
		span := max(p.Span, 1)
		if span == 1 {
			return true
		}
		last := target.Row + span - 1
		if last >= RowsPerDay {
			return false
		}
		return !g.OccupiedBetween(target.Col, target.Row, last)

	default:
		return false
	}
}

// Drop computes the action produced by dropping payload on target.
// It does not check CanDrop.
func Drop(payload DragPayload, target GridCell) (Action, bool) {
	switch p := payload.(type) {
	case CellPayload:
		start := p.Cell.DateStart
		if target.DateStart.Before(start) {
			start = target.DateStart
		}
		end := p.Cell.DateEnd
		if target.DateEnd.After(end) {
			end = target.DateEnd
		}
		return Action{Kind: AddTimeSlot, Payload: interval.Interval{Start: start, End: end}}, true

	case SlotPayload:
		delta := target.DateStart.Sub(p.Start).Truncate(time.Minute)
		moved := interval.Interval{ID: p.ID, Start: p.Start, End: p.End}.Shift(delta)
		return Action{Kind: UpdateTimeSlot, Payload: moved}, true

	default:
		return Action{}, false
	}
}

// DragState tracks one drag gesture over a grid, sharing the selection range
// with the click Selector.
type DragState struct {
	sel     *Selector
	payload DragPayload
	hover   Hover
}

// NewDragState creates a drag tracker bound to sel.
func NewDragState(sel *Selector) *DragState {
	return &DragState{sel: sel}
}

// Dragging reports whether a drag is in progress.
func (d *DragState) Dragging() bool {
	return d.payload != nil
}

// Payload returns the dragged item, or nil.
func (d *DragState) Payload() DragPayload {
	return d.payload
}

// Hover returns the current slot hover position.
func (d *DragState) Hover() Hover {
	return d.hover
}

// Begin starts dragging p. Dragging a cell seeds the selection to that cell.
func (d *DragState) Begin(p DragPayload) {
	d.payload = p
	d.hover = Hover{}
	if c, ok := p.(CellPayload); ok {
		d.sel.seed(c.Cell)
	}
}

// Over records that the drag moved over cell.
func (d *DragState) Over(cell GridCell) {
	switch p := d.payload.(type) {
	case CellPayload:
		d.sel.extend(cell.Col, cell.Row)
	case SlotPayload:
		d.hover = Hover{Col: cell.Col, Row: cell.Row, Span: max(p.Span, 1), Active: true}
	}
}

// InRange reports whether cell should be highlighted as part of the drag.
func (d *DragState) InRange(cell GridCell) bool {
	switch d.payload.(type) {
	case CellPayload:
		return d.sel.Range().Contains(cell.Col, cell.Row)
	case SlotPayload:
		h := d.hover
		return h.Active && cell.Col == h.Col && cell.Row >= h.Row && cell.Row < h.Row+h.Span
	default:
		return false
	}
}

// Finish drops the payload on target. When CanDrop rejects the target the
// drag stays active and false is returned.
func (d *DragState) Finish(g *Grid, target GridCell) (Action, bool) {
	if d.payload == nil || !CanDrop(g, d.payload, target) {
		return Action{}, false
	}
	a, ok := Drop(d.payload, target)
	d.Cancel()
	return a, ok
}

// Cancel abandons the drag and clears the selection and hover.
func (d *DragState) Cancel() {
	if _, ok := d.payload.(CellPayload); ok {
		d.sel.Reset()
	}
	d.payload = nil
	d.hover = Hover{}
}
