package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/calendar"
	"github.com/piquetdestream/piquet/internal/interval"
	"github.com/piquetdestream/piquet/internal/tui/commands"
)

const statusTimeout = 4 * time.Second

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case commands.WeekLoadedMsg:
		if !m.week.Accept(msg.Gen) {
			m.logger.Debug("discarding stale week load",
				zap.Uint64("gen", msg.Gen),
				zap.Uint64("current", m.week.Generation()),
			)
			return m, nil
		}
		m.approved = msg.Approved
		m.loading = false
		m.project()
		return m, nil

	case commands.SubmittedMsg:
		m.slots.Clear()
		m.form.reset()
		m.mode = ModeNormal
		m.setStatus(fmt.Sprintf("Submitted request #%d with %d slots", msg.Request.ID, len(msg.Request.TimeSlots)))
		m.logger.Info("stream request submitted", zap.Int64("request_id", msg.Request.ID))
		return m, tea.Batch(m.reload(), commands.ClearStatusAfter(statusTimeout))

	case commands.CopiedMsg:
		m.setStatus(fmt.Sprintf("Copied %d slots to clipboard", msg.Count))
		return m, commands.ClearStatusAfter(statusTimeout)

	case commands.ErrMsg:
		m.loading = false
		m.setError(msg.Err)
		m.logger.Warn("editor error", zap.Error(msg.Err))
		return m, nil

	case commands.StatusMsgCmd:
		m.setStatus(msg.Msg)
		return m, commands.ClearStatusAfter(statusTimeout)

	case commands.ClearStatusMsg:
		if !m.statusErr {
			m.status = ""
		}
		return m, nil
	}

	if m.mode == ModeForm {
		return m, m.form.update(msg)
	}
	return m, nil
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.logKeyPress(msg)

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeForm:
		return m.handleFormKeys(msg)
	case ModeDrag:
		return m.handleDragKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveCursor(msg) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Click):
		a, ok := m.selector.Click(&m.grid, m.currentCell())
		if ok {
			m.dispatch(a)
		}

	case key.Matches(msg, m.keys.Drag):
		m.beginDrag()

	case key.Matches(msg, m.keys.Cancel):
		m.selector.Reset()

	case key.Matches(msg, m.keys.Remove):
		if s, ok := m.candidateAt(m.cursor.Day, m.cursor.Row); ok {
			m.dispatch(calendar.Action{Kind: calendar.RemoveTimeSlot, Payload: interval.Interval{ID: s.ID}})
		}

	case key.Matches(msg, m.keys.NextWeek):
		return m, m.navigate(m.week.Next())
	case key.Matches(msg, m.keys.PrevWeek):
		return m, m.navigate(m.week.Previous())
	case key.Matches(msg, m.keys.Today):
		cmd := m.navigate(m.week.Today())
		m.cursor = m.initialCursor()
		m.ensureCursorVisible()
		return m, cmd

	case key.Matches(msg, m.keys.Copy):
		slots := m.slots.All()
		if len(slots) == 0 {
			m.setStatus("No slots to copy")
			return m, nil
		}
		return m, commands.Copy(formatSlotList(slots, m.loc), len(slots))

	case key.Matches(msg, m.keys.Submit):
		if m.slots.Len() == 0 {
			m.setStatus("Select at least one slot before submitting")
			return m, nil
		}
		if !m.principal.Authenticated() {
			m.setStatus("Run with --as <user> to submit requests")
			return m, nil
		}
		m.mode = ModeForm
		return m, m.form.open()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// handleDragKeys handles keys while dragging.
func (m Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveCursor(msg) {
		m.drag.Over(m.currentCell())
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Click):
		a, ok := m.drag.Finish(&m.grid, m.currentCell())
		if !ok {
			m.setStatus("Cannot drop here")
			return m, nil
		}
		m.mode = ModeNormal
		m.dispatch(a)

	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Drag):
		m.drag.Cancel()
		m.mode = ModeNormal

	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}

	return m, nil
}

// handleFormKeys handles keys in the submit form.
func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.Cancel):
		m.mode = ModeNormal
		return m, nil
	case key.Matches(msg, m.formKeys.Next):
		return m, m.form.move(1)
	case key.Matches(msg, m.formKeys.Prev):
		return m, m.form.move(-1)
	case key.Matches(msg, m.formKeys.Confirm):
		in := m.form.input(m.slots.All())
		if err := in.Validate(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Submitting...")
		return m, commands.Submit(m.planner, m.principal, in)
	}
	return m, m.form.update(msg)
}

// moveCursor applies navigation keys. It reports whether msg was one.
func (m *Model) moveCursor(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor.Row = max(0, m.cursor.Row-1)
	case key.Matches(msg, m.keys.Down):
		m.cursor.Row = min(calendar.RowsPerDay-1, m.cursor.Row+1)
	case key.Matches(msg, m.keys.Left):
		m.cursor.Day = max(0, m.cursor.Day-1)
	case key.Matches(msg, m.keys.Right):
		m.cursor.Day = min(calendar.DaysPerWeek-1, m.cursor.Day+1)
	case key.Matches(msg, m.keys.PageUp):
		m.cursor.Row = max(0, m.cursor.Row-m.visibleRows())
	case key.Matches(msg, m.keys.PageDown):
		m.cursor.Row = min(calendar.RowsPerDay-1, m.cursor.Row+m.visibleRows())
	default:
		return false
	}
	m.ensureCursorVisible()
	return true
}

// beginDrag starts dragging the candidate slot under the cursor, or a new
// range from the cursor cell when it is free.
func (m *Model) beginDrag() {
	if s, ok := m.candidateAt(m.cursor.Day, m.cursor.Row); ok {
		// The drop target is the slot's new first row.
		m.cursor.Row = calendar.RowOf(s.Start.In(m.loc))
		m.ensureCursorVisible()
		m.drag.Begin(calendar.NewSlotPayload(s))
		m.drag.Over(m.currentCell())
		m.mode = ModeDrag
		return
	}
	cell := m.currentCell()
	if cell.Type != calendar.CellFree {
		m.setStatus(fmt.Sprintf("Cannot drag from a %s cell", strings.ToLower(cell.Type.String())))
		return
	}
	m.drag.Begin(calendar.CellPayload{Cell: cell})
	m.mode = ModeDrag
}

// dispatch applies a to the candidate slots. A duplicate id means the
// collection is corrupt: the edit is aborted and every candidate dropped.
func (m *Model) dispatch(a calendar.Action) {
	err := m.slots.Dispatch(a)
	if errors.Is(err, calendar.ErrDuplicateID) {
		m.logger.Error("aborting edit", zap.Error(err))
		m.slots.Clear()
		m.selector.Reset()
		m.drag.Cancel()
		m.mode = ModeNormal
		m.setError(fmt.Errorf("edit aborted: %w", err))
		return
	}
	if err != nil {
		m.setError(err)
	}
}

// navigate resets the transient selection and loads the new week.
func (m *Model) navigate(gen uint64) tea.Cmd {
	m.selector.Reset()
	m.drag.Cancel()
	m.mode = ModeNormal
	m.approved = nil
	m.loading = true
	m.project()
	return commands.LoadWeek(m.planner, m.week.Start(), gen)
}

func (m *Model) reload() tea.Cmd {
	return commands.LoadWeek(m.planner, m.week.Start(), m.week.Generation())
}

// visibleRows returns how many grid rows fit on screen.
func (m Model) visibleRows() int {
	if m.height == 0 {
		return calendar.RowsPerDay
	}
	rows := m.height - headerHeight - footerHeight
	return max(1, min(calendar.RowsPerDay, rows))
}

func (m *Model) ensureCursorVisible() {
	visible := m.visibleRows()
	if m.cursor.Row < m.offset {
		m.offset = m.cursor.Row
	}
	if m.cursor.Row >= m.offset+visible {
		m.offset = m.cursor.Row - visible + 1
	}
	m.offset = max(0, min(m.offset, calendar.RowsPerDay-visible))
}

// formatSlotList renders slots one per line, in start order.
func formatSlotList(slots []interval.Interval, loc *time.Location) string {
	sorted := make([]interval.Interval, len(slots))
	copy(sorted, slots)
	sortByStart(sorted)

	var b strings.Builder
	for _, s := range sorted {
		start, end := s.Start.In(loc), s.End.In(loc)
		fmt.Fprintf(&b, "%s %s-%s\n", start.Format("Mon 02 Jan"), start.Format("15:04"), end.Format("15:04"))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
