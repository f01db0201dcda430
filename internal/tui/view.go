package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/piquetdestream/piquet/internal/calendar"
	"github.com/piquetdestream/piquet/internal/interval"
	"github.com/piquetdestream/piquet/internal/tui/view"
)

const (
	headerHeight = 3 // title, blank, day labels
	footerHeight = 2 // status, help
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	base := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderGrid(),
		m.renderFooter(),
	)
	base = view.PadLines(base, m.width, m.height, m.styles.palette.Bg)

	if m.mode == ModeForm {
		return view.Overlay(base, m.renderForm(), m.width, m.height, m.styles.FormBackground())
	}
	return base
}

func (m Model) colWidth() int {
	if m.width == 0 {
		return defaultColWidth
	}
	return max(minColWidth, (m.width-timeColWidth)/calendar.DaysPerWeek)
}

func (m Model) renderHeader() string {
	days := m.week.Days()
	title := m.styles.TitleStyle.Render("piquet") +
		m.styles.SubtitleStyle.Render(view.WeekTitle(days))
	if m.principal.Authenticated() {
		title += m.styles.SubtitleStyle.Render("  as " + m.principal.UserID)
	}
	if m.loading {
		title += m.styles.SubtitleStyle.Render("  loading...")
	}

	labels, today := view.HeaderLabels(days, m.now())
	w := m.colWidth()
	var b strings.Builder
	b.WriteString(m.styles.TimeColumnStyle.Render(""))
	for i, label := range labels {
		style := m.styles.DayHeaderStyle
		if i == today {
			style = m.styles.DayHeaderTodayStyle
		}
		b.WriteString(style.Width(w).Render(view.Truncate(label, w)))
	}
	return title + "\n\n" + b.String()
}

func (m Model) renderGrid() string {
	visible := m.visibleRows()
	w := m.colWidth()
	lines := make([]string, 0, visible)

	for row := m.offset; row < m.offset+visible && row < calendar.RowsPerDay; row++ {
		var b strings.Builder
		label := ""
		if row%2 == 0 {
			label = fmt.Sprintf("%02d:00", row/2)
		}
		b.WriteString(m.styles.TimeColumnStyle.Render(label))
		for col := 0; col < calendar.DaysPerWeek; col++ {
			b.WriteString(m.renderCell(col, row, w))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCell(col, row, w int) string {
	cell, _ := m.grid.Cell(col, row)
	candidate, isCandidate := m.candidateAt(col, row)

	style := m.cellStyle(cell, isCandidate, candidate)
	text := ""
	if isCandidate && (row == calendar.RowOf(candidate.Start.In(m.loc)) || row == m.offset) {
		text = candidate.Start.In(m.loc).Format("15:04") + "-" + candidate.End.In(m.loc).Format("15:04")
	}
	return style.Width(w).Render(view.Truncate(text, w))
}

func (m Model) cellStyle(cell calendar.GridCell, isCandidate bool, candidate interval.Interval) lipgloss.Style {
	s := m.styles
	if cell.Col == m.cursor.Day && cell.Row == m.cursor.Row {
		if m.mode == ModeDrag && m.drag.Dragging() && !calendar.CanDrop(&m.grid, m.drag.Payload(), cell) {
			return s.DropInvalidStyle
		}
		return s.CursorStyle
	}
	if m.drag.Dragging() && m.drag.InRange(cell) {
		return s.DropStyle
	}
	if m.selector.Range().Contains(cell.Col, cell.Row) {
		return s.SelectionStyle
	}
	if isCandidate {
		if calendar.RowOf(candidate.Start.In(m.loc))%4 >= 2 {
			return s.CandidateAltStyle
		}
		return s.CandidateStyle
	}

	switch cell.Type {
	case calendar.CellOccupied:
		return s.OccupiedStyle
	case calendar.CellPast:
		if interval.AnyOverlaps(m.approved, cell.Interval()) {
			return s.OccupiedPastStyle
		}
		return s.PastCellStyle
	}
	if (cell.Row/2)%2 == 1 {
		return s.EmptyCellAltStyle
	}
	return s.EmptyCellStyle
}

func (m Model) renderFooter() string {
	status := m.status
	if status == "" {
		status = fmt.Sprintf("%d slots selected", m.slots.Len())
		if r := m.selector.Range(); r.State() == calendar.RangeStart {
			status += "  ·  pick the end cell"
		}
		if m.mode == ModeDrag {
			status += "  ·  dragging, enter to drop"
		}
	}
	statusStyle := m.styles.StatusStyle
	if m.statusErr {
		statusStyle = m.styles.StatusErrorStyle
	}

	helpView := m.help.View(m.keys)
	if m.mode == ModeForm {
		helpView = m.help.View(m.formKeys)
	}
	// Full help spans several lines; only the first fits the footer.
	helpLine, _, _ := strings.Cut(helpView, "\n")
	return view.FooterLines(m.width, status, helpLine, statusStyle, m.styles.HelpStyle)
}

func (m Model) renderForm() string {
	s := m.styles
	var b strings.Builder
	for i, in := range m.form.inputs {
		marker := "  "
		if i == m.form.focus {
			marker = "> "
		}
		b.WriteString(s.FormLabelStyle.Render(marker + fieldLabels[i]))
		b.WriteString(in.View())
		if i < fieldCount-1 {
			b.WriteString("\n")
		}
	}

	slots := m.slots.All()
	b.WriteString("\n\n")
	b.WriteString(s.FormMutedStyle.Render(fmt.Sprintf("%d slots:", len(slots))))
	for _, line := range strings.Split(formatSlotList(slots, m.loc), "\n") {
		b.WriteString("\n")
		b.WriteString(s.FormMutedStyle.Render("  " + line))
	}

	return view.RenderFrame("New stream request", b.String(), "enter submit · tab next · esc cancel", view.FrameStyles{
		Box:    s.FormStyle,
		Title:  s.FormTitleStyle,
		Footer: s.FormMutedStyle,
	})
}
