package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/calendar"
	"github.com/piquetdestream/piquet/internal/interval"
	"github.com/piquetdestream/piquet/internal/stream"
	"github.com/piquetdestream/piquet/internal/tui/commands"
	"github.com/piquetdestream/piquet/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeDrag        // A cell range or a candidate slot is being dragged
	ModeForm        // Submit form is open
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDrag:
		return "drag"
	case ModeForm:
		return "form"
	default:
		return "unknown"
	}
}

// Position represents a cursor position in the grid.
type Position struct {
	Day int // Column, 0 is the configured first day of the week
	Row int // 30-minute row, 0-47
}

// Options configures the editor.
type Options struct {
	Planner   commands.Planner
	Principal stream.Principal
	Theme     string
	FirstDay  time.Weekday
	Location  *time.Location
	Logger    *zap.Logger
	Now       func() time.Time
	NewID     calendar.IDGenerator
}

// Model is the main TUI model.
type Model struct {
	// Dependencies
	planner   commands.Planner
	principal stream.Principal
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location

	// Theme and styles
	styles   *Styles
	keys     keyMap
	formKeys formKeyMap
	help     help.Model

	// Planning state
	week     *calendar.Week
	grid     calendar.Grid
	approved []interval.Interval
	slots    *calendar.TimeSlots
	selector *calendar.Selector
	drag     *calendar.DragState

	// State
	cursor  Position
	offset  int // First visible row
	mode    Mode
	loading bool
	form    submitForm

	// Layout
	width  int
	height int

	status    string
	statusErr bool
}

// New creates a new TUI model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	localNow := func() time.Time { return now().In(loc) }

	// A theme that fails to load leaves t nil, which styles with the default.
	t, _ := theme.Load(opts.Theme)
	styles := NewStyles(t)

	slots := calendar.NewTimeSlots(opts.NewID)
	slots.OnChange(func(s []interval.Interval) {
		logger.Debug("candidate slots changed", zap.Int("count", len(s)))
	})
	selector := calendar.NewSelector()

	m := Model{
		planner:   opts.Planner,
		principal: opts.Principal,
		logger:    logger,
		now:       localNow,
		loc:       loc,
		styles:    styles,
		keys:      defaultKeyMap(),
		formKeys:  defaultFormKeyMap(),
		help:      help.New(),
		week:      calendar.NewWeek(localNow(), opts.FirstDay, localNow),
		slots:     slots,
		selector:  selector,
		drag:      calendar.NewDragState(selector),
		form:      newSubmitForm(styles),
		loading:   true,
	}
	m.project()
	m.cursor = m.initialCursor()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return commands.LoadWeek(m.planner, m.week.Start(), m.week.Generation())
}

// Run starts the editor and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// project rebuilds the grid from the approved intervals of the shown week.
func (m *Model) project() {
	m.grid = calendar.Project(m.week.Days(), m.approved, m.now())
}

// initialCursor places the cursor on the current half hour when the shown
// week contains today, and at 08:00 on the first day otherwise.
func (m Model) initialCursor() Position {
	now := m.now()
	col := calendar.ColOf(now, m.week.Days())
	if col < 0 {
		return Position{Day: 0, Row: 16}
	}
	return Position{Day: col, Row: calendar.RowOf(now)}
}

func (m Model) currentCell() calendar.GridCell {
	cell, _ := m.grid.Cell(m.cursor.Day, m.cursor.Row)
	return cell
}

// candidateAt returns the candidate slot covering the cell at (col, row).
func (m Model) candidateAt(col, row int) (interval.Interval, bool) {
	cell, ok := m.grid.Cell(col, row)
	if !ok {
		return interval.Interval{}, false
	}
	for _, s := range m.slots.Visible(m.week.Days()) {
		if interval.Overlaps(s, cell.Interval()) {
			return s, true
		}
	}
	return interval.Interval{}, false
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}
