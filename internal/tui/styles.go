// Package tui provides the interactive week editor for piquet.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/piquetdestream/piquet/internal/tui/theme"
)

const (
	timeColWidth    = 6
	minColWidth     = 8
	defaultColWidth = 14
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	TitleStyle          lipgloss.Style
	SubtitleStyle       lipgloss.Style
	DayHeaderStyle      lipgloss.Style
	DayHeaderTodayStyle lipgloss.Style
	TimeColumnStyle     lipgloss.Style

	EmptyCellStyle    lipgloss.Style
	EmptyCellAltStyle lipgloss.Style // Odd hours, for readability
	PastCellStyle     lipgloss.Style
	OccupiedStyle     lipgloss.Style
	OccupiedPastStyle lipgloss.Style
	CandidateStyle    lipgloss.Style
	CandidateAltStyle lipgloss.Style
	SelectionStyle    lipgloss.Style
	DropStyle         lipgloss.Style
	DropInvalidStyle  lipgloss.Style
	CursorStyle       lipgloss.Style

	StatusStyle      lipgloss.Style
	StatusErrorStyle lipgloss.Style
	HelpStyle        lipgloss.Style

	FormStyle      lipgloss.Style
	FormTitleStyle lipgloss.Style
	FormLabelStyle lipgloss.Style
	FormInputStyle lipgloss.Style
	FormMutedStyle lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	s := &Styles{palette: p}

	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		Padding(0, 1)
	s.SubtitleStyle = lipgloss.NewStyle().
		Foreground(p.FgMuted)

	s.DayHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Fg).
		Align(lipgloss.Center)
	s.DayHeaderTodayStyle = s.DayHeaderStyle.
		Foreground(p.Current).
		Underline(true)
	s.TimeColumnStyle = lipgloss.NewStyle().
		Foreground(p.FgMuted).
		Width(timeColWidth)

	cell := lipgloss.NewStyle().Align(lipgloss.Left)
	s.EmptyCellStyle = cell.Background(p.Bg).Foreground(p.FgMuted)
	s.EmptyCellAltStyle = cell.Background(p.BgHighlight).Foreground(p.FgMuted)
	s.PastCellStyle = cell.Background(p.PastBg).Foreground(p.FgMuted)
	s.OccupiedStyle = cell.Background(p.OccupiedBg).Foreground(p.TextOnOccupied)
	s.OccupiedPastStyle = cell.Background(p.OccupiedPastBg).Foreground(p.FgMuted)
	s.CandidateStyle = cell.Background(p.CandidateBg).Foreground(p.TextOnCandidate).Bold(true)
	s.CandidateAltStyle = cell.Background(p.CandidateBgAlt).Foreground(p.TextOnCandidate).Bold(true)
	s.SelectionStyle = cell.Background(p.BgSelection).Foreground(p.Fg)
	s.DropStyle = cell.Background(p.Candidate).Foreground(p.Bg)
	s.DropInvalidStyle = cell.Background(p.Warning).Foreground(p.TextOnWarning)
	s.CursorStyle = cell.Background(p.Accent).Foreground(p.TextOnAccent).Bold(true)

	s.StatusStyle = lipgloss.NewStyle().Foreground(p.Fg).Padding(0, 1)
	s.StatusErrorStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true).Padding(0, 1)
	s.HelpStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Padding(0, 1)

	s.FormStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.FormBorder).
		Background(p.FormBg).
		Padding(1, 2)
	s.FormTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Background(p.FormBg)
	s.FormLabelStyle = lipgloss.NewStyle().Foreground(p.Fg).Background(p.FormBg).Width(12)
	s.FormInputStyle = lipgloss.NewStyle().Foreground(p.Fg).Background(p.FormBg)
	s.FormMutedStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.FormBg)

	return s
}

// FormBackground returns the submit form background color.
func (s *Styles) FormBackground() lipgloss.Color {
	return s.palette.FormBg
}
