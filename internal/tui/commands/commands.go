// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/piquetdestream/piquet/internal/interval"
	"github.com/piquetdestream/piquet/internal/stream"
)

// Planner is the part of the planning engine the editor talks to.
type Planner interface {
	ApprovedIntervals(ctx context.Context, weekStart time.Time) ([]interval.Interval, error)
	CreateStreamRequest(ctx context.Context, p stream.Principal, in stream.CreateInput) (*stream.StreamRequest, error)
}

// WeekLoadedMsg is sent when the approved intervals of a week are loaded.
// Gen is the navigation generation the load was started for.
type WeekLoadedMsg struct {
	Gen       uint64
	WeekStart time.Time
	Approved  []interval.Interval
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// SubmittedMsg is sent when a stream request was created.
type SubmittedMsg struct {
	Request *stream.StreamRequest
}

// CopiedMsg is sent when the candidate list was copied to the clipboard.
type CopiedMsg struct {
	Count int
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// LoadWeek loads the approved intervals overlapping the week at weekStart.
func LoadWeek(p Planner, weekStart time.Time, gen uint64) tea.Cmd {
	return func() tea.Msg {
		approved, err := p.ApprovedIntervals(context.Background(), weekStart)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("loading week: %w", err)}
		}
		return WeekLoadedMsg{Gen: gen, WeekStart: weekStart, Approved: approved}
	}
}

// Submit creates the stream request on behalf of principal.
func Submit(p Planner, principal stream.Principal, in stream.CreateInput) tea.Cmd {
	return func() tea.Msg {
		req, err := p.CreateStreamRequest(context.Background(), principal, in)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("submitting request: %w", err)}
		}
		return SubmittedMsg{Request: req}
	}
}

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// Copy writes text to the system clipboard.
func Copy(text string, count int) tea.Cmd {
	return func() tea.Msg {
		if err := clipboardWrite(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return CopiedMsg{Count: count}
	}
}

// ClearStatusAfter clears the status line after d.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
