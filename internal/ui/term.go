package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/piquetdestream/piquet/internal/stream"
)

const defaultTermWidth = 80

// statusColors maps each slot status to its colour. Unknown statuses print
// like DENIED.
var statusColors = map[stream.TimeSlotStatus]*color.Color{
	stream.SlotApproved: color.New(color.FgGreen, color.Bold),
	stream.SlotPending:  color.New(color.FgYellow),
	stream.SlotDenied:   color.New(color.Faint),
}

var (
	colorHeader = color.New(color.Bold)
	colorMuted  = color.New(color.Faint)
)

func statusColor(s stream.TimeSlotStatus) *color.Color {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[stream.SlotDenied]
}

// termWidth returns the width of stdout, or defaultTermWidth when it is not
// a terminal.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

// DisableColor turns colour output off for every command.
func DisableColor() {
	color.NoColor = true
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
