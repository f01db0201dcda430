// Package view provides rendering helpers for the TUI.
package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// PadLines pads every line of content to width and the content to height
// lines, filling with bg. Lines wider than width are left as they are.
func PadLines(content string, width, height int, bg lipgloss.Color) string {
	if width <= 0 || height <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	lines = lines[:height]

	pad := lipgloss.NewStyle().Background(bg)
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + pad.Render(strings.Repeat(" ", width-w))
		}
	}
	return strings.Join(lines, "\n")
}

// Overlay centers box over base, which is first padded to width x height.
// Box lines are padded with boxBg so the box keeps a solid background after
// inner ANSI resets.
func Overlay(base, box string, width, height int, boxBg lipgloss.Color) string {
	boxLines := strings.Split(box, "\n")
	boxW := 0
	for _, line := range boxLines {
		boxW = max(boxW, lipgloss.Width(line))
	}
	if boxW == 0 {
		return base
	}
	boxW = min(boxW, width)
	boxH := len(boxLines)

	top := max(0, (height-boxH)/2)
	left := max(0, (width-boxW)/2)
	pad := lipgloss.NewStyle().Background(boxBg)

	for i, line := range boxLines {
		w := lipgloss.Width(line)
		if w > boxW {
			line = ansi.Cut(line, 0, boxW)
		} else if w < boxW {
			line += pad.Render(strings.Repeat(" ", boxW-w))
		}
		boxLines[i] = reapplyBackground(line, boxBg) + ansi.ResetStyle
	}

	baseLines := strings.Split(PadLines(base, width, height, lipgloss.Color("")), "\n")
	for row := top; row < top+boxH && row < len(baseLines); row++ {
		line := baseLines[row]
		baseLines[row] = ansi.Cut(line, 0, left) + boxLines[row-top] + ansi.Cut(line, left+boxW, width)
	}
	return strings.Join(baseLines, "\n")
}

// reapplyBackground restores bg after every reset sequence in line.
func reapplyBackground(line string, bg lipgloss.Color) string {
	if bg == "" {
		return line
	}
	seq := ansi.Style{}.BackgroundColor(ansi.HexColor(string(bg))).String()
	line = strings.ReplaceAll(line, ansi.ResetStyle, ansi.ResetStyle+seq)
	line = strings.ReplaceAll(line, "\x1b[0m", "\x1b[0m"+seq)
	line = strings.ReplaceAll(line, "\x1b[49m", "\x1b[49m"+seq)
	return line
}

// Truncate cuts s to width cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "")
}
