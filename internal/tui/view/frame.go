package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FrameStyles groups the styles of a boxed dialog.
type FrameStyles struct {
	Box    lipgloss.Style
	Title  lipgloss.Style
	Footer lipgloss.Style
}

// RenderFrame renders a dialog with a title, body and footer.
func RenderFrame(title, body, footer string, styles FrameStyles) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(title))
	if body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	if footer != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.Footer.Render(footer))
	}
	return styles.Box.Render(b.String())
}

// FooterLines renders the status and help lines, each fitted to width.
func FooterLines(width int, status, help string, statusStyle, helpStyle lipgloss.Style) string {
	return fit(width, statusStyle, status) + "\n" + fit(width, helpStyle, help)
}

func fit(width int, style lipgloss.Style, content string) string {
	frameW, _ := style.GetFrameSize()
	contentW := max(0, width-frameW)
	if contentW > 0 {
		content = Truncate(content, contentW)
	}
	return style.Width(contentW).Render(content)
}
