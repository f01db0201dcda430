package theme

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds the colours the editor renders with, derived from a Theme.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Candidate   lipgloss.Color
	Occupied    lipgloss.Color
	Current     lipgloss.Color
	Warning     lipgloss.Color

	// Cell backgrounds.
	CandidateBg    lipgloss.Color
	CandidateBgAlt lipgloss.Color // every other hour of a long candidate
	OccupiedBg     lipgloss.Color
	OccupiedPastBg lipgloss.Color // approved stream already over
	PastBg         lipgloss.Color

	TextOnAccent    lipgloss.Color
	TextOnWarning   lipgloss.Color
	TextOnCandidate lipgloss.Color
	TextOnOccupied  lipgloss.Color

	FormBg     lipgloss.Color
	FormBorder lipgloss.Color
}

// NewPalette derives a Palette from t. A nil theme uses DefaultName.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load(DefaultName)
	}

	bg := mustRGB(t.Bg)
	light := bg.luminance() > 0.55
	candidate := cellShade(mustRGB(t.Candidate), bg, light)
	occupied := cellShade(mustRGB(t.Occupied), bg, light)

	return &Palette{
		Bg:          lipgloss.Color(t.Bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          lipgloss.Color(t.Fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Candidate:   lipgloss.Color(t.Candidate),
		Occupied:    lipgloss.Color(t.Occupied),
		Current:     lipgloss.Color(t.Current),
		Warning:     lipgloss.Color(t.Warning),

		CandidateBg:    candidate.color(),
		CandidateBgAlt: altShade(candidate, light).color(),
		OccupiedBg:     occupied.color(),
		OccupiedPastBg: pastShade(mustRGB(t.Occupied), bg, light).color(),
		PastBg:         pastShade(mustRGB(t.FgMuted), bg, light).color(),

		TextOnAccent:    textOn(mustRGB(t.Accent), t.Bg, t.Fg),
		TextOnWarning:   textOn(mustRGB(t.Warning), t.Bg, t.Fg),
		TextOnCandidate: textOn(candidate, t.Bg, t.Fg),
		TextOnOccupied:  textOn(occupied, t.Bg, t.Fg),

		FormBg:     lipgloss.Color(coalesce(t.FormBg, t.BgHighlight, t.Bg)),
		FormBorder: lipgloss.Color(coalesce(t.FormBorder, t.Accent)),
	}
}

// cellShade is the background of a slot cell: the accent faded into a light
// background, or darkened on a dark one.
func cellShade(accent, bg rgb, light bool) rgb {
	if light {
		return accent.mix(bg, 0.75)
	}
	return accent.scale(0.50, 40)
}

// pastShade is a fainter cellShade for cells before now.
func pastShade(accent, bg rgb, light bool) rgb {
	if light {
		return accent.mix(bg, 0.88)
	}
	return accent.scale(0.30, 30)
}

func altShade(c rgb, light bool) rgb {
	if light {
		return c.mix(rgb{}, 0.10)
	}
	return c.mix(rgb{255, 255, 255}, 0.30)
}

// textOn picks whichever of the two text colours contrasts more with bg.
func textOn(bg rgb, lightText, darkText string) lipgloss.Color {
	if bg.contrast(mustRGB(lightText)) >= bg.contrast(mustRGB(darkText)) {
		return lipgloss.Color(lightText)
	}
	return lipgloss.Color(darkText)
}

// rgb is an 8-bit colour.
type rgb struct{ r, g, b int }

func parseRGB(hex string) (rgb, bool) {
	var c rgb
	if len(hex) != 7 || hex[0] != '#' {
		return c, false
	}
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &c.r, &c.g, &c.b); err != nil {
		return rgb{}, false
	}
	return c, true
}

// mustRGB parses hex, falling back to black. Loaded themes are validated.
func mustRGB(hex string) rgb {
	c, _ := parseRGB(hex)
	return c
}

func (c rgb) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

func (c rgb) color() lipgloss.Color {
	return lipgloss.Color(c.String())
}

// scale multiplies each channel by f, keeping it at least floor.
func (c rgb) scale(f float64, floor int) rgb {
	ch := func(v int) int { return max(floor, int(float64(v)*f)) }
	return rgb{ch(c.r), ch(c.g), ch(c.b)}
}

// mix moves c towards o by ratio in [0, 1].
func (c rgb) mix(o rgb, ratio float64) rgb {
	ratio = math.Max(0, math.Min(1, ratio))
	ch := func(a, b int) int { return int(float64(a)*(1-ratio) + float64(b)*ratio) }
	return rgb{ch(c.r, o.r), ch(c.g, o.g), ch(c.b, o.b)}
}

// luminance is the WCAG relative luminance.
func (c rgb) luminance() float64 {
	lin := func(v int) float64 {
		s := float64(v) / 255
		if s <= 0.04045 {
			return s / 12.92
		}
		return math.Pow((s+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.r) + 0.7152*lin(c.g) + 0.0722*lin(c.b)
}

func (c rgb) contrast(o rgb) float64 {
	l1, l2 := c.luminance(), o.luminance()
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}
