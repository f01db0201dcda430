// Package theme provides the colour themes of the week editor.
package theme

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultName is the theme used when none is configured or the configured
// one does not exist.
const DefaultName = "frappe"

//go:embed embedded/*.toml
var embedded embed.FS

// Theme holds the base colours of the editor as #rrggbb strings.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // grid background
	BgHighlight string `toml:"bg_highlight"` // alternate hour rows
	BgSelection string `toml:"bg_selection"` // click selection range
	Fg          string `toml:"fg"`
	FgMuted     string `toml:"fg_muted"`  // past cells
	Accent      string `toml:"accent"`    // title, cursor
	Candidate   string `toml:"candidate"` // slots being proposed
	Occupied    string `toml:"occupied"`  // approved streams
	Current     string `toml:"current"`   // today's column
	Warning     string `toml:"warning"`   // invalid drop, errors

	FormBg     string `toml:"form_bg"`     // optional, defaults to bg_highlight
	FormBorder string `toml:"form_border"` // optional, defaults to accent
}

// Load reads the named embedded theme. Unknown names load DefaultName.
func Load(name string) (*Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !IsAvailable(name) {
		name = DefaultName
	}

	data, err := embedded.ReadFile(path.Join("embedded", name+".toml"))
	if err != nil {
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}
	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	if t.Name == "" {
		t.Name = name
	}
	if t.FormBg == "" {
		t.FormBg = coalesce(t.BgHighlight, t.Bg)
	}
	if t.FormBorder == "" {
		t.FormBorder = t.Accent
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("theme %q: %w", name, err)
	}
	return &t, nil
}

// validate checks every colour is a #rrggbb string.
func (t *Theme) validate() error {
	colors := []struct{ key, value string }{
		{"bg", t.Bg}, {"bg_highlight", t.BgHighlight}, {"bg_selection", t.BgSelection},
		{"fg", t.Fg}, {"fg_muted", t.FgMuted}, {"accent", t.Accent},
		{"candidate", t.Candidate}, {"occupied", t.Occupied}, {"current", t.Current},
		{"warning", t.Warning}, {"form_bg", t.FormBg}, {"form_border", t.FormBorder},
	}
	for _, c := range colors {
		if _, ok := parseRGB(c.value); !ok {
			return fmt.Errorf("%s = %q is not a #rrggbb colour", c.key, c.value)
		}
	}
	return nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns the embedded theme names in alphabetical order.
func Available() []string {
	entries, err := fs.ReadDir(embedded, "embedded")
	if err != nil {
		return []string{DefaultName}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), ".toml"); ok {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names
}

// IsAvailable reports whether name is an embedded theme, ignoring case.
func IsAvailable(name string) bool {
	return slices.Contains(Available(), strings.ToLower(name))
}
