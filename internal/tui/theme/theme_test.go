package theme

import (
	"slices"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		themeName string
		wantName  string
	}{
		{"mocha", "mocha", "mocha"},
		{"latte", "latte", "latte"},
		{"case and spaces", "  Macchiato ", "macchiato"},
		{"empty name uses default", "", DefaultName},
		{"unknown name uses default", "solarized", DefaultName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := Load(tt.themeName)
			if err != nil {
				t.Fatalf("Load(%q) unexpected error: %v", tt.themeName, err)
			}
			if th.Name != tt.wantName {
				t.Errorf("Load(%q).Name = %q, want %q", tt.themeName, th.Name, tt.wantName)
			}
		})
	}
}

// Every embedded theme must load, which validates all of its colours.
func TestLoad_EmbeddedThemesAreValid(t *testing.T) {
	for _, name := range Available() {
		t.Run(name, func(t *testing.T) {
			th, err := Load(name)
			if err != nil {
				t.Fatalf("Load(%s): %v", name, err)
			}
			if th.FormBg == "" || th.FormBorder == "" {
				t.Errorf("form colours not defaulted: %+v", th)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	th, err := Load("frappe")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	broken := *th
	broken.Occupied = "green"

	err = broken.validate()
	if err == nil || !strings.Contains(err.Error(), "occupied") {
		t.Errorf("validate() = %v, want an error naming occupied", err)
	}
}

func TestAvailable(t *testing.T) {
	got := Available()
	want := []string{"frappe", "latte", "light", "macchiato", "mocha"}
	if !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
	if !slices.Contains(got, DefaultName) {
		t.Errorf("default theme %q is not embedded", DefaultName)
	}
}

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		theme string
		want  bool
	}{
		{"mocha", true},
		{"Latte", true},
		{"unknown", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAvailable(tt.theme); got != tt.want {
			t.Errorf("IsAvailable(%q) = %t, want %t", tt.theme, got, tt.want)
		}
	}
}
