package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/piquetdestream/piquet/internal/calendar"
	"github.com/piquetdestream/piquet/internal/config"
	"github.com/piquetdestream/piquet/internal/interval"
	"github.com/piquetdestream/piquet/internal/stream"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{30, "30m"},
		{60, "1h"},
		{90, "1h30m"},
		{150, "2h30m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.minutes); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"speedrun night", 8, "speed..."},
		{"héhéhé", 5, "hé..."},
		{"abc", 2, "ab"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestStatusBadge(t *testing.T) {
	DisableColor()
	if got := statusBadge(stream.SlotPending); got != "[PENDING ]" {
		t.Errorf("got %q", got)
	}
	if got := appointmentBadge(stream.AppointmentApproved); got != "[APPROVED]" {
		t.Errorf("got %q", got)
	}
}

func TestRenderGrid(t *testing.T) {
	DisableColor()
	monday := time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)
	days := calendar.WeekDays(monday)
	approved := []interval.Interval{{
		Start: monday.Add(25 * time.Hour),                // Tue 01:00
		End:   monday.Add(26*time.Hour + 30*time.Minute), // Tue 02:30
	}}
	now := monday.Add(75 * time.Minute) // Mon 01:15
	g := calendar.Project(days, approved, now)

	var buf bytes.Buffer
	renderGrid(&buf, days, &g, 0, 6)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if len(lines) != 7 {
		t.Fatalf("got %d lines, want header + 6 rows:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "Mon 03") || !strings.Contains(lines[0], "Sun 09") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "00:00") || !strings.HasPrefix(lines[3], "01:00") {
		t.Errorf("hour labels missing:\n%s", buf.String())
	}

	// Monday 00:00 and 00:30 are past, Tuesday 01:00-02:30 is occupied.
	past := strings.Repeat("░", gridColWidth-1)
	busy := strings.Repeat("█", gridColWidth-1)
	for row, want := range map[int]string{0: past, 1: past} {
		if !strings.Contains(lines[row+1], want) {
			t.Errorf("row %d = %q, want past cell", row, lines[row+1])
		}
	}
	for _, row := range []int{2, 3, 4} {
		if !strings.Contains(lines[row+1], busy) {
			t.Errorf("row %d = %q, want occupied cell", row, lines[row+1])
		}
	}
	if strings.Contains(lines[6], busy) {
		t.Errorf("row 5 = %q, want free", lines[6])
	}
}

func TestPrintSchedule_Empty(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	printSchedule(&buf, time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC), nil, time.UTC, 80)
	out := buf.String()
	if !strings.Contains(out, "WEEK: Mon Jun 3 - Sun Jun 9, 2030") {
		t.Errorf("missing week header:\n%s", out)
	}
	if !strings.Contains(out, "No stream slots this week.") {
		t.Errorf("missing empty notice:\n%s", out)
	}
}

func TestConfigInteractive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	t.Run("creates defaults without editing", func(t *testing.T) {
		var out bytes.Buffer
		if err := runConfigInteractive(path, strings.NewReader("n\n"), &out); err != nil {
			t.Fatalf("runConfigInteractive failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
		if !strings.Contains(out.String(), "timezone         = Europe/Paris") {
			t.Errorf("output:\n%s", out.String())
		}
	})

	t.Run("edits and saves", func(t *testing.T) {
		answers := strings.Join([]string{
			"y",        // edit
			"",         // driver
			"",         // db path
			"UTC",      // timezone
			"someday",  // invalid weekday
			"sunday",   // weekday
			"",         // listen
			"s3cret",   // jwt secret
			"111, 222", // discord admin
			"", "", "", "",
			"latte", // theme
		}, "\n") + "\n"

		var out bytes.Buffer
		if err := runConfigInteractive(path, strings.NewReader(answers), &out); err != nil {
			t.Fatalf("runConfigInteractive failed: %v\n%s", err, out.String())
		}

		cfg, err := config.LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom failed: %v", err)
		}
		if cfg.Schedule.Timezone != "UTC" || cfg.Schedule.WeekStart != "sunday" {
			t.Errorf("schedule = %+v", cfg.Schedule)
		}
		if cfg.Auth.JWTSecret != "s3cret" || cfg.UI.Theme != "latte" {
			t.Errorf("auth = %+v, ui = %+v", cfg.Auth, cfg.UI)
		}
		if len(cfg.Discord.RoleAdmin) != 2 || cfg.Discord.RoleAdmin[1] != "222" {
			t.Errorf("discord admin roles = %v", cfg.Discord.RoleAdmin)
		}
		if strings.Contains(out.String(), "s3cret") {
			t.Error("secret echoed in output")
		}
	})
}

func TestConfigCmd_InitAndShow(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "piquet", "config.toml")

	out := env.mustRun(t, "config", "init", "--file", path)
	if !strings.Contains(out, "Created "+path) {
		t.Errorf("init output = %q", out)
	}
	if _, err := env.run(t, "config", "init", "--file", path); err == nil {
		t.Error("expected error when the file exists")
	}

	out = env.mustRun(t, "config", "show", "--file", path)
	for _, want := range []string{"[storage]", "week_start       = monday", "theme            = frappe"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}
