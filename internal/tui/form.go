package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/piquetdestream/piquet/internal/interval"
	"github.com/piquetdestream/piquet/internal/stream"
)

const (
	fieldTitle = iota
	fieldCategory
	fieldGuests
	fieldDescription
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Category", "Guests", "Description"}

// submitForm collects the request metadata before submission.
type submitForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newSubmitForm(styles *Styles) submitForm {
	var f submitForm
	placeholders := [fieldCount]string{"Stream title", "e.g. games", "comma separated", "optional"}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Prompt = ""
		in.TextStyle = styles.FormInputStyle
		in.PlaceholderStyle = styles.FormMutedStyle
		in.Cursor.TextStyle = styles.FormInputStyle
		in.Width = 40
		f.inputs[i] = in
	}
	f.inputs[fieldTitle].CharLimit = stream.MaxTitleLength
	return f
}

// open resets the focus to the title and focuses it. Values are kept so a
// rejected submission can be corrected.
func (f *submitForm) open() tea.Cmd {
	f.focus = fieldTitle
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[fieldTitle].Focus()
}

func (f *submitForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.focus = fieldTitle
}

func (f *submitForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *submitForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// input builds the create payload from the form values and slots.
func (f *submitForm) input(slots []interval.Interval) stream.CreateInput {
	sorted := make([]interval.Interval, len(slots))
	copy(sorted, slots)
	sortByStart(sorted)

	in := stream.CreateInput{
		Title:       strings.TrimSpace(f.inputs[fieldTitle].Value()),
		Category:    strings.TrimSpace(f.inputs[fieldCategory].Value()),
		Description: strings.TrimSpace(f.inputs[fieldDescription].Value()),
		Guests:      splitGuests(f.inputs[fieldGuests].Value()),
	}
	for _, s := range sorted {
		in.TimeSlots = append(in.TimeSlots, stream.SlotInput{Start: s.Start, End: s.End})
	}
	return in
}

func splitGuests(s string) []string {
	guests := []string{}
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			guests = append(guests, g)
		}
	}
	return guests
}

func sortByStart(slots []interval.Interval) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
}
