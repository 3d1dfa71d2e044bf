package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nissyi-gh/taskmgr/internal/model"
)

const (
	fieldYear = iota
	fieldMonth
	fieldDay
)

// dateInput edits an optional YYYY-MM-DD date as three digit-only fields.
type dateInput struct {
	fields [3]textinput.Model
	focus  int
	active bool
}

func newDateInput() dateInput {
	placeholders := [3]string{"YYYY", "MM", "DD"}
	widths := [3]int{4, 2, 2}

	var d dateInput
	for i := range d.fields {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = widths[i]
		ti.Width = widths[i] + 1
		ti.Prompt = ""
		ti.Validate = digitsOnly
		d.fields[i] = ti
	}
	return d
}

func digitsOnly(s string) error {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("digits only")
		}
	}
	return nil
}

// SetValue fills the fields from a YYYY-MM-DD string. "" clears them.
func (d *dateInput) SetValue(date string) {
	parts := strings.SplitN(date, "-", 3)
	for i := range d.fields {
		if date != "" && i < len(parts) {
			d.fields[i].SetValue(parts[i])
		} else {
			d.fields[i].SetValue("")
		}
	}
}

// Focus activates the date field at idx.
func (d *dateInput) Focus(idx int) tea.Cmd {
	d.active = true
	d.focus = idx
	var cmd tea.Cmd
	for i := range d.fields {
		if i == idx {
			cmd = d.fields[i].Focus()
		} else {
			d.fields[i].Blur()
		}
	}
	return cmd
}

func (d *dateInput) Blur() {
	d.active = false
	for i := range d.fields {
		d.fields[i].Blur()
	}
}

// Advance moves focus by delta inside the date. It reports false, leaving
// focus alone, when the move would leave the date.
func (d *dateInput) Advance(delta int) (bool, tea.Cmd) {
	next := d.focus + delta
	if next < fieldYear || next > fieldDay {
		return false, nil
	}
	return true, d.Focus(next)
}

func (d *dateInput) IsEmpty() bool {
	for _, f := range d.fields {
		if strings.TrimSpace(f.Value()) != "" {
			return false
		}
	}
	return true
}

// Value returns the date, or nil when every field is empty. A missing year
// or month defaults to the one containing now.
func (d *dateInput) Value(now time.Time) (*string, error) {
	if d.IsEmpty() {
		return nil, nil
	}

	yyyy := strings.TrimSpace(d.fields[fieldYear].Value())
	mm := strings.TrimSpace(d.fields[fieldMonth].Value())
	dd := strings.TrimSpace(d.fields[fieldDay].Value())

	if yyyy == "" {
		yyyy = fmt.Sprintf("%04d", now.Year())
	}
	if mm == "" {
		mm = fmt.Sprintf("%02d", int(now.Month()))
	}
	if dd == "" {
		return nil, fmt.Errorf("day is required")
	}

	date := fmt.Sprintf("%s-%s-%s", yyyy, padLeft(mm, 2), padLeft(dd, 2))
	if !model.ValidDate(date) {
		return nil, fmt.Errorf("invalid date: %s", date)
	}
	return &date, nil
}

func padLeft(s string, length int) string {
	for len(s) < length {
		s = "0" + s
	}
	return s
}

func (d dateInput) Update(msg tea.Msg) (dateInput, tea.Cmd) {
	var cmd tea.Cmd
	d.fields[d.focus], cmd = d.fields[d.focus].Update(msg)
	return d, cmd
}

func (d dateInput) View() string {
	return d.fields[fieldYear].View() + " - " + d.fields[fieldMonth].View() + " - " + d.fields[fieldDay].View()
}
