package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nissyi-gh/taskmgr/internal/model"
)

const (
	focusTitle = iota
	focusDesc
	focusPriority
	focusDue
)

// taskForm is the add/edit form. editID is empty when adding.
type taskForm struct {
	editID   string
	title    textinput.Model
	desc     textarea.Model
	priority model.Priority
	due      dateInput
	focus    int
}

func newTaskForm(defaultPriority model.Priority) taskForm {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 256

	ta := textarea.New()
	ta.Placeholder = "Task description..."
	ta.CharLimit = 4096
	ta.ShowLineNumbers = false
	ta.SetHeight(4)

	return taskForm{
		title:    ti,
		desc:     ta,
		priority: defaultPriority,
		due:      newDateInput(),
	}
}

// fill loads an existing task into the form for editing.
func (f *taskForm) fill(t model.Task) {
	f.editID = t.ID
	f.title.SetValue(t.Title)
	f.title.CursorEnd()
	f.desc.SetValue(t.Description)
	f.priority = t.Priority
	f.due.SetValue(t.Due())
}

func (f *taskForm) setWidth(w int) {
	if w < 20 {
		w = 20
	}
	f.title.Width = w
	f.desc.SetWidth(w)
}

func (f *taskForm) focusOn(idx int, fromEnd bool) tea.Cmd {
	f.focus = idx
	f.title.Blur()
	f.desc.Blur()
	f.due.Blur()

	switch idx {
	case focusTitle:
		return f.title.Focus()
	case focusDesc:
		return f.desc.Focus()
	case focusDue:
		if fromEnd {
			return f.due.Focus(fieldDay)
		}
		return f.due.Focus(fieldYear)
	}
	return nil
}

// move shifts focus by delta, stepping through the date fields first.
func (f *taskForm) move(delta int) tea.Cmd {
	if f.focus == focusDue {
		if moved, cmd := f.due.Advance(delta); moved {
			return cmd
		}
	}
	next := (f.focus + delta + 4) % 4
	return f.focusOn(next, delta < 0)
}

func (f taskForm) update(msg tea.Msg) (taskForm, tea.Cmd) {
	var cmd tea.Cmd
	switch f.focus {
	case focusTitle:
		f.title, cmd = f.title.Update(msg)
	case focusDesc:
		f.desc, cmd = f.desc.Update(msg)
	case focusPriority:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case " ", "right", "l":
				f.priority = f.priority.Next()
			case "left", "h":
				f.priority = f.priority.Next().Next()
			}
		}
	case focusDue:
		f.due, cmd = f.due.Update(msg)
	}
	return f, cmd
}

// draft validates the form and returns its values.
func (f *taskForm) draft(now time.Time) (model.Draft, error) {
	title := strings.TrimSpace(f.title.Value())
	if title == "" {
		return model.Draft{}, fmt.Errorf("title is required")
	}
	due, err := f.due.Value(now)
	if err != nil {
		return model.Draft{}, err
	}
	return model.Draft{
		Title:       title,
		Description: strings.TrimSpace(f.desc.Value()),
		Priority:    f.priority,
		DueDate:     due,
	}, nil
}

// patch turns a draft into an update replacing every editable field.
func patch(d model.Draft) model.Patch {
	p := model.Patch{
		Title:       &d.Title,
		Description: &d.Description,
		Priority:    &d.Priority,
	}
	if d.DueDate == nil {
		p.ClearDueDate = true
	} else {
		p.DueDate = d.DueDate
	}
	return p
}

func (f taskForm) view() string {
	label := func(idx int, name string) string {
		if f.focus == idx {
			return titleStyle.Render("> " + name)
		}
		return statusStyle.Render("  " + name)
	}

	priority := priorityBadge(f.priority)
	if f.focus == focusPriority {
		priority = "‹ " + priority + " ›"
	}

	return label(focusTitle, "Title") + "\n" + f.title.View() + "\n\n" +
		label(focusDesc, "Description") + "\n" + f.desc.View() + "\n\n" +
		label(focusPriority, "Priority") + "\n  " + priority + "\n\n" +
		label(focusDue, "Due date") + "\n  " + f.due.View()
}
