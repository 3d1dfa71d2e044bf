package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/nissyi-gh/taskmgr/internal/model"
)

var priorityColors = map[model.Priority]lipgloss.Color{
	model.PriorityLow:    lipgloss.Color("39"),
	model.PriorityMedium: lipgloss.Color("214"),
	model.PriorityHigh:   lipgloss.Color("203"),
}

// TaskItem wraps model.Task to satisfy the list.DefaultItem interface.
type TaskItem struct {
	Task model.Task
	// Now is the reference time for due-date marks.
	Now time.Time
}

func (i TaskItem) Title() string {
	check := "[ ]"
	if i.Task.Completed {
		check = "[x]"
	}
	dueMark := ""
	if i.Task.IsOverdueAt(i.Now) {
		dueMark = "⚠️ "
	} else if i.Task.IsDueOn(i.Now) {
		dueMark = "📅 "
	}
	return fmt.Sprintf("%s %s%s", check, dueMark, i.Task.Title)
}

func (i TaskItem) Description() string {
	parts := []string{priorityBadge(i.Task.Priority)}
	if due := i.Task.Due(); due != "" {
		parts = append(parts, "due "+due)
	}
	if i.Task.Description != "" {
		first, _, _ := strings.Cut(i.Task.Description, "\n")
		parts = append(parts, first)
	}
	return strings.Join(parts, " · ")
}

func (i TaskItem) FilterValue() string {
	return i.Task.Title + " " + i.Task.Description
}

func priorityBadge(p model.Priority) string {
	if p == "" {
		return statusStyle.Render("no priority")
	}
	color, ok := priorityColors[p]
	if !ok {
		return statusStyle.Render(string(p))
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(string(p))
}
