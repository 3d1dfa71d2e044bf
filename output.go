package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/nissyi-gh/taskmgr/internal/model"
)

// nowFunc is the reference time for due-date marks.
var nowFunc = time.Now

const (
	detailWidth   = 80
	titleMaxWidth = 50
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func encodeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func shortID(id string, n int) string {
	if n <= 0 || n >= len(id) {
		return id
	}
	return id[:n]
}

func dueLabel(t model.Task, now time.Time) string {
	due := t.Due()
	switch {
	case due == "":
		return "-"
	case t.IsOverdueAt(now):
		return due + " (overdue)"
	case t.IsDueOn(now):
		return due + " (today)"
	default:
		return due
	}
}

// formatTaskTable renders tasks with ids cut to idLen characters.
func formatTaskTable(tasks []model.Task, idLen int, now time.Time) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		rows = append(rows, []string{
			shortID(t.ID, idLen),
			done,
			runewidth.Truncate(t.Title, titleMaxWidth, "..."),
			string(t.Priority),
			dueLabel(t, now),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("ID", "DONE", "TITLE", "PRIORITY", "DUE").
		Rows(rows...).
		Render()
}

// formatTaskDetail renders one task. The description is treated as
// markdown.
func formatTaskDetail(t model.Task, now time.Time, color bool) string {
	status := "pending"
	if t.Completed {
		status = "completed"
	}
	priority := string(t.Priority)
	if priority == "" {
		priority = "-"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", t.Title)
	fmt.Fprintf(&sb, "id:         %s\n", t.ID)
	fmt.Fprintf(&sb, "status:     %s\n", status)
	fmt.Fprintf(&sb, "priority:   %s\n", priority)
	fmt.Fprintf(&sb, "due_date:   %s\n", dueLabel(t, now))
	fmt.Fprintf(&sb, "created_at: %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	if strings.TrimSpace(t.Description) != "" {
		sb.WriteString("\n")
		sb.WriteString(renderMarkdown(t.Description, color))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderMarkdown(value string, color bool) string {
	style := glamour.WithStandardStyle(styles.NoTTYStyle)
	if color {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(detailWidth))
	if err != nil {
		return value
	}
	out, err := r.Render(value)
	if err != nil {
		return value
	}
	return strings.Trim(out, "\n")
}
