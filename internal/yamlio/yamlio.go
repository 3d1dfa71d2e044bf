// Package yamlio moves tasks in and out of the store as YAML.
package yamlio

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nissyi-gh/taskmgr/internal/model"
	"gopkg.in/yaml.v3"
)

// YAMLTask represents a single task in the YAML document.
// ID and CreatedAt are written on export and ignored on import.
type YAMLTask struct {
	ID          string `yaml:"id,omitempty"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Priority    string `yaml:"priority,omitempty"`
	DueDate     string `yaml:"due_date,omitempty"`
	Completed   bool   `yaml:"completed,omitempty"`
	CreatedAt   string `yaml:"created_at,omitempty"`
}

// Document represents the root structure of the YAML document.
type Document struct {
	Tasks []YAMLTask `yaml:"tasks"`
}

// Creator is the subset of the task store that Import needs.
type Creator interface {
	Create(d model.Draft) (model.Task, error)
	Toggle(id string) (bool, error)
}

// Import parses a YAML document and creates its tasks in the store.
// Entries without a priority get defaultPriority. All entries are
// validated before any task is created. Tasks are created last entry first
// so the newest-first collection lists them in document order.
// Returns the number of tasks created.
func Import(s Creator, r io.Reader, defaultPriority model.Priority) (int, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return 0, fmt.Errorf("no tasks found in YAML")
		}
		return 0, fmt.Errorf("YAML parse error: %w", err)
	}

	if len(doc.Tasks) == 0 {
		return 0, fmt.Errorf("no tasks found in YAML")
	}

	drafts := make([]model.Draft, len(doc.Tasks))
	for i, yt := range doc.Tasks {
		d, err := toDraft(yt, defaultPriority)
		if err != nil {
			return 0, fmt.Errorf("task %d: %w", i+1, err)
		}
		drafts[i] = d
	}

	count := 0
	for i := len(drafts) - 1; i >= 0; i-- {
		task, err := s.Create(drafts[i])
		if err != nil {
			return count, fmt.Errorf("add task %q: %w", drafts[i].Title, err)
		}
		count++

		if doc.Tasks[i].Completed {
			if _, err := s.Toggle(task.ID); err != nil {
				return count, fmt.Errorf("complete task %q: %w", drafts[i].Title, err)
			}
		}
	}
	return count, nil
}

func toDraft(yt YAMLTask, defaultPriority model.Priority) (model.Draft, error) {
	title := strings.TrimSpace(yt.Title)
	if title == "" {
		return model.Draft{}, fmt.Errorf("task title is required")
	}

	d := model.Draft{
		Title:       title,
		Description: yt.Description,
		Priority:    defaultPriority,
	}

	if yt.Priority != "" {
		p, err := model.ParsePriority(yt.Priority)
		if err != nil {
			return model.Draft{}, fmt.Errorf("%q: %w", yt.Title, err)
		}
		d.Priority = p
	}

	if yt.DueDate != "" {
		if !model.ValidDate(yt.DueDate) {
			return model.Draft{}, fmt.Errorf("%q: invalid due_date %q (want YYYY-MM-DD)", yt.Title, yt.DueDate)
		}
		due := yt.DueDate
		d.DueDate = &due
	}

	return d, nil
}

// Export writes tasks as a YAML document readable by Import.
// Priorities Import would reject are left out so the default applies.
func Export(w io.Writer, tasks []model.Task) error {
	doc := Document{Tasks: make([]YAMLTask, 0, len(tasks))}
	for _, t := range tasks {
		priority := ""
		if t.Priority.IsValid() {
			priority = string(t.Priority)
		}
		doc.Tasks = append(doc.Tasks, YAMLTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    priority,
			DueDate:     t.Due(),
			Completed:   t.Completed,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}
