// Package prompt builds text for asking an assistant to produce tasks in the
// YAML format accepted by taskmgr import.
package prompt

import (
	"fmt"
	"strings"

	"github.com/nissyi-gh/taskmgr/internal/model"
)

const yamlFormat = `Reply with a single YAML code block in the format below and nothing else.

` + "```yaml" + `
tasks:
  - title: "Task title"
    description: "What needs to be done"
    priority: "medium"
    due_date: "YYYY-MM-DD"
` + "```" + `

Fields:
- title: (required) short task title
- description: (optional) details
- priority: (optional) one of low, medium, high
- due_date: (optional) due date in YYYY-MM-DD format`

// GenerateNew returns a prompt for creating new tasks from scratch.
func GenerateNew() string {
	return fmt.Sprintf(`You are a task planning assistant.
Break the goal the user describes into tasks of a size that can each be finished in one sitting.

%s
`, yamlFormat)
}

// GenerateFromTask returns a prompt for breaking down an existing task.
// siblings are the other pending tasks, listed so the assistant does not
// duplicate them.
func GenerateFromTask(task model.Task, siblings []model.Task) string {
	var sb strings.Builder

	sb.WriteString("You are a task planning assistant.\n")
	sb.WriteString("Break the task below into smaller, concrete tasks.\n\n")

	sb.WriteString("## Task\n")
	sb.WriteString(fmt.Sprintf("- title: %s\n", task.Title))
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("- description: %s\n", task.Description))
	}
	if task.Priority != "" {
		sb.WriteString(fmt.Sprintf("- priority: %s\n", task.Priority))
	}
	if due := task.Due(); due != "" {
		sb.WriteString(fmt.Sprintf("- due: %s\n", due))
	}

	var pending []string
	for _, t := range siblings {
		if t.ID == task.ID || t.Completed {
			continue
		}
		pending = append(pending, "- "+t.Title)
	}
	if len(pending) > 0 {
		sb.WriteString("\n## Other pending tasks\n")
		sb.WriteString(strings.Join(pending, "\n"))
		sb.WriteString("\n\nDo not repeat any of these.\n")
	}

	sb.WriteString("\n")
	sb.WriteString(yamlFormat)
	sb.WriteString("\n")

	return sb.String()
}
