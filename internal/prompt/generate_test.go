package prompt

import (
	"strings"
	"testing"

	"github.com/nissyi-gh/taskmgr/internal/model"
	"github.com/nissyi-gh/taskmgr/internal/yamlio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGenerateNewEmbedsImportableExample(t *testing.T) {
	out := GenerateNew()

	start := strings.Index(out, "```yaml\n")
	end := strings.LastIndex(out, "```")
	require.True(t, start >= 0 && end > start)

	var doc yamlio.Document
	require.NoError(t, yaml.Unmarshal([]byte(out[start+len("```yaml\n"):end]), &doc))
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, "Task title", doc.Tasks[0].Title)
}

func TestGenerateFromTask(t *testing.T) {
	task := model.Task{
		ID:          "1",
		Title:       "Move house",
		Description: "by end of month",
		Priority:    model.PriorityHigh,
		DueDate:     model.StringPtr("2026-10-31"),
	}
	siblings := []model.Task{
		task,
		{ID: "2", Title: "Book van"},
		{ID: "3", Title: "Cancel gym", Completed: true},
	}

	out := GenerateFromTask(task, siblings)
	assert.Contains(t, out, "- title: Move house")
	assert.Contains(t, out, "- description: by end of month")
	assert.Contains(t, out, "- due: 2026-10-31")
	assert.Contains(t, out, "- Book van")
	assert.NotContains(t, out, "Cancel gym")
	assert.NotContains(t, out, "- Move house")

	bare := GenerateFromTask(model.Task{ID: "9", Title: "Solo"}, nil)
	assert.NotContains(t, bare, "Other pending tasks")
	assert.NotContains(t, bare, "- due:")
}
