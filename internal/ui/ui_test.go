package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nissyi-gh/taskmgr/internal/model"
	"github.com/nissyi-gh/taskmgr/internal/notify"
	"github.com/nissyi-gh/taskmgr/internal/taskstore"
	"github.com/nissyi-gh/taskmgr/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

type harness struct {
	m       Model
	store   *taskstore.Store
	center  *notify.Center
	copied  []string
	copyErr error
}

func newHarness(t *testing.T, initial []model.Task) *harness {
	t.Helper()
	h := &harness{center: notify.NewCenter(time.Second)}
	n := 0
	h.store = taskstore.New(nil, initial,
		taskstore.WithNotifier(h.center),
		taskstore.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		taskstore.WithClock(func() time.Time { return testNow }),
	)
	h.m = NewModel(h.store, h.center, Options{
		Clipboard: func(s string) error {
			h.copied = append(h.copied, s)
			return h.copyErr
		},
		Now: func() time.Time { return testNow },
	})
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	return h.send(tea.KeyMsg{Type: k})
}

func seed() []model.Task {
	return []model.Task{
		{ID: "b", Title: "Walk dog", Priority: model.PriorityLow, CreatedAt: testNow},
		{ID: "a", Title: "Buy milk", Description: "2 liters", Priority: model.PriorityHigh, Completed: true, CreatedAt: testNow},
	}
}

func TestAddTask(t *testing.T) {
	h := newHarness(t, nil)

	h.typeText("a")
	require.Equal(t, stateForm, h.m.state)

	h.typeText("Buy milk")
	cmd := h.press(tea.KeyEnter)

	assert.Equal(t, stateList, h.m.state)
	require.Equal(t, 1, h.store.Len())
	task := h.store.Tasks()[0]
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Nil(t, task.DueDate)
	assert.NotNil(t, cmd)

	n, ok := h.center.Current()
	require.True(t, ok)
	assert.Equal(t, "Task added successfully!", n.Message)
	assert.Contains(t, h.m.View(), "Task added successfully!")
}

func TestAddRequiresTitle(t *testing.T) {
	h := newHarness(t, nil)

	h.typeText("a")
	h.typeText("   ")
	h.press(tea.KeyEnter)

	assert.Equal(t, stateForm, h.m.state)
	assert.Zero(t, h.store.Len())
	require.Error(t, h.m.err)
	assert.Contains(t, h.m.View(), "title is required")

	h.press(tea.KeyEsc)
	assert.Equal(t, stateList, h.m.state)
}

func TestAddWithPriorityAndDueDate(t *testing.T) {
	h := newHarness(t, nil)

	h.typeText("a")
	h.typeText("Pay rent")
	h.press(tea.KeyTab) // description
	h.press(tea.KeyTab) // priority
	h.press(tea.KeySpace)
	h.press(tea.KeyTab) // due year
	h.press(tea.KeyTab) // due month
	h.typeText("11")
	h.press(tea.KeyTab) // due day
	h.typeText("1")
	h.send(tea.KeyMsg{Type: tea.KeyCtrlS})

	require.Equal(t, 1, h.store.Len())
	task := h.store.Tasks()[0]
	assert.Equal(t, model.PriorityHigh, task.Priority)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-11-01", *task.DueDate)
}

func TestEditTask(t *testing.T) {
	h := newHarness(t, seed())

	h.typeText("e")
	require.Equal(t, stateForm, h.m.state)
	assert.Equal(t, "b", h.m.form.editID)

	h.typeText(" twice")
	h.press(tea.KeyEnter)

	task, ok := h.store.Get("b")
	require.True(t, ok)
	assert.Equal(t, "Walk dog twice", task.Title)
	assert.Equal(t, model.PriorityLow, task.Priority)
	assert.Equal(t, 2, h.store.Len())

	n, _ := h.center.Current()
	assert.Equal(t, "Task updated successfully!", n.Message)
}

func TestToggleTask(t *testing.T) {
	h := newHarness(t, seed())

	h.typeText("x")
	task, _ := h.store.Get("b")
	assert.True(t, task.Completed)
	n, _ := h.center.Current()
	assert.Equal(t, notify.Success, n.Severity)

	h.press(tea.KeyEnter)
	task, _ = h.store.Get("b")
	assert.False(t, task.Completed)
	n, _ = h.center.Current()
	assert.Equal(t, "Task marked as pending!", n.Message)
	assert.Equal(t, notify.Warning, n.Severity)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, seed())

	h.typeText("d")
	assert.Equal(t, stateConfirmDelete, h.m.state)
	assert.Contains(t, h.m.View(), "Walk dog")

	h.typeText("n")
	assert.Equal(t, stateList, h.m.state)
	assert.Equal(t, 2, h.store.Len())

	h.typeText("d")
	h.typeText("y")
	assert.Equal(t, 1, h.store.Len())
	_, ok := h.store.Get("b")
	assert.False(t, ok)
}

func TestClearCompleted(t *testing.T) {
	h := newHarness(t, seed())

	h.typeText("C")
	require.Equal(t, stateConfirmClear, h.m.state)
	assert.Contains(t, h.m.View(), "1 completed task(s) will be removed")

	h.typeText("y")
	assert.Equal(t, 1, h.store.Len())
	n, _ := h.center.Current()
	assert.Equal(t, "1 completed task(s) cleared!", n.Message)

	// nothing left to clear
	h.typeText("C")
	assert.Equal(t, stateList, h.m.state)
}

func TestFilterKeys(t *testing.T) {
	h := newHarness(t, seed())

	h.typeText("2")
	assert.Equal(t, view.FilterPending, h.m.filter)
	assert.Equal(t, 1, h.m.shown)

	h.typeText("3")
	assert.Equal(t, view.FilterCompleted, h.m.filter)
	item, ok := h.m.selected()
	require.True(t, ok)
	assert.Equal(t, "a", item.Task.ID)

	h.press(tea.KeyTab)
	assert.Equal(t, view.FilterAll, h.m.filter)
	assert.Equal(t, 2, h.m.shown)
}

func TestSearch(t *testing.T) {
	h := newHarness(t, seed())

	h.typeText("/")
	require.Equal(t, stateSearch, h.m.state)
	h.typeText("LITERS")
	assert.Equal(t, "LITERS", h.m.term)
	assert.Equal(t, 1, h.m.shown)

	h.press(tea.KeyEnter)
	assert.Equal(t, stateList, h.m.state)
	assert.Equal(t, "LITERS", h.m.term)

	h.typeText("/")
	h.press(tea.KeyEsc)
	assert.Empty(t, h.m.term)
	assert.Equal(t, 2, h.m.shown)
}

func TestEmptyProjection(t *testing.T) {
	h := newHarness(t, seed())

	h.typeText("/")
	h.typeText("nothing like this")
	h.press(tea.KeyEnter)

	out := h.m.View()
	assert.Contains(t, out, "No tasks found")
	assert.Contains(t, out, "Try adjusting your search or filter criteria")
}

func TestCopyToClipboard(t *testing.T) {
	h := newHarness(t, seed())

	h.typeText("y")
	require.Len(t, h.copied, 1)
	assert.Equal(t, "Walk dog", h.copied[0])

	h.typeText("p")
	require.Len(t, h.copied, 2)
	assert.Contains(t, h.copied[1], "- title: Walk dog")

	h.copyErr = errors.New("no clipboard")
	h.typeText("P")
	require.Len(t, h.copied, 3)
	assert.EqualError(t, h.m.err, "no clipboard")
}

func TestNotificationExpires(t *testing.T) {
	h := newHarness(t, seed())

	h.typeText("x")
	first, ok := h.center.Current()
	require.True(t, ok)

	h.typeText("x")
	h.send(expireMsg(first.Seq))
	_, ok = h.center.Current()
	assert.True(t, ok, "stale expiry must not clear a newer notification")

	h.send(expireMsg(h.center.Seq()))
	_, ok = h.center.Current()
	assert.False(t, ok)
}

func TestHeaderStats(t *testing.T) {
	h := newHarness(t, seed())
	out := h.m.View()
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "Walk dog")
}

func TestViewFitsWindow(t *testing.T) {
	h := newHarness(t, nil)
	assert.LessOrEqual(t, lipgloss.Height(h.m.View()), 40)

	// the first task adds the progress bar and a toast
	h.typeText("a")
	h.typeText("Buy milk")
	h.press(tea.KeyEnter)
	_, ok := h.center.Current()
	require.True(t, ok)
	assert.LessOrEqual(t, lipgloss.Height(h.m.View()), 40)

	h.copyErr = errors.New("no clipboard")
	h.typeText("y")
	require.Error(t, h.m.err)
	assert.LessOrEqual(t, lipgloss.Height(h.m.View()), 40)

	h.send(expireMsg(h.center.Seq()))
	assert.LessOrEqual(t, lipgloss.Height(h.m.View()), 40)
}

func TestViewFitsShortWindowWithLongDescription(t *testing.T) {
	tasks := []model.Task{{
		ID:          "a",
		Title:       "Write report",
		Description: strings.Repeat("another paragraph\n", 60),
		CreatedAt:   testNow,
	}}
	h := newHarness(t, tasks)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 20})

	h.typeText("x")
	assert.LessOrEqual(t, lipgloss.Height(h.m.View()), 20)
}
