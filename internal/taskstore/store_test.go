package taskstore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nissyi-gh/taskmgr/internal/model"
	"github.com/nissyi-gh/taskmgr/internal/notify"
	"github.com/nissyi-gh/taskmgr/internal/storage"
	"github.com/nissyi-gh/taskmgr/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPersister keeps every saved collection.
type recordingPersister struct {
	saves [][]model.Task
	err   error
}

func (r *recordingPersister) Save(tasks []model.Task) error {
	r.saves = append(r.saves, tasks)
	return r.err
}

func (r *recordingPersister) last() []model.Task {
	if len(r.saves) == 0 {
		return nil
	}
	return r.saves[len(r.saves)-1]
}

// recordingEmitter keeps every notification.
type recordingEmitter struct {
	messages   []string
	severities []notify.Severity
}

func (r *recordingEmitter) Notify(message string, severity notify.Severity) {
	r.messages = append(r.messages, message)
	r.severities = append(r.severities, severity)
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

func newTestStore(t *testing.T, initial []model.Task) (*Store, *recordingPersister, *recordingEmitter) {
	t.Helper()
	p := &recordingPersister{}
	e := &recordingEmitter{}
	return New(p, initial, WithNotifier(e), WithClock(fixedClock())), p, e
}

func mustCreate(t *testing.T, s *Store, title string) model.Task {
	t.Helper()
	task, err := s.Create(model.Draft{Title: title, Priority: model.PriorityMedium})
	require.NoError(t, err)
	return task
}

func TestCreate(t *testing.T) {
	s, p, e := newTestStore(t, nil)

	first := mustCreate(t, s, "first")
	second, err := s.Create(model.Draft{
		Title:       "second",
		Description: "details",
		Priority:    model.PriorityHigh,
		DueDate:     model.StringPtr("2026-10-20"),
	})
	require.NoError(t, err)

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID, "newest first")
	assert.Equal(t, first.ID, tasks[1].ID)
	assert.False(t, tasks[0].Completed)
	assert.Equal(t, "details", tasks[0].Description)
	assert.Equal(t, "2026-10-20", tasks[0].Due())
	assert.True(t, tasks[0].CreatedAt.After(tasks[1].CreatedAt))

	assert.Len(t, p.saves, 2)
	assert.Equal(t, tasks, p.last())
	assert.Equal(t, []string{"Task added successfully!", "Task added successfully!"}, e.messages)
}

func TestCreateIDsAreUnique(t *testing.T) {
	s, _, _ := newTestStore(t, nil)

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		task := mustCreate(t, s, fmt.Sprintf("task %d", i))
		require.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestCreateSurvivesGeneratorCollisions(t *testing.T) {
	p := &recordingPersister{}
	s := New(p, nil, WithIDGenerator(func() string { return "1760781600000" }))

	a := mustCreate(t, s, "a")
	b := mustCreate(t, s, "b")
	c := mustCreate(t, s, "c")

	assert.Equal(t, "1760781600000", a.ID)
	assert.Equal(t, "1760781600000-2", b.ID)
	assert.Equal(t, "1760781600000-3", c.ID)
}

func TestCreateCopiesDueDate(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	due := "2026-10-20"
	task, err := s.Create(model.Draft{Title: "x", DueDate: &due})
	require.NoError(t, err)

	due = "2030-01-01"
	got, _ := s.Get(task.ID)
	assert.Equal(t, "2026-10-20", got.Due())
}

func TestUpdate(t *testing.T) {
	s, p, e := newTestStore(t, nil)
	a := mustCreate(t, s, "a")
	b := mustCreate(t, s, "b")
	before := s.Tasks()

	found, err := s.Update(a.ID, model.Patch{Title: model.StringPtr("X")})
	require.NoError(t, err)
	assert.True(t, found)

	got, ok := s.Get(a.ID)
	require.True(t, ok)
	want := a
	want.Title = "X"
	assert.Equal(t, want, got, "only the title changes")

	other, _ := s.Get(b.ID)
	assert.Equal(t, b, other, "other records unchanged")

	assert.Equal(t, "a", before[1].Title, "earlier snapshot is not modified")
	assert.Equal(t, s.Tasks(), p.last())
	assert.Equal(t, "Task updated successfully!", e.messages[len(e.messages)-1])
}

func TestUpdateMissingIsNoop(t *testing.T) {
	s, p, e := newTestStore(t, nil)
	mustCreate(t, s, "a")
	before := s.Tasks()
	saves, msgs := len(p.saves), len(e.messages)

	found, err := s.Update("nope", model.Patch{Title: model.StringPtr("X")})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, before, s.Tasks())
	assert.Len(t, p.saves, saves+1, "the collection is still written through")
	assert.Len(t, e.messages, msgs, "no feedback for a missing task")
}

func TestToggle(t *testing.T) {
	s, _, e := newTestStore(t, nil)
	a := mustCreate(t, s, "a")

	found, err := s.Toggle(a.ID)
	require.NoError(t, err)
	assert.True(t, found)
	got, _ := s.Get(a.ID)
	assert.True(t, got.Completed)
	assert.Equal(t, "Task completed!", e.messages[len(e.messages)-1])
	assert.Equal(t, notify.Success, e.severities[len(e.severities)-1])

	_, err = s.Toggle(a.ID)
	require.NoError(t, err)
	got, _ = s.Get(a.ID)
	assert.False(t, got.Completed, "toggling twice restores the flag")
	assert.Equal(t, "Task marked as pending!", e.messages[len(e.messages)-1])
	assert.Equal(t, notify.Warning, e.severities[len(e.severities)-1])

	found, err = s.Toggle("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	s, p, e := newTestStore(t, nil)
	a := mustCreate(t, s, "a")
	b := mustCreate(t, s, "b")
	before := s.Tasks()

	found, err := s.Delete(a.ID)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, s.Tasks(), 1)
	assert.Equal(t, b.ID, s.Tasks()[0].ID)
	assert.Len(t, before, 2, "earlier snapshot keeps both tasks")
	assert.Equal(t, s.Tasks(), p.last())
	assert.Equal(t, "Task deleted successfully!", e.messages[len(e.messages)-1])
	assert.Equal(t, notify.Warning, e.severities[len(e.severities)-1])

	found, err = s.Delete(a.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Len(t, s.Tasks(), 1)
}

func TestClearCompleted(t *testing.T) {
	s, p, e := newTestStore(t, nil)
	var completed []string
	for i := 0; i < 7; i++ {
		task := mustCreate(t, s, fmt.Sprintf("task %d", i))
		if i%2 == 0 {
			_, err := s.Toggle(task.ID)
			require.NoError(t, err)
			completed = append(completed, task.ID)
		}
	}
	require.Len(t, completed, 4)

	removed, err := s.ClearCompleted()
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	require.Len(t, s.Tasks(), 3)
	for _, task := range s.Tasks() {
		assert.False(t, task.Completed)
	}
	assert.Equal(t, "4 completed task(s) cleared!", e.messages[len(e.messages)-1])

	saves, msgs := len(p.saves), len(e.messages)
	removed, err = s.ClearCompleted()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Len(t, p.saves, saves, "nothing written when nothing was cleared")
	assert.Len(t, e.messages, msgs)
}

func TestPersistFailureStillMutates(t *testing.T) {
	p := &recordingPersister{err: errors.New("quota exceeded")}
	s := New(p, nil)

	task, err := s.Create(model.Draft{Title: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	got, ok := s.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, "a", got.Title)
}

func TestResolve(t *testing.T) {
	s := New(nil, []model.Task{
		{ID: "abc123"},
		{ID: "abd456"},
		{ID: "x"},
	})

	id, err := s.Resolve("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	id, err = s.Resolve("X")
	require.NoError(t, err)
	assert.Equal(t, "x", id)

	_, err = s.Resolve("ab")
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = s.Resolve("zzz")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = s.Resolve("  ")
	assert.ErrorIs(t, err, ErrNoMatch)

	assert.Equal(t, 3, s.ShortIDLength(1))
	assert.Equal(t, 8, s.ShortIDLength(8))
}

func TestOpenLoadsFromAdapter(t *testing.T) {
	kv := storage.NewMemory()
	adapter := storage.NewAdapter(kv, "k", nil)

	s := Open(adapter, WithClock(fixedClock()))
	task := mustCreate(t, s, "persisted")
	_, err := s.Toggle(task.ID)
	require.NoError(t, err)

	reopened := Open(adapter)
	assert.Equal(t, s.Tasks(), reopened.Tasks())
}

func TestBuyMilkScenario(t *testing.T) {
	s, _, _ := newTestStore(t, nil)

	task, err := s.Create(model.Draft{Title: "Buy milk", Description: "", Priority: model.PriorityLow, DueDate: nil})
	require.NoError(t, err)
	require.Len(t, s.Tasks(), 1)
	assert.False(t, s.Tasks()[0].Completed)

	_, err = s.Toggle(task.ID)
	require.NoError(t, err)
	assert.True(t, s.Tasks()[0].Completed)

	assert.Equal(t, view.Summary{Total: 1, Completed: 1, Pending: 0, CompletionPercentage: 100}, view.Stats(s.Tasks()))
}
