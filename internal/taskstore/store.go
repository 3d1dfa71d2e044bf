// Package taskstore owns the task collection. Store is the only mutator of
// task state; every mutation is written through to a Persister.
package taskstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nissyi-gh/taskmgr/internal/logging"
	"github.com/nissyi-gh/taskmgr/internal/model"
	"github.com/nissyi-gh/taskmgr/internal/notify"
	"github.com/nissyi-gh/taskmgr/internal/storage"
)

var (
	// ErrNoMatch is returned by Resolve when no task id starts with the reference.
	ErrNoMatch = errors.New("no task matches")

	// ErrAmbiguous is returned by Resolve when several task ids start with the reference.
	ErrAmbiguous = errors.New("task reference is ambiguous")
)

// Persister saves the full collection after each mutation.
type Persister interface {
	Save(tasks []model.Task) error
}

// Store holds the authoritative, newest-first task collection.
//
// The collection is copy-on-write: mutations build a new slice, so a slice
// returned by Tasks stays valid and unchanged for as long as the caller
// holds it. Store is not safe for concurrent use.
type Store struct {
	tasks   []model.Task
	persist Persister
	notify  notify.Emitter
	newID   func() string
	now     func() time.Time
	log     *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sends mutation feedback to e.
func WithNotifier(e notify.Emitter) Option {
	return func(s *Store) { s.notify = e }
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// WithLogger logs mutations to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a store seeded with initial. The slice is copied.
func New(p Persister, initial []model.Task, opts ...Option) *Store {
	s := &Store{
		tasks:   append([]model.Task(nil), initial...),
		persist: p,
		notify:  notify.Discard{},
		newID:   uuid.NewString,
		now:     time.Now,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store from the adapter's persisted collection.
func Open(a *storage.Adapter, opts ...Option) *Store {
	return New(a, a.Load(), opts...)
}

// Tasks returns the current collection. Callers must not modify it.
func (s *Store) Tasks() []model.Task {
	return s.tasks
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Get returns the task with id.
func (s *Store) Get(id string) (model.Task, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

// Create prepends a new pending task built from d and returns it.
func (s *Store) Create(d model.Draft) (model.Task, error) {
	t := model.Task{
		ID:          s.uniqueID(),
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Completed:   false,
		CreatedAt:   s.now(),
	}
	if d.DueDate != nil {
		due := *d.DueDate
		t.DueDate = &due
	}

	next := make([]model.Task, 0, len(s.tasks)+1)
	next = append(next, t)
	next = append(next, s.tasks...)

	s.log.Debug("create", "id", t.ID, "title", t.Title)
	if err := s.commit(next); err != nil {
		return t, err
	}
	s.notify.Notify("Task added successfully!", notify.Success)
	return t, nil
}

// Update applies p to the task with id. It reports false, and changes
// nothing, when no such task exists.
func (s *Store) Update(id string, p model.Patch) (bool, error) {
	found := false
	next := s.mapTasks(func(t model.Task) model.Task {
		if t.ID != id {
			return t
		}
		found = true
		return p.Apply(t)
	})

	s.log.Debug("update", "id", id, "found", found)
	if err := s.commit(next); err != nil {
		return found, err
	}
	if found {
		s.notify.Notify("Task updated successfully!", notify.Success)
	}
	return found, nil
}

// Delete removes the task with id. It reports whether the task existed.
func (s *Store) Delete(id string) (bool, error) {
	next := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	found := len(next) != len(s.tasks)

	s.log.Debug("delete", "id", id, "found", found)
	if err := s.commit(next); err != nil {
		return found, err
	}
	if found {
		s.notify.Notify("Task deleted successfully!", notify.Warning)
	}
	return found, nil
}

// Toggle flips the completed flag of the task with id. It reports whether
// the task existed.
func (s *Store) Toggle(id string) (bool, error) {
	var toggled *model.Task
	next := s.mapTasks(func(t model.Task) model.Task {
		if t.ID != id {
			return t
		}
		t.Completed = !t.Completed
		toggled = &t
		return t
	})

	s.log.Debug("toggle", "id", id, "found", toggled != nil)
	if err := s.commit(next); err != nil {
		return toggled != nil, err
	}
	if toggled == nil {
		return false, nil
	}
	if toggled.Completed {
		s.notify.Notify("Task completed!", notify.Success)
	} else {
		s.notify.Notify("Task marked as pending!", notify.Warning)
	}
	return true, nil
}

// ClearCompleted removes every completed task in one step and returns how
// many were removed. Nothing is written when there are none.
func (s *Store) ClearCompleted() (int, error) {
	next := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			next = append(next, t)
		}
	}
	removed := len(s.tasks) - len(next)
	if removed == 0 {
		return 0, nil
	}

	s.log.Debug("clear completed", "removed", removed)
	if err := s.commit(next); err != nil {
		return removed, err
	}
	s.notify.Notify(fmt.Sprintf("%d completed task(s) cleared!", removed), notify.Warning)
	return removed, nil
}

// Resolve maps a full id or a unique id prefix to a task id.
func (s *Store) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrNoMatch)
	}
	if s.indexOf(ref) >= 0 {
		return ref, nil
	}

	var matches []string
	for _, t := range s.tasks {
		if strings.HasPrefix(strings.ToLower(t.ID), strings.ToLower(ref)) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w %q", ErrNoMatch, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %d tasks", ErrAmbiguous, ref, len(matches))
	}
}

// ShortIDLength returns the shortest prefix length that keeps every id in
// the collection distinct, but never less than minLen.
func (s *Store) ShortIDLength(minLen int) int {
	length := minLen
	for i, a := range s.tasks {
		for _, b := range s.tasks[i+1:] {
			if n := commonPrefix(a.ID, b.ID) + 1; n > length {
				length = n
			}
		}
	}
	return length
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// commit swaps in the new collection and writes it through. The swap
// happens even when the write fails.
func (s *Store) commit(next []model.Task) error {
	s.tasks = next
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(next); err != nil {
		s.log.Error("persist tasks", "err", err)
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}

func (s *Store) mapTasks(fn func(model.Task) model.Task) []model.Task {
	next := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		next[i] = fn(t)
	}
	return next
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// uniqueID returns a generated id not already in the collection.
func (s *Store) uniqueID() string {
	id := s.newID()
	if s.indexOf(id) < 0 {
		return id
	}
	for n := 2; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if s.indexOf(candidate) < 0 {
			s.log.Warn("id generator collision", "id", id, "using", candidate)
			return candidate
		}
	}
}
