package model

import "time"

// DateLayout is the format used for due dates.
const DateLayout = "2006-01-02"

// Task represents a single task in the collection.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	DueDate     *string   `json:"dueDate"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Draft holds the caller-supplied fields of a task about to be created.
type Draft struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     *string
}

// Patch names the fields an update replaces. Nil fields are left unchanged.
// Identity, creation time and completion are not patchable.
type Patch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	DueDate      *string
	ClearDueDate bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.DueDate == nil && !p.ClearDueDate
}

// Apply returns a copy of t with the patch applied.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	return t
}

// Due returns the due date or "" when unset.
func (t Task) Due() string {
	if t.DueDate == nil {
		return ""
	}
	return *t.DueDate
}

// IsDueOn returns true if the task is due on the calendar day of now.
func (t Task) IsDueOn(now time.Time) bool {
	return t.Due() != "" && t.Due() == now.Format(DateLayout)
}

// IsOverdueAt returns true if the task is not completed and its due date
// is before the calendar day of now.
func (t Task) IsOverdueAt(now time.Time) bool {
	if t.Due() == "" || t.Completed {
		return false
	}
	return t.Due() < now.Format(DateLayout)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
