// Package view derives what the user sees from the task collection.
// Everything here is pure and cheap enough to recompute on every render.
package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/nissyi-gh/taskmgr/internal/model"
)

// Filter restricts the projection by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// Filters returns the filter modes in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterPending, FilterCompleted}
}

// ParseFilter normalizes s into a Filter.
func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FilterAll, FilterPending, FilterCompleted:
		return f, nil
	}
	return "", fmt.Errorf("invalid filter %q (want all, pending or completed)", s)
}

// Next cycles through Filters.
func (f Filter) Next() Filter {
	all := Filters()
	for i, known := range all {
		if f == known {
			return all[(i+1)%len(all)]
		}
	}
	return FilterAll
}

// Admits reports whether t passes the filter.
func (f Filter) Admits(t model.Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	default:
		return true
	}
}

// Matches reports whether term occurs in t's title or description,
// ignoring case. An empty term matches every task.
func Matches(t model.Task, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

// FilterAndSearch returns the tasks admitted by filter and matching term,
// in input order. The input slice is not modified.
func FilterAndSearch(tasks []model.Task, filter Filter, term string) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Admits(t) && Matches(t, term) {
			out = append(out, t)
		}
	}
	return out
}

// Summary holds the aggregate counts shown above the list.
type Summary struct {
	Total                int `json:"total"`
	Completed            int `json:"completed"`
	Pending              int `json:"pending"`
	CompletionPercentage int `json:"completionPercentage"`
}

// Stats counts tasks. CompletionPercentage is completed/total rounded to a
// whole percent, and 0 for an empty collection.
func Stats(tasks []model.Task) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionPercentage = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}
