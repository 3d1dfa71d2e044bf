package model

import (
	"fmt"
	"strings"
)

// Priority is the urgency label of a task. The store treats it as opaque;
// only input surfaces validate it.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities returns the known priorities, lowest first.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// IsValid returns true if the priority is a known value.
func (p Priority) IsValid() bool {
	for _, known := range Priorities() {
		if p == known {
			return true
		}
	}
	return false
}

// Next cycles to the following priority, wrapping after high.
func (p Priority) Next() Priority {
	all := Priorities()
	for i, known := range all {
		if p == known {
			return all[(i+1)%len(all)]
		}
	}
	return PriorityLow
}

// ParsePriority normalizes s into a known priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority %q (want low, medium or high)", s)
	}
	return p, nil
}
