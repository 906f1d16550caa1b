// Package query derives filtered, sorted views and aggregate counters
// from a task collection snapshot. Everything here is pure: no store
// access, no mutation of the input slice.
package query

import (
	"fmt"
	"sort"
	"strings"

	"vibelist-api/domain"
)

// Status filter values.
const (
	StatusAll    = "all"
	StatusActive = "active"
	StatusDone   = "done"
)

// Sort keys.
const (
	SortCreated  = "created"
	SortPriority = "priority"
	SortDue      = "due"
)

// FilterAll is the pass-through value for category and priority
// filters.
const FilterAll = "all"

// Spec describes one view over a task collection. Zero values mean no
// constraint: empty status/category/priority read as "all", empty sort
// as "created".
type Spec struct {
	Status   string
	Category string
	Priority string
	Search   string
	Sort     string
}

// Normalize fills zero values with their defaults and validates the
// recognized option sets.
func (s Spec) Normalize() (Spec, error) {
	if s.Status == "" {
		s.Status = StatusAll
	}
	if s.Category == "" {
		s.Category = FilterAll
	}
	if s.Priority == "" {
		s.Priority = FilterAll
	}
	if s.Sort == "" {
		s.Sort = SortCreated
	}
	switch s.Status {
	case StatusAll, StatusActive, StatusDone:
	default:
		return s, fmt.Errorf("unknown status filter %q", s.Status)
	}
	if s.Category != FilterAll && !domain.ValidCategory(s.Category) {
		return s, fmt.Errorf("unknown category filter %q", s.Category)
	}
	if s.Priority != FilterAll && !domain.ValidPriority(s.Priority) {
		return s, fmt.Errorf("unknown priority filter %q", s.Priority)
	}
	switch s.Sort {
	case SortCreated, SortPriority, SortDue:
	default:
		return s, fmt.Errorf("unknown sort key %q", s.Sort)
	}
	return s, nil
}

func (s Spec) matches(t domain.Task) bool {
	if s.Status == StatusActive && t.Done {
		return false
	}
	if s.Status == StatusDone && !t.Done {
		return false
	}
	if s.Category != FilterAll && t.Category != s.Category {
		return false
	}
	if s.Priority != FilterAll && t.Priority != s.Priority {
		return false
	}
	if s.Search != "" && !strings.Contains(strings.ToLower(t.Text), strings.ToLower(s.Search)) {
		return false
	}
	return true
}

// Apply produces the view for spec: tasks passing every active filter,
// in the order the sort key defines. The input slice is not modified.
// Spec must already be normalized; unrecognized values filter nothing
// and sort by creation time.
func Apply(tasks []domain.Task, spec Spec) []domain.Task {
	view := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if spec.matches(t) {
			view = append(view, t)
		}
	}

	switch spec.Sort {
	case SortPriority:
		sort.SliceStable(view, func(i, j int) bool {
			return domain.PriorityRank(view[i].Priority) < domain.PriorityRank(view[j].Priority)
		})
	case SortDue:
		// Tasks without a due date sort strictly last, keeping their
		// relative order.
		sort.SliceStable(view, func(i, j int) bool {
			if view[i].DueDate == "" {
				return false
			}
			if view[j].DueDate == "" {
				return true
			}
			return view[i].DueDate < view[j].DueDate
		})
	default:
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].CreatedAt > view[j].CreatedAt
		})
	}
	return view
}
