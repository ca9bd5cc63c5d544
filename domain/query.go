package domain

import (
	"sort"
	"strings"
	"time"
)

// FilterSpec is the set of simultaneously applied, independently optional
// criteria. Zero values mean "no filter", as does the literal "all" and any
// unrecognized enum value, so resetting filters degrades gracefully instead
// of failing.
type FilterSpec struct {
	SearchTerm string
	CategoryID int
	Priority   string
	Status     string
	DueBucket  string
}

// StatusCompleted and StatusPending are the recognized Status filter values.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
)

// TaskView pairs a task with its resolved category for rendering. Category
// is nil when the task is uncategorized or references a deleted category.
type TaskView struct {
	Task
	Category *Category `json:"category,omitempty"`
}

// Query filters tasks by spec, sorts them for display and resolves category
// references. It never mutates its inputs and is deterministic given now.
func Query(tasks []Task, categories []Category, spec FilterSpec, now time.Time) []TaskView {
	filtered := Filter(tasks, spec, now)
	SortForDisplay(filtered)

	byID := make(map[int]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	views := make([]TaskView, 0, len(filtered))
	for _, t := range filtered {
		v := TaskView{Task: t}
		if c, ok := byID[t.CategoryID]; ok {
			cc := c
			v.Category = &cc
		}
		views = append(views, v)
	}
	return views
}

// Filter returns the tasks matching every supplied criterion. The input
// slice is left untouched.
func Filter(tasks []Task, spec FilterSpec, now time.Time) []Task {
	search := strings.ToLower(strings.TrimSpace(spec.SearchTerm))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		if spec.CategoryID != 0 && t.CategoryID != spec.CategoryID {
			continue
		}
		if !matchesPriority(t, spec.Priority) {
			continue
		}
		if !matchesStatus(t, spec.Status) {
			continue
		}
		if !matchesDue(t, spec.DueBucket, now) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesPriority(t Task, want string) bool {
	switch p := Priority(want); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return t.Priority == p
	default:
		return true
	}
}

func matchesStatus(t Task, want string) bool {
	switch want {
	case StatusCompleted:
		return t.Completed
	case StatusPending:
		return !t.Completed
	default:
		return true
	}
}

// matchesDue implements the due-date filter. thisWeek is a range check over
// the week window, so a task due today also matches it. overdue never shows
// completed tasks.
func matchesDue(t Task, want string, now time.Time) bool {
	switch want {
	case string(BucketToday), string(BucketTomorrow):
		return BucketOf(t.DueDate, now) == Bucket(want)
	case string(BucketOverdue):
		return !t.Completed && BucketOf(t.DueDate, now) == BucketOverdue
	case string(BucketThisWeek):
		if t.DueDate == nil {
			return false
		}
		weekStart, weekEnd := weekWindow(now)
		return !t.DueDate.Before(weekStart) && t.DueDate.Before(weekEnd)
	case FilterNoDueDate:
		return t.DueDate == nil
	default:
		return true
	}
}

// SortForDisplay orders tasks by manual order ascending, breaking ties with
// the most recently created first. The sort is stable.
func SortForDisplay(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// Stats summarizes a filtered task list for the header counters.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// StatsOf counts completion and overdue figures over the given views.
func StatsOf(views []TaskView, now time.Time) Stats {
	s := Stats{Total: len(views)}
	for _, v := range views {
		if v.Completed {
			s.Completed++
			continue
		}
		s.Pending++
		if BucketOf(v.DueDate, now) == BucketOverdue {
			s.Overdue++
		}
	}
	return s
}
