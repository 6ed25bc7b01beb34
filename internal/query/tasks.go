package query

import (
	"cmp"
	"slices"
	"time"

	"lifeboard/internal/core"
)

// DefaultZombieThresholdDays is how long an undated task may stay open.
const DefaultZombieThresholdDays = 7

// TaskFilter selects tasks by completion state.
type TaskFilter string

const (
	TasksAll       TaskFilter = "all"
	TasksCompleted TaskFilter = "completed"
	TasksPending   TaskFilter = "pending"
)

// ParseTaskFilter maps a name onto a TaskFilter; blank input means TasksAll.
func ParseTaskFilter(s string) (TaskFilter, error) {
	return parseEnum("task filter", s, TasksAll, TasksAll, TasksCompleted, TasksPending)
}

// TaskSort names a task ordering.
type TaskSort string

const (
	TasksNewest     TaskSort = "newest"
	TasksOldest     TaskSort = "oldest"
	TasksByTitle    TaskSort = "title"
	TasksByPriority TaskSort = "priority"
	TasksByDueDate  TaskSort = "due-date"
)

// ParseTaskSort maps a name onto a TaskSort; blank input means TasksNewest.
func ParseTaskSort(s string) (TaskSort, error) {
	return parseEnum("task sort", s, TasksNewest, TasksNewest, TasksOldest, TasksByTitle, TasksByPriority, TasksByDueDate)
}

// TaskQuery holds every active task predicate. Zero fields select everything.
type TaskQuery struct {
	Filter  TaskFilter
	Search  string
	Project string
}

// FilterTasks returns the tasks matching every predicate of q, in input order.
func FilterTasks(tasks []core.Task, q TaskQuery) []core.Task {
	out := make([]core.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchTaskFilter(t, q.Filter) &&
			matchesSearch(q.Search, t.Title, t.Description) &&
			(q.Project == "" || t.Project == q.Project) {
			out = append(out, t)
		}
	}
	return out
}

func matchTaskFilter(t core.Task, f TaskFilter) bool {
	switch f {
	case TasksAll, "":
		return true
	case TasksCompleted:
		return t.Completed
	case TasksPending:
		return !t.Completed
	default:
		return false
	}
}

// SortTasks returns a stably sorted copy of tasks. Unknown keys keep input order.
func SortTasks(tasks []core.Task, key TaskSort) []core.Task {
	out := slices.Clone(tasks)
	var order func(a, b core.Task) int
	switch key {
	case TasksNewest:
		order = func(a, b core.Task) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case TasksOldest:
		order = func(a, b core.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case TasksByTitle:
		compare := newTextComparer()
		order = func(a, b core.Task) int { return compare(a.Title, b.Title) }
	case TasksByPriority:
		order = func(a, b core.Task) int { return cmp.Compare(b.Priority.Rank(), a.Priority.Rank()) }
	case TasksByDueDate:
		order = func(a, b core.Task) int { return compareOptionalTime(a.DueDate, b.DueDate) }
	default:
		return out
	}
	slices.SortStableFunc(out, order)
	return out
}

// compareOptionalTime orders ascending with nil values last.
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

// TaskStats summarizes a task collection.
type TaskStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	HighPriority   int     `json:"high_priority"`
	CompletionRate float64 `json:"completion_rate"`
}

// SummarizeTasks counts tasks by state. Overdue and high priority only count
// incomplete tasks; overdue means the due date is before now.
func SummarizeTasks(tasks []core.Task, now time.Time) TaskStats {
	var s TaskStats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
			continue
		}
		s.Pending++
		if t.DueDate != nil && t.DueDate.Before(now) {
			s.Overdue++
		}
		if t.Priority == core.PriorityHigh {
			s.HighPriority++
		}
	}
	s.CompletionRate = percent(int64(s.Completed), int64(s.Total))
	return s
}

// IsZombie reports whether an incomplete task has stagnated: its due date has
// fully passed, or, without a due date, it was created more than thresholdDays
// ago. A non-positive threshold means DefaultZombieThresholdDays.
func IsZombie(t core.Task, now time.Time, thresholdDays int) bool {
	if t.Completed {
		return false
	}
	if thresholdDays <= 0 {
		thresholdDays = DefaultZombieThresholdDays
	}
	if t.DueDate != nil {
		return now.After(EndOfDay(t.DueDate.In(now.Location())))
	}
	if t.CreatedAt.IsZero() {
		return false
	}
	return t.CreatedAt.Before(now.AddDate(0, 0, -thresholdDays))
}

// ZombieTasks returns the zombie tasks of tasks, in input order.
func ZombieTasks(tasks []core.Task, now time.Time, thresholdDays int) []core.Task {
	out := make([]core.Task, 0)
	for _, t := range tasks {
		if IsZombie(t, now, thresholdDays) {
			out = append(out, t)
		}
	}
	return out
}
