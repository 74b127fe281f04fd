package visibility

import (
	"time"

	"dayflow/internal/calendar"
	"dayflow/internal/domain"
)

// State is the time-derived lifecycle position of a task. All transitions
// except Completed are pure functions of the clock; Completed is an
// explicit caller action, and undoing it simply re-derives the state from
// the current time.
type State string

const (
	StatePending   State = "pending"
	StateDueWindow State = "due_window"
	StateOverdue   State = "overdue" // "on" tasks only, terminal until completed
	StateExpired   State = "expired" // "before" tasks only, past their deadline day
	StateCompleted State = "completed"
)

// StateAt derives the state at an instant. Tasks with no due date have no
// due window and sit in Pending until completed.
func StateAt(t domain.Task, now time.Time) State {
	if t.Completed {
		return StateCompleted
	}
	if t.DueAt == nil {
		return StatePending
	}

	dayStart := calendar.StartOfDay(t.DueAt.In(now.Location()))
	dayEnd := dayStart.AddDate(0, 0, 1)
	switch {
	case now.Before(dayStart):
		return StatePending
	case now.Before(dayEnd):
		return StateDueWindow
	case t.EffectiveSemantics() == domain.DueBefore:
		return StateExpired
	default:
		return StateOverdue
	}
}

// ShouldShowToday decides membership in the "today" working set. Completed
// tasks never show; tasks without a due date always show. "On" tasks appear
// on their due day and stay visible while overdue; "before" tasks appear
// from creation and drop off after their deadline day ends.
func ShouldShowToday(t domain.Task, now time.Time) bool {
	switch StateAt(t, now) {
	case StateCompleted:
		return false
	case StateExpired:
		return false
	case StateOverdue, StateDueWindow:
		return true
	}

	// Pending.
	if t.DueAt == nil {
		return true
	}
	return t.EffectiveSemantics() == domain.DueBefore
}

// VisibleToday filters to the tasks ShouldShowToday admits, preserving
// order.
func VisibleToday(tasks []domain.Task, now time.Time) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if ShouldShowToday(t, now) {
			out = append(out, t)
		}
	}
	return out
}
