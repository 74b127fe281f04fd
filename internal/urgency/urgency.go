package urgency

import (
	"sort"
	"time"

	"dayflow/internal/calendar"
	"dayflow/internal/domain"
)

// EffectiveWeight grows a task's base weight as it becomes urgent. It drives
// presentation magnitude and is deliberately independent of SortScore.
//
// Overdue tasks grow linearly at 0.1/h past due. "Before" deadlines ramp
// multiplicatively as the due instant approaches: up to +50% inside 24h,
// up to +30% inside 72h. "On" tasks with a future due date get no early
// ramp. Tasks without a due date creep upward 0.05/h once older than a day.
func EffectiveWeight(t domain.Task, now time.Time) float64 {
	w := t.BaseWeight

	switch {
	case t.DueAt != nil && now.After(*t.DueAt):
		w += now.Sub(*t.DueAt).Hours() * 0.1

	case t.DueAt != nil && t.EffectiveSemantics() == domain.DueBefore:
		h := t.DueAt.Sub(now).Hours()
		if h <= 24 {
			w *= 1 + (24-h)/24*0.5
		} else if h <= 72 {
			w *= 1 + (72-h)/72*0.3
		}

	case t.DueAt == nil:
		if age := now.Sub(t.CreatedAt).Hours(); age > 24 {
			w += (age - 24) * 0.05
		}
	}
	return w
}

// SortScore orders tasks for display, higher first. Priority dominates at
// the 1000s scale; due-time pressure and age fill the 0..999 band between
// priorities, and prior-day overdue adds a full extra band so a stale
// priority-1 task can outrank a quiet priority-3 one.
func SortScore(t domain.Task, now time.Time) float64 {
	s := float64(t.Priority) * 1000

	if t.DueAt == nil {
		if age := now.Sub(t.CreatedAt).Hours(); age > 24 {
			bonus := (age - 24) * 2
			if bonus > 100 {
				bonus = 100
			}
			s += bonus
		}
		return s
	}

	due := t.DueAt.In(now.Location())
	switch {
	case calendar.SameDay(now, due):
		if now.Before(due) {
			if bonus := 500 - due.Sub(now).Hours()*20; bonus > 0 {
				s += bonus
			}
		} else {
			s += 500 + now.Sub(due).Hours()*100
		}

	case calendar.StartOfDay(due).Before(calendar.StartOfDay(now)):
		s += 1000 + now.Sub(due).Hours()*50

	default:
		if t.EffectiveSemantics() == domain.DueBefore {
			h := due.Sub(now).Hours()
			if h <= 24 {
				s += 200 + (24-h)*8
			} else if h <= 72 {
				s += (72 - h) * 2.8
			}
		}
	}
	return s
}

// Sort orders tasks by descending score, oldest first on ties.
func Sort(tasks []domain.Task, now time.Time) {
	sort.SliceStable(tasks, func(i, j int) bool {
		si, sj := SortScore(tasks[i], now), SortScore(tasks[j], now)
		if si != sj {
			return si > sj
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}
