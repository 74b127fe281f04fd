package schedule

import (
	"fmt"
	"time"

	"dayflow/internal/calendar"
	"dayflow/internal/domain"
)

// DefaultFirstDay is the product's week convention. It is still passed
// explicitly everywhere so the resolver stays free of ambient state.
const DefaultFirstDay = time.Monday

// NextOccurrence computes the next occurrence date for a recurrence rule,
// as midnight in from's location. The result is always strictly later than
// from's calendar day; a rule never re-fires on the day it was resolved
// from. Rules must have passed domain validation — an unknown shape here is
// a programming error and panics rather than guessing a date.
func NextOccurrence(r domain.Recurrence, from time.Time, firstDay time.Weekday) time.Time {
	day := calendar.StartOfDay(from)

	switch r.Freq {
	case domain.FreqDaily:
		return day.AddDate(0, 0, 1)
	case domain.FreqWeekly:
		return nextWeekly(r, day, firstDay)
	case domain.FreqMonthly:
		return nextMonthly(*r.Monthly, day)
	}
	panic(fmt.Sprintf("schedule: unhandled frequency %q", r.Freq))
}

func nextWeekly(r domain.Recurrence, day time.Time, firstDay time.Weekday) time.Time {
	if len(r.Weekdays) > 0 {
		wanted := make(map[time.Weekday]bool, len(r.Weekdays))
		for _, d := range r.Weekdays {
			wanted[d.Time()] = true
		}
		for i := 1; i <= 8; i++ {
			c := day.AddDate(0, 0, i)
			if wanted[c.Weekday()] {
				return c
			}
		}
		// Unreachable for a non-empty set of weekdays; kept so a bad set
		// degrades to a weekly cadence instead of looping.
		return day.AddDate(0, 0, 7)
	}

	if r.TimesPerWeek > 1 {
		c := day.AddDate(0, 0, 7/r.TimesPerWeek)
		if c.Weekday() == lastDayOfWeek(firstDay) {
			// Keep evenly spaced slots from spilling into the next week's
			// tail day; roll onto the following week's first day instead.
			c = c.AddDate(0, 0, 1)
		}
		return c
	}

	// Once a week: the next first-day-of-week strictly after from.
	for i := 1; i <= 8; i++ {
		c := day.AddDate(0, 0, i)
		if c.Weekday() == firstDay {
			return c
		}
	}
	return day.AddDate(0, 0, 7)
}

func lastDayOfWeek(firstDay time.Weekday) time.Weekday {
	return (firstDay + 6) % 7
}

func nextMonthly(m domain.MonthlyRule, day time.Time) time.Time {
	loc := day.Location()

	switch m.Mode {
	case domain.MonthlyTimes:
		if m.Count == 1 {
			y, mo := monthAfter(day)
			return time.Date(y, mo, 1, 0, 0, 0, 0, loc)
		}
		c := day.AddDate(0, 0, 30/m.Count)
		if c.Month() != day.Month() || c.Year() != day.Year() {
			// The legacy spacing is approximate by design; crossing a month
			// boundary resets the slot to the 1st rather than spacing evenly.
			return time.Date(c.Year(), c.Month(), 1, 0, 0, 0, 0, loc)
		}
		return c

	case domain.MonthlyDay:
		if m.Day == 0 {
			last := calendar.LastDayOfMonth(day.Year(), day.Month())
			if last > day.Day() {
				return time.Date(day.Year(), day.Month(), last, 0, 0, 0, 0, loc)
			}
			y, mo := monthAfter(day)
			return time.Date(y, mo, calendar.LastDayOfMonth(y, mo), 0, 0, 0, 0, loc)
		}
		cur := clampDay(m.Day, day.Year(), day.Month())
		if cur > day.Day() {
			return time.Date(day.Year(), day.Month(), cur, 0, 0, 0, 0, loc)
		}
		y, mo := monthAfter(day)
		return time.Date(y, mo, clampDay(m.Day, y, mo), 0, 0, 0, 0, loc)

	case domain.MonthlyNthWeekday:
		if hit, ok := calendar.NthWeekdayOfMonth(day.Year(), day.Month(), m.Week, m.Weekday, loc); ok && hit.After(day) {
			return hit
		}
		y, mo := monthAfter(day)
		hit, ok := calendar.NthWeekdayOfMonth(y, mo, m.Week, m.Weekday, loc)
		if !ok {
			panic(fmt.Sprintf("schedule: no weekday %v in %v %d", m.Weekday, mo, y))
		}
		return hit
	}
	panic(fmt.Sprintf("schedule: unhandled monthly mode %q", m.Mode))
}

func monthAfter(day time.Time) (int, time.Month) {
	n := time.Date(day.Year(), day.Month()+1, 1, 0, 0, 0, 0, day.Location())
	return n.Year(), n.Month()
}

func clampDay(d, year int, month time.Month) int {
	if last := calendar.LastDayOfMonth(year, month); d > last {
		return last
	}
	return d
}

// Spawn builds the successor instance for a completed recurring task. The
// successor copies title, priority, effort and rule, resets the urgency
// seed, and is due on the next occurrence after now. Recurring tasks keep
// "on" semantics; the stored mode rides along untouched. The caller owns
// persisting the result atomically with the completion.
func Spawn(t domain.Task, now time.Time, firstDay time.Weekday) domain.Task {
	next := NextOccurrence(*t.Recurrence, now, firstDay)
	if t.DueAt != nil {
		// Keep the predecessor's clock time on the new occurrence day.
		d := t.DueAt.In(next.Location())
		next = time.Date(next.Year(), next.Month(), next.Day(),
			d.Hour(), d.Minute(), d.Second(), 0, next.Location())
	}

	rule := *t.Recurrence
	return domain.Task{
		Title:       t.Title,
		Priority:    t.Priority,
		BaseWeight:  1.0,
		Effort:      t.Effort,
		DueAt:       &next,
		DueMode:     t.DueMode,
		Recurring:   true,
		Recurrence:  &rule,
		CreatedAt:   now,
		SpawnedFrom: t.ID,
	}
}
