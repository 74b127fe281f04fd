package calendar

import (
	"time"

	"dayflow/internal/domain"
)

// LastDayOfMonth returns the number of days in the given month, accounting
// for leap years. time.Date normalizes day 0 to the last day of the
// preceding month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NthWeekdayOfMonth returns the date of the week-th occurrence of the
// weekday within the month, at midnight in loc. week 5 is the "last
// occurrence" sentinel rather than a literal fifth week, so the call cannot
// fail for any valid month: every month has at least four of each weekday
// and exactly one last one. ok is false only for out-of-range inputs.
func NthWeekdayOfMonth(year int, month time.Month, week int, weekday domain.Weekday, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || week < 1 || week > 5 || !weekday.Valid() {
		return time.Time{}, false
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(weekday.Time()) - int(first.Weekday()) + 7) % 7
	firstHit := first.AddDate(0, 0, offset)

	if week == 5 {
		last := firstHit
		for {
			next := last.AddDate(0, 0, 7)
			if next.Month() != month {
				return last, true
			}
			last = next
		}
	}

	hit := firstHit.AddDate(0, 0, 7*(week-1))
	if hit.Month() != month {
		return time.Time{}, false
	}
	return hit, true
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day, judged in
// a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
