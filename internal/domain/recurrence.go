package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidRecurrence = errors.New("invalid recurrence")

type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

type MonthlyMode string

const (
	// MonthlyTimes spreads `count` occurrences across the month.
	MonthlyTimes MonthlyMode = "times_per_month"
	// MonthlyDay repeats on a fixed day of month; day 0 means "last day".
	MonthlyDay MonthlyMode = "day_of_month"
	// MonthlyNthWeekday repeats on the nth weekday; week 5 means "last".
	MonthlyNthWeekday MonthlyMode = "nth_weekday"
)

// Recurrence is a closed union over daily, weekly and monthly rules. Build
// values through the constructors below; anything else should be rejected by
// Validate before it reaches date math.
type Recurrence struct {
	Freq Frequency `json:"freq"`

	// Weekly. Weekdays takes precedence over TimesPerWeek when non-empty.
	Weekdays     []Weekday `json:"weekdays,omitempty"`
	TimesPerWeek int       `json:"times_per_week,omitempty"`

	// Monthly.
	Monthly *MonthlyRule `json:"monthly,omitempty"`
}

type MonthlyRule struct {
	Mode    MonthlyMode `json:"mode"`
	Count   int         `json:"count,omitempty"` // times_per_month: 1..30
	Day     int         `json:"day"`             // day_of_month: 0..31, 0 = last day
	Week    int         `json:"week,omitempty"`  // nth_weekday: 1..5, 5 = last
	Weekday Weekday     `json:"weekday,omitempty"`
}

func Daily() Recurrence {
	return Recurrence{Freq: FreqDaily}
}

func WeeklyOn(days ...Weekday) (Recurrence, error) {
	if len(days) == 0 {
		return Recurrence{}, fmt.Errorf("%w: weekly needs at least one weekday", ErrInvalidRecurrence)
	}
	r := Recurrence{Freq: FreqWeekly, Weekdays: days}
	return r, r.Validate()
}

func WeeklyTimes(n int) (Recurrence, error) {
	r := Recurrence{Freq: FreqWeekly, TimesPerWeek: n}
	return r, r.Validate()
}

func MonthlyTimesPer(count int) (Recurrence, error) {
	r := Recurrence{Freq: FreqMonthly, Monthly: &MonthlyRule{Mode: MonthlyTimes, Count: count}}
	return r, r.Validate()
}

func MonthlyOnDay(day int) (Recurrence, error) {
	r := Recurrence{Freq: FreqMonthly, Monthly: &MonthlyRule{Mode: MonthlyDay, Day: day}}
	return r, r.Validate()
}

func MonthlyOnNthWeekday(week int, wd Weekday) (Recurrence, error) {
	r := Recurrence{Freq: FreqMonthly, Monthly: &MonthlyRule{Mode: MonthlyNthWeekday, Week: week, Weekday: wd}}
	return r, r.Validate()
}

func (r Recurrence) Validate() error {
	switch r.Freq {
	case FreqDaily:
		return nil
	case FreqWeekly:
		for _, d := range r.Weekdays {
			if !d.Valid() {
				return fmt.Errorf("%w: weekday %d outside 1..7", ErrInvalidRecurrence, int(d))
			}
		}
		if len(r.Weekdays) == 0 && r.TimesPerWeek < 1 {
			return fmt.Errorf("%w: weekly needs weekdays or times_per_week >= 1", ErrInvalidRecurrence)
		}
		if r.TimesPerWeek > 7 {
			return fmt.Errorf("%w: times_per_week %d exceeds 7", ErrInvalidRecurrence, r.TimesPerWeek)
		}
		return nil
	case FreqMonthly:
		m := r.Monthly
		if m == nil {
			return fmt.Errorf("%w: monthly rule missing", ErrInvalidRecurrence)
		}
		switch m.Mode {
		case MonthlyTimes:
			if m.Count < 1 || m.Count > 30 {
				return fmt.Errorf("%w: times_per_month %d outside 1..30", ErrInvalidRecurrence, m.Count)
			}
		case MonthlyDay:
			if m.Day < 0 || m.Day > 31 {
				return fmt.Errorf("%w: day %d outside 0..31", ErrInvalidRecurrence, m.Day)
			}
		case MonthlyNthWeekday:
			if m.Week < 1 || m.Week > 5 {
				return fmt.Errorf("%w: week %d outside 1..5", ErrInvalidRecurrence, m.Week)
			}
			if !m.Weekday.Valid() {
				return fmt.Errorf("%w: weekday %d outside 1..7", ErrInvalidRecurrence, int(m.Weekday))
			}
		default:
			return fmt.Errorf("%w: monthly mode %q", ErrInvalidRecurrence, m.Mode)
		}
		return nil
	default:
		return fmt.Errorf("%w: frequency %q", ErrInvalidRecurrence, r.Freq)
	}
}
