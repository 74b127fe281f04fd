package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTask = errors.New("invalid task")

// DueSemantics controls how a due date gates visibility and urgency.
// "on" tasks matter only on their due day (and after, once overdue);
// "before" tasks are deadlines, relevant from creation until the end of
// the due day, with urgency rising as the deadline nears.
type DueSemantics string

const (
	DueOn     DueSemantics = "on"
	DueBefore DueSemantics = "before"
)

func (s DueSemantics) Valid() bool { return s == DueOn || s == DueBefore }

// Weekday uses 1=Sunday..7=Saturday numbering to match stored data.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

func (w Weekday) Valid() bool { return w >= Sunday && w <= Saturday }

// Time converts to the stdlib's 0=Sunday..6=Saturday numbering.
func (w Weekday) Time() time.Weekday { return time.Weekday(int(w) - 1) }

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return w.Time().String()
}

type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Priority    int          `json:"priority"`    // 1..5, 5 most urgent
	BaseWeight  float64      `json:"base_weight"` // urgency seed, 1.0 for fresh instances
	Effort      float64      `json:"effort"`      // minutes-equivalent, carried for presentation
	DueAt       *time.Time   `json:"due_at,omitempty"`
	DueMode     DueSemantics `json:"due_mode"`
	Recurring   bool         `json:"recurring"`
	Recurrence  *Recurrence  `json:"recurrence,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Completed   bool         `json:"completed"`
	SpawnedFrom string       `json:"spawned_from,omitempty"` // predecessor id when created by recurrence
}

// NewTask builds a task with engine defaults applied. The ID is left empty
// for the store to assign.
func NewTask(title string, priority int, createdAt time.Time) Task {
	return Task{
		Title:      title,
		Priority:   ClampPriority(priority),
		BaseWeight: 1.0,
		DueMode:    DueOn,
		CreatedAt:  createdAt,
	}
}

func ClampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}

// EffectiveSemantics is the semantics the gate and scorer actually use:
// recurring tasks are always "on" regardless of the stored field.
func (t Task) EffectiveSemantics() DueSemantics {
	if t.Recurring {
		return DueOn
	}
	if t.DueMode.Valid() {
		return t.DueMode
	}
	return DueOn
}

func (t Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidTask)
	}
	if t.Priority < 1 || t.Priority > 5 {
		return fmt.Errorf("%w: priority %d outside [1,5]", ErrInvalidTask, t.Priority)
	}
	if t.Recurring != (t.Recurrence != nil) {
		return fmt.Errorf("%w: recurrence must be set exactly when recurring", ErrInvalidTask)
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
	}
	if t.Completed != (t.CompletedAt != nil) {
		return fmt.Errorf("%w: completed_at must be set exactly when completed", ErrInvalidTask)
	}
	if t.DueAt != nil && !t.DueMode.Valid() {
		return fmt.Errorf("%w: due_mode %q", ErrInvalidTask, t.DueMode)
	}
	return nil
}
