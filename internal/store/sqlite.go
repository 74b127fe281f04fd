package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dayflow/internal/domain"
	"dayflow/internal/schedule"
)

var ErrNotFound = errors.New("task not found")

// EnsureSchema creates tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
PRAGMA journal_mode=WAL;
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  priority INTEGER NOT NULL DEFAULT 3 CHECK(priority BETWEEN 1 AND 5),
  base_weight REAL NOT NULL DEFAULT 1.0,
  effort REAL NOT NULL DEFAULT 0,
  due_at DATETIME,
  due_mode TEXT NOT NULL DEFAULT 'on' CHECK(due_mode IN ('on','before')),
  recurring INTEGER NOT NULL DEFAULT 0,
  recurrence TEXT,
  created_at DATETIME NOT NULL,
  completed_at DATETIME,
  completed INTEGER NOT NULL DEFAULT 0,
  spawned_from TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_active ON tasks(completed, due_at);
CREATE INDEX IF NOT EXISTS idx_tasks_spawned ON tasks(spawned_from);
`
	_, err := db.Exec(schema)
	return err
}

type Repository interface {
	Create(ctx context.Context, t domain.Task) (domain.Task, error)
	Get(ctx context.Context, id string) (domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	ListActive(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, t domain.Task) error
	Delete(ctx context.Context, id string) error

	// Complete marks the task done and, for recurring tasks, spawns and
	// inserts the successor in the same transaction. It returns the
	// completed task and the successor (nil when not recurring).
	Complete(ctx context.Context, id string, now time.Time, firstDay time.Weekday) (domain.Task, *domain.Task, error)

	// UndoComplete clears the completion and removes the successor that
	// Complete spawned, in one transaction.
	UndoComplete(ctx context.Context, id string) (domain.Task, error)
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

const taskCols = `id,title,priority,base_weight,effort,due_at,due_mode,recurring,recurrence,created_at,completed_at,completed,spawned_from`

func (r *sqliteRepo) Create(ctx context.Context, t domain.Task) (domain.Task, error) {
	if t.ID == "" {
		t.ID = "tsk_" + uuid.NewString()
	}
	t.Priority = domain.ClampPriority(t.Priority)
	if t.BaseWeight == 0 {
		t.BaseWeight = 1.0
	}
	if t.DueMode == "" {
		t.DueMode = domain.DueOn
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if err := t.Validate(); err != nil {
		return domain.Task{}, err
	}

	if err := insertTask(ctx, r.db, t); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, db execer, t domain.Task) error {
	rule, err := encodeRule(t.Recurrence)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO tasks (`+taskCols+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
`, t.ID, t.Title, t.Priority, t.BaseWeight, t.Effort, nullTime(t.DueAt), string(t.DueMode),
		t.Recurring, rule, t.CreatedAt, nullTime(t.CompletedAt), t.Completed, nullString(t.SpawnedFrom))
	return err
}

func (r *sqliteRepo) Get(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, ErrNotFound
	}
	return t, err
}

func (r *sqliteRepo) List(ctx context.Context) ([]domain.Task, error) {
	return r.query(ctx, `SELECT `+taskCols+` FROM tasks ORDER BY created_at ASC`)
}

func (r *sqliteRepo) ListActive(ctx context.Context) ([]domain.Task, error) {
	return r.query(ctx, `SELECT `+taskCols+` FROM tasks WHERE completed=0 ORDER BY created_at ASC`)
}

func (r *sqliteRepo) query(ctx context.Context, q string, args ...any) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *sqliteRepo) Update(ctx context.Context, t domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	rule, err := encodeRule(t.Recurrence)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks SET title=?,priority=?,base_weight=?,effort=?,due_at=?,due_mode=?,recurring=?,recurrence=?
WHERE id=?`, t.Title, t.Priority, t.BaseWeight, t.Effort, nullTime(t.DueAt), string(t.DueMode), t.Recurring, rule, t.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sqliteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sqliteRepo) Complete(ctx context.Context, id string, now time.Time, firstDay time.Weekday) (domain.Task, *domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, nil, ErrNotFound
	}
	if err != nil {
		return domain.Task{}, nil, err
	}
	if t.Completed {
		return t, nil, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET completed=1, completed_at=? WHERE id=?`, now, id); err != nil {
		return domain.Task{}, nil, err
	}
	t.Completed = true
	t.CompletedAt = &now

	var successor *domain.Task
	if t.Recurring {
		s := schedule.Spawn(t, now, firstDay)
		s.ID = "tsk_" + uuid.NewString()
		if err := insertTask(ctx, tx, s); err != nil {
			return domain.Task{}, nil, err
		}
		successor = &s
	}

	if err := tx.Commit(); err != nil {
		return domain.Task{}, nil, err
	}
	return t, successor, nil
}

func (r *sqliteRepo) UndoComplete(ctx context.Context, id string) (domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE tasks SET completed=0, completed_at=NULL WHERE id=?`, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := requireRow(res); err != nil {
		return domain.Task{}, err
	}

	// Remove only the still-untouched duplicate; a successor the user has
	// already completed is theirs to keep.
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE spawned_from=? AND completed=0`, id); err != nil {
		return domain.Task{}, err
	}

	row := tx.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row)
	if err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		t         domain.Task
		due       sql.NullTime
		mode      string
		rule      sql.NullString
		completed sql.NullTime
		spawned   sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.Priority, &t.BaseWeight, &t.Effort, &due, &mode,
		&t.Recurring, &rule, &t.CreatedAt, &completed, &t.Completed, &spawned)
	if err != nil {
		return domain.Task{}, err
	}
	t.DueMode = domain.DueSemantics(mode)
	if due.Valid {
		d := due.Time
		t.DueAt = &d
	}
	if completed.Valid {
		c := completed.Time
		t.CompletedAt = &c
	}
	if spawned.Valid {
		t.SpawnedFrom = spawned.String
	}
	if rule.Valid {
		var rec domain.Recurrence
		if err := json.Unmarshal([]byte(rule.String), &rec); err != nil {
			return domain.Task{}, fmt.Errorf("decode recurrence for %s: %w", t.ID, err)
		}
		t.Recurrence = &rec
	}
	return t, nil
}

func encodeRule(r *domain.Recurrence) (any, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
