package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"dayflow/internal/domain"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, EnsureSchema(db))
	return NewSQLiteRepo(db)
}

func TestCreateAssignsDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.Task{Title: "buy milk", Priority: 9})
	require.NoError(t, err)
	assert.Contains(t, created.ID, "tsk_")
	assert.Equal(t, 5, created.Priority, "priority clamps into [1,5]")
	assert.Equal(t, 1.0, created.BaseWeight)
	assert.Equal(t, domain.DueOn, created.DueMode)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Title)
}

func TestCreateRejectsInvalidTask(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, domain.Task{Title: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidTask)

	_, err = repo.Create(ctx, domain.Task{Title: "x", Priority: 3, Recurring: true})
	assert.ErrorIs(t, err, domain.ErrInvalidTask)
}

func TestGetNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Get(context.Background(), "tsk_nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecurrenceSurvivesRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rule, err := domain.MonthlyOnNthWeekday(5, domain.Wednesday)
	require.NoError(t, err)
	due := time.Date(2024, 3, 27, 9, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, domain.Task{
		Title: "pay rent", Priority: 4, DueAt: &due, Recurring: true, Recurrence: &rule,
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Recurrence)
	assert.Equal(t, rule, *got.Recurrence)
	require.NotNil(t, got.DueAt)
	assert.True(t, got.DueAt.Equal(due))
}

func TestCompleteAndUndoNonRecurring(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.Task{Title: "one-off", Priority: 3})
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	done, successor, err := repo.Complete(ctx, created.ID, now, time.Monday)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.Nil(t, successor, "non-recurring tasks spawn nothing")

	undone, err := repo.UndoComplete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Nil(t, undone.CompletedAt)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "no stray successor after undo")
}

func TestCompleteRecurringSpawnsSuccessorAtomically(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rule := domain.Daily()
	due := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, domain.Task{
		Title: "stretch", Priority: 2, DueAt: &due, Recurring: true, Recurrence: &rule,
	})
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	done, successor, err := repo.Complete(ctx, created.ID, now, time.Monday)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, successor)
	assert.Equal(t, created.ID, successor.SpawnedFrom)
	assert.Equal(t, 1.0, successor.BaseWeight)
	assert.False(t, successor.Completed)
	require.NotNil(t, successor.DueAt)
	assert.True(t, successor.DueAt.Equal(time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC)))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, successor.ID, active[0].ID)
}

func TestUndoCompleteRemovesSpawnedSuccessor(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rule := domain.Daily()
	due := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, domain.Task{
		Title: "stretch", Priority: 2, DueAt: &due, Recurring: true, Recurrence: &rule,
	})
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	_, successor, err := repo.Complete(ctx, created.ID, now, time.Monday)
	require.NoError(t, err)
	require.NotNil(t, successor)

	undone, err := repo.UndoComplete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, undone.Completed)

	_, err = repo.Get(ctx, successor.ID)
	assert.ErrorIs(t, err, ErrNotFound, "undo removes exactly the spawned duplicate")

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, created.ID, active[0].ID)
}

func TestCompleteTwiceDoesNotSpawnTwice(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rule := domain.Daily()
	created, err := repo.Create(ctx, domain.Task{Title: "stretch", Priority: 2, Recurring: true, Recurrence: &rule})
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	_, first, err := repo.Complete(ctx, created.ID, now, time.Monday)
	require.NoError(t, err)
	require.NotNil(t, first)

	_, second, err := repo.Complete(ctx, created.ID, now.Add(time.Minute), time.Monday)
	require.NoError(t, err)
	assert.Nil(t, second, "already-completed task is a no-op")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.Task{Title: "draft", Priority: 2})
	require.NoError(t, err)

	created.Title = "final"
	created.Priority = 5
	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, 5, got.Priority)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrNotFound)
}
