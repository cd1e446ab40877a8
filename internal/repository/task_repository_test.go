package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekly-planner/internal/model"
)

func seedTask(t *testing.T, repo *TaskRepository, title string, day model.Weekday, status model.Status) model.Task {
	t.Helper()
	task := model.Task{Title: title, Day: day, Status: status}
	require.NoError(t, repo.Create(context.Background(), &task))
	require.NotZero(t, task.ID)
	return task
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns increasing ids", func(t *testing.T) {
		repo := NewTaskRepository(openTestDB(t))

		first := seedTask(t, repo, "One", model.Monday, model.StatusActive)
		second := seedTask(t, repo, "Two", model.Monday, model.StatusActive)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("ids are not reused after delete", func(t *testing.T) {
		repo := NewTaskRepository(openTestDB(t))

		first := seedTask(t, repo, "One", model.Monday, model.StatusActive)
		_, err := repo.Delete(ctx, first.ID)
		require.NoError(t, err)

		second := seedTask(t, repo, "Two", model.Monday, model.StatusActive)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("find by id", func(t *testing.T) {
		repo := NewTaskRepository(openTestDB(t))
		task := seedTask(t, repo, "Read", model.Sunday, model.StatusActive)

		got, err := repo.FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, *got)

		_, err = repo.FindByID(ctx, task.ID+100)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("update column reports existence", func(t *testing.T) {
		repo := NewTaskRepository(openTestDB(t))
		task := seedTask(t, repo, "Write", model.Sunday, model.StatusActive)

		found, err := repo.UpdateColumn(ctx, task.ID, "content", "draft")
		require.NoError(t, err)
		assert.True(t, found)

		// Same value again still matches the row.
		found, err = repo.UpdateColumn(ctx, task.ID, "content", "draft")
		require.NoError(t, err)
		assert.True(t, found)

		found, err = repo.UpdateColumn(ctx, 999, "content", "draft")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("list active by day filters and orders", func(t *testing.T) {
		repo := NewTaskRepository(openTestDB(t))
		a := seedTask(t, repo, "A", model.Tuesday, model.StatusActive)
		seedTask(t, repo, "B", model.Wednesday, model.StatusActive)
		seedTask(t, repo, "C", model.Tuesday, model.StatusCompleted)
		d := seedTask(t, repo, "D", model.Tuesday, model.StatusActive)

		got, err := repo.ListActiveByDay(ctx, model.Tuesday)
		require.NoError(t, err)
		assert.Equal(t, []model.TaskSummary{{ID: a.ID, Title: "A"}, {ID: d.ID, Title: "D"}}, got)
	})

	t.Run("list completed and all", func(t *testing.T) {
		repo := NewTaskRepository(openTestDB(t))
		seedTask(t, repo, "A", model.Tuesday, model.StatusActive)
		c := seedTask(t, repo, "C", model.Friday, model.StatusCompleted)

		completed, err := repo.ListCompleted(ctx)
		require.NoError(t, err)
		require.Len(t, completed, 1)
		assert.Equal(t, c.ID, completed[0].ID)
		assert.Equal(t, model.Friday, completed[0].Day)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("find by title returns every match", func(t *testing.T) {
		repo := NewTaskRepository(openTestDB(t))
		seedTask(t, repo, "Laundry", model.Monday, model.StatusActive)
		seedTask(t, repo, "Laundry", model.Saturday, model.StatusActive)
		seedTask(t, repo, "Dishes", model.Saturday, model.StatusActive)

		got, err := repo.FindByTitle(ctx, "Laundry")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.Monday, got[0].Day)
		assert.Equal(t, model.Saturday, got[1].Day)
	})

	t.Run("delete and delete all", func(t *testing.T) {
		repo := NewTaskRepository(openTestDB(t))
		a := seedTask(t, repo, "A", model.Monday, model.StatusActive)
		seedTask(t, repo, "B", model.Monday, model.StatusActive)
		seedTask(t, repo, "C", model.Monday, model.StatusCompleted)

		removed, err := repo.Delete(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Delete(ctx, a.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		count, err := repo.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
