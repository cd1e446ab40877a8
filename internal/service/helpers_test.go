package service

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"weekly-planner/internal/repository"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "tasks.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })
	return db
}

func newTaskService(t *testing.T) (*TaskService, *WeekService) {
	t.Helper()
	repo := repository.NewTaskRepository(openTestDB(t))
	return NewTaskService(repo, zerolog.Nop()), NewWeekService(repo)
}
