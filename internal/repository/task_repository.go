package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"weekly-planner/internal/model"
)

// TaskRepository handles persistence of tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return &model.StorageError{Op: "create task", Err: err}
	}
	return nil
}

// FindByID returns model.ErrNotFound when no task has the id.
func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, model.ErrNotFound
	default:
		return nil, &model.StorageError{Op: "find task", Err: err}
	}
}

// UpdateColumn sets one column of one task and reports whether the task exists.
func (r *TaskRepository) UpdateColumn(ctx context.Context, id uint, column string, value interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return false, &model.StorageError{Op: "update task " + column, Err: result.Error}
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a task and reports whether a row was removed.
func (r *TaskRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{})
	if result.Error != nil {
		return false, &model.StorageError{Op: "delete task", Err: result.Error}
	}
	return result.RowsAffected > 0, nil
}

// DeleteAll empties the board.
func (r *TaskRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Task{})
	if result.Error != nil {
		return 0, &model.StorageError{Op: "clear tasks", Err: result.Error}
	}
	return result.RowsAffected, nil
}

// ListActiveByDay returns (id, title) of the day's unfinished tasks in
// insertion order. Anything not completed counts as active, which covers
// legacy status values.
func (r *TaskRepository) ListActiveByDay(ctx context.Context, day model.Weekday) ([]model.TaskSummary, error) {
	var tasks []model.TaskSummary
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("day = ? AND status <> ?", day, model.StatusCompleted).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, &model.StorageError{Op: "list day tasks", Err: err}
	}
	return tasks, nil
}

func (r *TaskRepository) ListCompleted(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("status = ?", model.StatusCompleted).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, &model.StorageError{Op: "list completed tasks", Err: err}
	}
	return tasks, nil
}

func (r *TaskRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, &model.StorageError{Op: "list tasks", Err: err}
	}
	return tasks, nil
}

// FindByTitle returns every task with exactly this title.
func (r *TaskRepository) FindByTitle(ctx context.Context, title string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("title = ?", title).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, &model.StorageError{Op: "find tasks by title", Err: err}
	}
	return tasks, nil
}
