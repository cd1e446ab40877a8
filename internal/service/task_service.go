package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"weekly-planner/internal/model"
	"weekly-planner/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title   string
	Content string
	Day     model.Weekday
}

// TaskService owns validation and the task lifecycle.
type TaskService struct {
	taskRepo *repository.TaskRepository
	log      zerolog.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, log zerolog.Logger) *TaskService {
	return &TaskService{taskRepo: taskRepo, log: log}
}

// Create validates the input and stores a new active task.
func (s *TaskService) Create(ctx context.Context, input TaskInput) (*model.Task, error) {
	title, err := validTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := validDay(input.Day); err != nil {
		return nil, err
	}

	task := model.Task{
		Title:   title,
		Content: input.Content,
		Day:     input.Day,
		Status:  model.StatusActive,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	s.log.Info().Uint("id", task.ID).Str("day", task.Day.String()).Msg("task created")
	return &task, nil
}

func (s *TaskService) Get(ctx context.Context, id uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, id)
}

func (s *TaskService) GetContent(ctx context.Context, id uint) (string, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return task.Content, nil
}

func (s *TaskService) UpdateContent(ctx context.Context, id uint, content string) error {
	return s.update(ctx, id, "content", content)
}

func (s *TaskService) Rename(ctx context.Context, id uint, title string) error {
	clean, err := validTitle(title)
	if err != nil {
		return err
	}
	return s.update(ctx, id, "title", clean)
}

// Move assigns the task to another day; status and content are untouched.
func (s *TaskService) Move(ctx context.Context, id uint, day model.Weekday) error {
	if err := validDay(day); err != nil {
		return err
	}
	return s.update(ctx, id, "day", day)
}

// Complete takes the task off the board. Completing a completed or missing
// task changes nothing and is not an error.
func (s *TaskService) Complete(ctx context.Context, id uint) error {
	found, err := s.taskRepo.UpdateColumn(ctx, id, "status", model.StatusCompleted)
	if err != nil {
		return err
	}
	if !found {
		s.log.Debug().Uint("id", id).Msg("complete: no such task")
		return nil
	}
	s.log.Info().Uint("id", id).Msg("task completed")
	return nil
}

// Reopen puts a completed task back on its day.
func (s *TaskService) Reopen(ctx context.Context, id uint) error {
	return s.update(ctx, id, "status", model.StatusActive)
}

// Delete removes the task permanently. Missing ids are ignored.
func (s *TaskService) Delete(ctx context.Context, id uint) error {
	removed, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		s.log.Info().Uint("id", id).Msg("task deleted")
	}
	return nil
}

func (s *TaskService) ListActiveByDay(ctx context.Context, day model.Weekday) ([]model.TaskSummary, error) {
	if err := validDay(day); err != nil {
		return nil, err
	}
	return s.taskRepo.ListActiveByDay(ctx, day)
}

// Day loads a single board column without reading the rest of the store.
// Date is the day's calendar date in the week containing now.
func (s *TaskService) Day(ctx context.Context, day model.Weekday, now time.Time) (DayBucket, error) {
	tasks, err := s.ListActiveByDay(ctx, day)
	if err != nil {
		return DayBucket{}, err
	}
	return DayBucket{
		Day:   day,
		Date:  model.StartOfWeek(now).AddDate(0, 0, day.Index()),
		Tasks: tasks,
	}, nil
}

func (s *TaskService) ListCompleted(ctx context.Context) ([]model.Task, error) {
	return s.taskRepo.ListCompleted(ctx)
}

// FindByTitle looks tasks up by their label. Titles are not unique, so
// callers must not act on a title that matches more than one task.
func (s *TaskService) FindByTitle(ctx context.Context, title string) ([]model.Task, error) {
	return s.taskRepo.FindByTitle(ctx, strings.TrimSpace(title))
}

// Clear deletes every task.
func (s *TaskService) Clear(ctx context.Context) (int64, error) {
	count, err := s.taskRepo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Warn().Int64("count", count).Msg("board cleared")
	return count, nil
}

func (s *TaskService) update(ctx context.Context, id uint, column string, value interface{}) error {
	found, err := s.taskRepo.UpdateColumn(ctx, id, column, value)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("task %d: %w", id, model.ErrNotFound)
	}
	s.log.Debug().Uint("id", id).Str("column", column).Msg("task updated")
	return nil
}

func validTitle(title string) (string, error) {
	clean := strings.TrimSpace(title)
	if clean == "" {
		return "", &model.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return clean, nil
}

func validDay(day model.Weekday) error {
	if !day.Valid() {
		return &model.ValidationError{Field: "day", Reason: fmt.Sprintf("%q is not a weekday", string(day))}
	}
	return nil
}
