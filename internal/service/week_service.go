package service

import (
	"context"
	"time"

	"weekly-planner/internal/model"
	"weekly-planner/internal/repository"
)

// DayBucket is one column of the weekly board.
type DayBucket struct {
	Day   model.Weekday
	Date  time.Time
	Tasks []model.TaskSummary
}

// Week is a read-time projection of the store. It is rebuilt on every
// refresh and never written back.
type Week struct {
	Start     time.Time
	Days      []DayBucket
	Completed []model.Task
}

// Bucket returns the column for day, or an empty bucket for an unknown day.
func (w Week) Bucket(day model.Weekday) DayBucket {
	i := day.Index()
	if i < 0 || i >= len(w.Days) {
		return DayBucket{Day: day}
	}
	return w.Days[i]
}

// Today returns the column for the weekday of now.
func (w Week) Today(now time.Time) DayBucket {
	return w.Bucket(model.WeekdayOf(now))
}

// ActiveCount is the number of tasks still on the board.
func (w Week) ActiveCount() int {
	n := 0
	for _, day := range w.Days {
		n += len(day.Tasks)
	}
	return n
}

// Partition groups tasks into the seven day columns of the week containing
// now, plus the completed list. Input order is kept within each group.
func Partition(tasks []model.Task, now time.Time) Week {
	start := model.StartOfWeek(now)
	week := Week{
		Start: start,
		Days:  make([]DayBucket, len(model.Week)),
	}
	for i, day := range model.Week {
		week.Days[i] = DayBucket{Day: day, Date: start.AddDate(0, 0, i)}
	}

	for _, task := range tasks {
		if task.IsCompleted() {
			week.Completed = append(week.Completed, task)
			continue
		}
		i := task.Day.Index()
		if i < 0 {
			// Rows outside the weekday set cannot be placed on the board.
			continue
		}
		week.Days[i].Tasks = append(week.Days[i].Tasks, model.TaskSummary{ID: task.ID, Title: task.Title})
	}

	return week
}

// WeekService derives the board from the repository.
type WeekService struct {
	taskRepo *repository.TaskRepository
}

func NewWeekService(taskRepo *repository.TaskRepository) *WeekService {
	return &WeekService{taskRepo: taskRepo}
}

// Refresh re-reads every task and partitions it. Call it after each write.
func (s *WeekService) Refresh(ctx context.Context, now time.Time) (Week, error) {
	tasks, err := s.taskRepo.ListAll(ctx)
	if err != nil {
		return Week{}, err
	}
	return Partition(tasks, now), nil
}
