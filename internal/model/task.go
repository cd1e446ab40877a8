package model

import "gorm.io/gorm"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the statuses the planner writes.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCompleted
}

// Normalize maps legacy values (the old "not-completed" default) to active.
func (s Status) Normalize() Status {
	if s == StatusCompleted {
		return StatusCompleted
	}
	return StatusActive
}

// Task is a single item on the weekly board.
type Task struct {
	ID      uint    `gorm:"primaryKey"`
	Title   string  `gorm:"not null"`
	Content string
	Day     Weekday `gorm:"not null"`
	Status  Status  `gorm:"not null"`
}

// AfterFind reads legacy statuses as active.
func (t *Task) AfterFind(_ *gorm.DB) error {
	t.Status = t.Status.Normalize()
	return nil
}

// IsCompleted reports whether the task left the weekly board.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// TaskSummary is the (id, title) pair shown in a day column.
type TaskSummary struct {
	ID    uint
	Title string
}
