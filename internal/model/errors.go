package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references a missing task.
	ErrNotFound = errors.New("task not found")
	// ErrInvalid matches every *ValidationError through errors.Is.
	ErrInvalid = errors.New("invalid task")
)

// ValidationError rejects input before the store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// StorageError wraps a failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
