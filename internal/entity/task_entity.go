package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

type Task struct {
	Id          uuid.UUID
	Title       string
	Description string
	Status      string
	Priority    int
	DueDate     *time.Time
	Project     string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
