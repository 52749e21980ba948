package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Project     string     `json:"project"`
}

type CreateTaskResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowTaskResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Project     string     `json:"project"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type UpdateTaskRequest struct {
	Id          uuid.UUID
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Project     string     `json:"project"`
}

type UpdateTaskResponse struct {
	Id uuid.UUID `json:"id"`
}

type ListTasksQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=todo in_progress done"`
	Limit  int    `query:"limit"`
}
