package entity

import (
	"time"

	"github.com/google/uuid"
)

type CalendarEvent struct {
	Id          uuid.UUID
	Title       string
	Description string
	StartTime   time.Time
	EndTime     *time.Time
	Location    string
	IsAllDay    bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
