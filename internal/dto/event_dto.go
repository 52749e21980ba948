package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateEventRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     *time.Time `json:"end_time"`
	Location    string     `json:"location"`
	IsAllDay    bool       `json:"is_all_day"`
}

type CreateEventResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowEventResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    string     `json:"location"`
	IsAllDay    bool       `json:"is_all_day"`
	CreatedAt   time.Time  `json:"created_at"`
}

type UpdateEventRequest struct {
	Id          uuid.UUID
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     *time.Time `json:"end_time"`
	Location    string     `json:"location"`
	IsAllDay    bool       `json:"is_all_day"`
}

type UpdateEventResponse struct {
	Id uuid.UUID `json:"id"`
}

type ListEventsQuery struct {
	StartFrom string `query:"start_from"`
	StartTo   string `query:"start_to"`
	Limit     int    `query:"limit"`
}
