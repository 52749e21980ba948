package model

import (
	"time"

	"github.com/google/uuid"
)

type CalendarEvent struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string     `gorm:"type:text;not null"`
	Description string     `gorm:"type:text"`
	StartTime   time.Time  `gorm:"not null;index"`
	EndTime     *time.Time ``
	Location    string     `gorm:"type:text"`
	IsAllDay    bool       `gorm:"default:false"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}
