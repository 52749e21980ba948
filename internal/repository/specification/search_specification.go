package specification

import (
	"time"

	"gorm.io/gorm"
)

// NoteSearchQuery matches notes whose title or content contains the query,
// case-insensitive.
type NoteSearchQuery struct {
	Query string
}

func (s NoteSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
}

// TaskSearchQuery matches tasks whose title or description contains the query,
// case-insensitive.
type TaskSearchQuery struct {
	Query string
}

func (s TaskSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
}

// TaskByStatus filters tasks by lifecycle status.
type TaskByStatus struct {
	Status string
}

func (s TaskByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// EventsStartingFrom keeps events whose start_time is at or after From.
type EventsStartingFrom struct {
	From time.Time
}

func (s EventsStartingFrom) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("start_time >= ?", s.From)
}
