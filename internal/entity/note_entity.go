package entity

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id        uuid.UUID
	Title     string
	Content   string
	Folder    string
	Tags      []string
	IsPinned  bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}
