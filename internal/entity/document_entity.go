package entity

import (
	"time"

	"github.com/google/uuid"
)

// Processing lifecycle of a knowledge document. A processing attempt always
// ends in Processed or Failed, never back at Pending.
const (
	DocumentStatusPending   = "pending"
	DocumentStatusProcessed = "processed"
	DocumentStatusFailed    = "failed"
)

type Document struct {
	Id         uuid.UUID
	Filename   string
	Filepath   string
	Filetype   string
	Title      string
	Summary    string
	Status     string
	ChunkCount int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
