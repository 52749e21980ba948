package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content"`
	Folder   string   `json:"folder"`
	Tags     []string `json:"tags"`
	IsPinned bool     `json:"is_pinned"`
}

type CreateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowNoteResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Folder    string     `json:"folder"`
	Tags      []string   `json:"tags"`
	IsPinned  bool       `json:"is_pinned"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type UpdateNoteRequest struct {
	Id       uuid.UUID
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content"`
	Folder   string   `json:"folder"`
	Tags     []string `json:"tags"`
	IsPinned bool     `json:"is_pinned"`
}

type UpdateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type ListNotesQuery struct {
	Folder string `query:"folder"`
	Limit  int    `query:"limit"`
}

type SearchNotesQuery struct {
	Query string `query:"q" validate:"required,min=2"`
}
