package unitofwork

import (
	"context"

	"github.com/devora-bit/sphere/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	NoteRepository() contract.NoteRepository
	TaskRepository() contract.TaskRepository
	EventRepository() contract.EventRepository
	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	ChatMessageRepository() contract.ChatMessageRepository
}
