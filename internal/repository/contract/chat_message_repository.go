package contract

import (
	"context"

	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/repository/specification"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ListSessionIds returns distinct session ids ordered by most recent
	// activity first.
	ListSessionIds(ctx context.Context) ([]string, error)
	DeleteBySessionId(ctx context.Context, sessionId string) error
}
