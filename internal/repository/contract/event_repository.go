package contract

import (
	"context"

	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/repository/specification"

	"github.com/google/uuid"
)

type EventRepository interface {
	Create(ctx context.Context, event *entity.CalendarEvent) error
	Update(ctx context.Context, event *entity.CalendarEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CalendarEvent, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CalendarEvent, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
