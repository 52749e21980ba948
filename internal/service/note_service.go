package service

import (
	"context"
	"errors"
	"time"

	"github.com/devora-bit/sphere/internal/dto"
	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/pkg/logger"
	"github.com/devora-bit/sphere/internal/repository/specification"
	"github.com/devora-bit/sphere/internal/repository/unitofwork"
	"github.com/devora-bit/sphere/pkg/events"
	pkgNats "github.com/devora-bit/sphere/pkg/nats"

	"github.com/google/uuid"
)

var ErrNoteNotFound = errors.New("note not found")

type INoteService interface {
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowNoteResponse, error)
	List(ctx context.Context, query *dto.ListNotesQuery) ([]*dto.ShowNoteResponse, error)
	Search(ctx context.Context, query string) ([]*dto.ShowNoteResponse, error)
	Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type noteService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) INoteService {
	return &noteService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	note := entity.Note{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		Folder:    req.Folder,
		Tags:      req.Tags,
		IsPinned:  req.IsPinned,
		CreatedAt: time.Now(),
	}

	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypeNoteCreated, map[string]interface{}{
		"note_id": note.Id,
		"title":   note.Title,
	})

	return &dto.CreateNoteResponse{Id: note.Id}, nil
}

func (s *noteService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return toNoteResponse(note), nil
}

func (s *noteService) List(ctx context.Context, query *dto.ListNotesQuery) ([]*dto.ShowNoteResponse, error) {
	specs := []specification.Specification{
		specification.OrderBy{Field: "is_pinned", Desc: true},
		specification.OrderBy{Field: "updated_at", Desc: true},
	}
	if query.Folder != "" {
		specs = append(specs, specification.Filter("folder", query.Folder))
	}
	if query.Limit > 0 {
		specs = append(specs, specification.Limit{N: query.Limit})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ShowNoteResponse, len(notes))
	for i, n := range notes {
		res[i] = toNoteResponse(n)
	}
	return res, nil
}

func (s *noteService) Search(ctx context.Context, query string) ([]*dto.ShowNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx,
		specification.NoteSearchQuery{Query: query},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Limit{N: searchResultCap},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ShowNoteResponse, len(notes))
	for i, n := range notes {
		res[i] = toNoteResponse(n)
	}
	return res, nil
}

func (s *noteService) Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}

	now := time.Now()
	note.Title = req.Title
	note.Content = req.Content
	note.Folder = req.Folder
	note.Tags = req.Tags
	note.IsPinned = req.IsPinned
	note.UpdatedAt = &now

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypeNoteUpdated, map[string]interface{}{
		"note_id": note.Id,
	})

	return &dto.UpdateNoteResponse{Id: note.Id}, nil
}

func (s *noteService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if note == nil {
		return ErrNoteNotFound
	}

	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TypeNoteDeleted, map[string]interface{}{
		"note_id": id,
	})
	return nil
}

func (s *noteService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.log.Warn("note", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func toNoteResponse(n *entity.Note) *dto.ShowNoteResponse {
	return &dto.ShowNoteResponse{
		Id:        n.Id,
		Title:     n.Title,
		Content:   n.Content,
		Folder:    n.Folder,
		Tags:      n.Tags,
		IsPinned:  n.IsPinned,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
