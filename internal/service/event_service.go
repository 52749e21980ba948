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

var ErrEventNotFound = errors.New("event not found")

type IEventService interface {
	Create(ctx context.Context, req *dto.CreateEventRequest) (*dto.CreateEventResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowEventResponse, error)
	List(ctx context.Context, query *dto.ListEventsQuery) ([]*dto.ShowEventResponse, error)
	Update(ctx context.Context, req *dto.UpdateEventRequest) (*dto.UpdateEventResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type eventService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger
}

func NewEventService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IEventService {
	return &eventService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *eventService) Create(ctx context.Context, req *dto.CreateEventRequest) (*dto.CreateEventResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	event := entity.CalendarEvent{
		Id:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		IsAllDay:    req.IsAllDay,
		CreatedAt:   time.Now(),
	}

	if err := uow.EventRepository().Create(ctx, &event); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypeEventCreated, map[string]interface{}{
		"event_id": event.Id,
		"title":    event.Title,
	})

	return &dto.CreateEventResponse{Id: event.Id}, nil
}

func (s *eventService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowEventResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	event, err := uow.EventRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return toEventResponse(event), nil
}

func (s *eventService) List(ctx context.Context, query *dto.ListEventsQuery) ([]*dto.ShowEventResponse, error) {
	specs := []specification.Specification{
		specification.OrderBy{Field: "start_time"},
	}
	if query.StartFrom != "" {
		if from, err := time.Parse("2006-01-02", query.StartFrom); err == nil {
			specs = append(specs, specification.EventsStartingFrom{From: from})
		}
	}
	if query.Limit > 0 {
		specs = append(specs, specification.Limit{N: query.Limit})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	eventsList, err := uow.EventRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ShowEventResponse, len(eventsList))
	for i, e := range eventsList {
		res[i] = toEventResponse(e)
	}
	return res, nil
}

func (s *eventService) Update(ctx context.Context, req *dto.UpdateEventRequest) (*dto.UpdateEventResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	event, err := uow.EventRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	event.Title = req.Title
	event.Description = req.Description
	event.StartTime = req.StartTime
	event.EndTime = req.EndTime
	event.Location = req.Location
	event.IsAllDay = req.IsAllDay

	if err := uow.EventRepository().Update(ctx, event); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypeEventUpdated, map[string]interface{}{
		"event_id": event.Id,
	})

	return &dto.UpdateEventResponse{Id: event.Id}, nil
}

func (s *eventService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	event, err := uow.EventRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEventNotFound
	}

	if err := uow.EventRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TypeEventDeleted, map[string]interface{}{
		"event_id": id,
	})
	return nil
}

func (s *eventService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.log.Warn("event", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func toEventResponse(e *entity.CalendarEvent) *dto.ShowEventResponse {
	return &dto.ShowEventResponse{
		Id:          e.Id,
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		IsAllDay:    e.IsAllDay,
		CreatedAt:   e.CreatedAt,
	}
}
