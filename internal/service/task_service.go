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

var ErrTaskNotFound = errors.New("task not found")

type ITaskService interface {
	Create(ctx context.Context, req *dto.CreateTaskRequest) (*dto.CreateTaskResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowTaskResponse, error)
	List(ctx context.Context, query *dto.ListTasksQuery) ([]*dto.ShowTaskResponse, error)
	Update(ctx context.Context, req *dto.UpdateTaskRequest) (*dto.UpdateTaskResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type taskService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger
}

func NewTaskService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) ITaskService {
	return &taskService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *taskService) Create(ctx context.Context, req *dto.CreateTaskRequest) (*dto.CreateTaskResponse, error) {
	status := req.Status
	if status == "" {
		status = entity.TaskStatusTodo
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	task := entity.Task{
		Id:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Project:     req.Project,
		CreatedAt:   time.Now(),
	}

	if err := uow.TaskRepository().Create(ctx, &task); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypeTaskCreated, map[string]interface{}{
		"task_id": task.Id,
		"title":   task.Title,
	})

	return &dto.CreateTaskResponse{Id: task.Id}, nil
}

func (s *taskService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowTaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return toTaskResponse(task), nil
}

func (s *taskService) List(ctx context.Context, query *dto.ListTasksQuery) ([]*dto.ShowTaskResponse, error) {
	specs := []specification.Specification{
		specification.OrderBy{Field: "priority"},
		specification.OrderBy{Field: "due_date"},
	}
	if query.Status != "" {
		specs = append([]specification.Specification{specification.TaskByStatus{Status: query.Status}}, specs...)
	}
	if query.Limit > 0 {
		specs = append(specs, specification.Limit{N: query.Limit})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	tasks, err := uow.TaskRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ShowTaskResponse, len(tasks))
	for i, t := range tasks {
		res[i] = toTaskResponse(t)
	}
	return res, nil
}

func (s *taskService) Update(ctx context.Context, req *dto.UpdateTaskRequest) (*dto.UpdateTaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	wasDone := task.Status == entity.TaskStatusDone

	now := time.Now()
	task.Title = req.Title
	task.Description = req.Description
	if req.Status != "" {
		task.Status = req.Status
	}
	task.Priority = req.Priority
	task.DueDate = req.DueDate
	task.Project = req.Project
	task.UpdatedAt = &now

	if err := uow.TaskRepository().Update(ctx, task); err != nil {
		return nil, err
	}

	eventType := events.TypeTaskUpdated
	if !wasDone && task.Status == entity.TaskStatusDone {
		eventType = events.TypeTaskCompleted
	}
	s.publishEvent(ctx, eventType, map[string]interface{}{
		"task_id": task.Id,
	})

	return &dto.UpdateTaskResponse{Id: task.Id}, nil
}

func (s *taskService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}

	if err := uow.TaskRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TypeTaskDeleted, map[string]interface{}{
		"task_id": id,
	})
	return nil
}

func (s *taskService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.log.Warn("task", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func toTaskResponse(t *entity.Task) *dto.ShowTaskResponse {
	return &dto.ShowTaskResponse{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Project:     t.Project,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
