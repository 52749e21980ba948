package service

import (
	"context"
	"time"

	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/repository/specification"
	"github.com/devora-bit/sphere/internal/repository/unitofwork"
	"github.com/devora-bit/sphere/pkg/rag/assembler"
)

const searchResultCap = 20

// repositoryDataSource feeds the context assembler from the relational
// store.
type repositoryDataSource struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewRepositoryDataSource(uowFactory unitofwork.RepositoryFactory) assembler.DataSource {
	return &repositoryDataSource{
		uowFactory: uowFactory,
	}
}

func (s *repositoryDataSource) OpenTaskTitles(ctx context.Context, limit int) ([]string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tasks, err := uow.TaskRepository().FindAll(ctx,
		specification.TaskByStatus{Status: entity.TaskStatusTodo},
		specification.OrderBy{Field: "priority"},
		specification.OrderBy{Field: "due_date"},
		specification.Limit{N: limit},
	)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	return titles, nil
}

func (s *repositoryDataSource) UpcomingEventTitles(ctx context.Context, from time.Time, limit int) ([]string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	events, err := uow.EventRepository().FindAll(ctx,
		specification.EventsStartingFrom{From: from},
		specification.OrderBy{Field: "start_time"},
		specification.Limit{N: limit},
	)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(events))
	for i, e := range events {
		titles[i] = e.Title
	}
	return titles, nil
}

func (s *repositoryDataSource) SearchNotes(ctx context.Context, query string) ([]assembler.NoteHit, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx,
		specification.NoteSearchQuery{Query: query},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Limit{N: searchResultCap},
	)
	if err != nil {
		return nil, err
	}

	hits := make([]assembler.NoteHit, len(notes))
	for i, n := range notes {
		hits[i] = assembler.NoteHit{Title: n.Title, Content: n.Content}
	}
	return hits, nil
}

func (s *repositoryDataSource) SearchTasks(ctx context.Context, query string) ([]assembler.TaskHit, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tasks, err := uow.TaskRepository().FindAll(ctx,
		specification.TaskSearchQuery{Query: query},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Limit{N: searchResultCap},
	)
	if err != nil {
		return nil, err
	}

	hits := make([]assembler.TaskHit, len(tasks))
	for i, t := range tasks {
		hits[i] = assembler.TaskHit{Title: t.Title, Description: t.Description}
	}
	return hits, nil
}
