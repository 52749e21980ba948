package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devora-bit/sphere/internal/constant"
	"github.com/devora-bit/sphere/internal/dto"
	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/pkg/logger"
	"github.com/devora-bit/sphere/internal/repository/specification"
	"github.com/devora-bit/sphere/internal/repository/unitofwork"
	"github.com/devora-bit/sphere/pkg/ai"
	"github.com/devora-bit/sphere/pkg/events"
	pkgNats "github.com/devora-bit/sphere/pkg/nats"
	"github.com/devora-bit/sphere/pkg/vectorstore"

	"github.com/google/uuid"
)

// ErrUnsupportedFile is returned for uploads with a file type the pipeline
// cannot ingest.
var ErrUnsupportedFile = errors.New("unsupported document type")

var ErrDocumentNotFound = errors.New("document not found")

// uploadableTypes are accepted at upload time. Extraction support is checked
// later by the pipeline; a type accepted here can still fail processing.
var uploadableTypes = map[string]bool{
	"txt":  true,
	"md":   true,
	"html": true,
	"pdf":  true,
	"docx": true,
}

const answerFragments = 3

type IKnowledgeService interface {
	Upload(ctx context.Context, filename string, content []byte) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context) ([]*dto.ShowDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AskDocuments(ctx context.Context, req *dto.AskDocumentsRequest) (*dto.AskDocumentsResponse, error)
}

type knowledgeService struct {
	uowFactory       unitofwork.RepositoryFactory
	index            vectorstore.Index
	publisherService IPublisherService
	eventPublisher   *pkgNats.Publisher
	registry         *ai.Registry
	log              logger.ILogger

	uploadDir       string
	defaultProvider string
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	index vectorstore.Index,
	publisherService IPublisherService,
	eventPublisher *pkgNats.Publisher,
	registry *ai.Registry,
	log logger.ILogger,
	uploadDir string,
	defaultProvider string,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:       uowFactory,
		index:            index,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		registry:         registry,
		log:              log,
		uploadDir:        uploadDir,
		defaultProvider:  defaultProvider,
	}
}

func (s *knowledgeService) Upload(ctx context.Context, filename string, content []byte) (*dto.UploadDocumentResponse, error) {
	filetype := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !uploadableTypes[filetype] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filetype)
	}

	docId := uuid.New()

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	destPath := filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s", docId, filepath.Base(filename)))
	if err := os.WriteFile(destPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := entity.Document{
		Id:        docId,
		Filename:  filepath.Base(filename),
		Filepath:  destPath,
		Filetype:  filetype,
		Title:     strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		Status:    entity.DocumentStatusPending,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		return nil, err
	}

	msgPayload := dto.ProcessDocumentMessage{
		DocumentId: doc.Id,
		Filepath:   doc.Filepath,
		Filetype:   doc.Filetype,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypeDocumentAdded, map[string]interface{}{
		"id":       doc.Id,
		"filename": doc.Filename,
	})

	return &dto.UploadDocumentResponse{
		Id:       doc.Id,
		Filename: doc.Filename,
		Status:   doc.Status,
	}, nil
}

func (s *knowledgeService) List(ctx context.Context) ([]*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ShowDocumentResponse, len(docs))
	for i, d := range docs {
		res[i] = toDocumentResponse(d)
	}
	return res, nil
}

func (s *knowledgeService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return toDocumentResponse(doc), nil
}

// Delete removes a document: vector chunks first, then the stored file,
// then the database row. A failure partway leaves the row, so the document
// stays visible and deletion can be retried.
func (s *knowledgeService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if doc.ChunkCount > 0 && s.index != nil && s.index.Available() {
		ids := make([]string, doc.ChunkCount)
		for i := 0; i < doc.ChunkCount; i++ {
			ids[i] = entity.ChunkIdFor(doc.Id, i)
		}
		if err := s.index.Delete(ctx, ids); err != nil {
			s.log.Warn("knowledge", "failed to delete chunks from index", map[string]interface{}{
				"document_id": doc.Id,
				"error":       err.Error(),
			})
		}
	}

	if doc.Filepath != "" {
		if err := os.Remove(doc.Filepath); err != nil && !os.IsNotExist(err) {
			s.log.Warn("knowledge", "failed to remove stored file", map[string]interface{}{
				"document_id": doc.Id,
				"filepath":    doc.Filepath,
				"error":       err.Error(),
			})
		}
	}

	if err := uow.DocumentRepository().Delete(ctx, doc.Id); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TypeDocumentDeleted, map[string]interface{}{
		"id": doc.Id,
	})
	return nil
}

// AskDocuments answers a question directly from the document index, without
// touching session history.
func (s *knowledgeService) AskDocuments(ctx context.Context, req *dto.AskDocumentsRequest) (*dto.AskDocumentsResponse, error) {
	if s.index == nil || !s.index.Available() {
		return &dto.AskDocumentsResponse{Answer: constant.NoDocumentsFoundMessage}, nil
	}

	results, err := s.index.Query(ctx, req.Question, answerFragments)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &dto.AskDocumentsResponse{Answer: constant.NoDocumentsFoundMessage}, nil
	}

	fragments := make([]string, len(results))
	for i, r := range results {
		fragments[i] = r.Text
	}
	prompt := fmt.Sprintf(constant.DocumentAnswerPrompt, strings.Join(fragments, "\n\n---\n\n"), req.Question)

	provider, err := s.registry.Resolve(s.defaultProvider)
	if err != nil {
		return &dto.AskDocumentsResponse{Answer: constant.NoProvidersMessage}, nil
	}

	answer := provider.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
	return &dto.AskDocumentsResponse{Answer: answer}, nil
}

func (s *knowledgeService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.log.Warn("knowledge", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func toDocumentResponse(d *entity.Document) *dto.ShowDocumentResponse {
	return &dto.ShowDocumentResponse{
		Id:         d.Id,
		Filename:   d.Filename,
		Filetype:   d.Filetype,
		Title:      d.Title,
		Summary:    d.Summary,
		Status:     d.Status,
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}
