package service

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/devora-bit/sphere/internal/dto"
	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/pkg/logger"
	"github.com/devora-bit/sphere/internal/repository/specification"
	"github.com/devora-bit/sphere/internal/repository/unitofwork"
	"github.com/devora-bit/sphere/pkg/events"
	"github.com/devora-bit/sphere/pkg/ingest"
	pkgNats "github.com/devora-bit/sphere/pkg/nats"
	"github.com/devora-bit/sphere/pkg/utils"
	"github.com/devora-bit/sphere/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const summaryLength = 500

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService runs the document ingestion pipeline: extract, chunk,
// embed, index, summarize.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	index          vectorstore.Index
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger

	chunkSize    int
	chunkOverlap int
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	index vectorstore.Index,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
	chunkSize int,
	chunkOverlap int,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		index:          index,
		eventPublisher: eventPublisher,
		log:            log,
		chunkSize:      chunkSize,
		chunkOverlap:   chunkOverlap,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ProcessDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("ingest", "failed to unmarshal message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.log.Info("ingest", "processing document", map[string]interface{}{
		"document_id": payload.DocumentId,
	})

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.log.Error("ingest", "failed to load document", map[string]interface{}{
			"document_id": payload.DocumentId,
			"error":       err.Error(),
		})
		msg.Nack() // Retriable
		return
	}
	if doc == nil {
		cs.log.Warn("ingest", "document no longer exists", map[string]interface{}{
			"document_id": payload.DocumentId,
		})
		msg.Ack()
		return
	}

	text, err := ingest.ExtractText(payload.Filepath, payload.Filetype)
	if err != nil || len(text) == 0 {
		reason := "empty document"
		if err != nil {
			reason = err.Error()
		}
		cs.markFailed(ctx, uow, doc, reason)
		msg.Ack() // Extraction failures do not improve on retry
		return
	}

	chunks := utils.SplitWords(text, cs.chunkSize, cs.chunkOverlap)

	if cs.index != nil && cs.index.Available() {
		ids := make([]string, len(chunks))
		metadatas := make([]map[string]string, len(chunks))
		for i := range chunks {
			ids[i] = entity.ChunkIdFor(doc.Id, i)
			metadatas[i] = map[string]string{
				vectorstore.MetadataDocumentId: doc.Id.String(),
				vectorstore.MetadataChunkIndex: strconv.Itoa(i),
			}
		}
		if err := cs.index.Add(ctx, ids, chunks, metadatas); err != nil {
			cs.log.Error("ingest", "failed to index chunks", map[string]interface{}{
				"document_id": doc.Id,
				"error":       err.Error(),
			})
			cs.markFailed(ctx, uow, doc, err.Error())
			msg.Ack()
			return
		}
	}

	doc.Summary = summarize(text)
	doc.Status = entity.DocumentStatusProcessed
	doc.ChunkCount = len(chunks)
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		cs.log.Error("ingest", "failed to update document", map[string]interface{}{
			"document_id": doc.Id,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	cs.publishEvent(ctx, events.TypeDocumentProcessed, map[string]interface{}{
		"id": doc.Id,
	})
	msg.Ack()
}

func (cs *consumerService) markFailed(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.Document, reason string) {
	cs.log.Warn("ingest", "document processing failed", map[string]interface{}{
		"document_id": doc.Id,
		"reason":      reason,
	})

	doc.Status = entity.DocumentStatusFailed
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		cs.log.Error("ingest", "failed to mark document as failed", map[string]interface{}{
			"document_id": doc.Id,
			"error":       err.Error(),
		})
		return
	}
	cs.publishEvent(ctx, events.TypeDocumentFailed, map[string]interface{}{
		"id":     doc.Id,
		"reason": reason,
	})
}

func (cs *consumerService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if cs.eventPublisher == nil {
		return
	}
	if err := cs.eventPublisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		cs.log.Warn("ingest", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

// summarize keeps the first 500 characters of the extracted text.
func summarize(text string) string {
	runes := []rune(text)
	if len(runes) <= summaryLength {
		return text
	}
	return string(runes[:summaryLength]) + "..."
}
