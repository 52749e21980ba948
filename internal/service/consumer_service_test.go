package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devora-bit/sphere/internal/dto"
	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/repository/contract"
	"github.com/devora-bit/sphere/internal/repository/specification"
	"github.com/devora-bit/sphere/internal/repository/unitofwork"
	"github.com/devora-bit/sphere/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*entity.Document
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[uuid.UUID]*entity.Document)}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *doc
	r.docs[doc.Id] = &stored
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *doc
	r.docs[doc.Id] = &stored
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			if doc, found := r.docs[byId.ID]; found {
				copied := *doc
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Document
	for _, doc := range r.docs {
		copied := *doc
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.docs)), nil
}

func (r *fakeDocumentRepo) get(id uuid.UUID) *entity.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.docs[id]; ok {
		copied := *doc
		return &copied
	}
	return nil
}

type recordingIndex struct {
	mu    sync.Mutex
	avail bool
	ids   []string
	texts []string
}

func (f *recordingIndex) Available() bool { return f.avail }

func (f *recordingIndex) Add(ctx context.Context, ids []string, texts []string, metadatas []map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, ids...)
	f.texts = append(f.texts, texts...)
	return nil
}

func (f *recordingIndex) Query(ctx context.Context, query string, k int) ([]vectorstore.Result, error) {
	return nil, nil
}

func (f *recordingIndex) Delete(ctx context.Context, ids []string) error { return nil }
func (f *recordingIndex) Count(ctx context.Context) (int64, error)       { return 0, nil }

type fakeIngestUow struct {
	fakeUow
	docRepo *fakeDocumentRepo
}

func (u *fakeIngestUow) DocumentRepository() contract.DocumentRepository { return u.docRepo }

type fakeIngestUowFactory struct {
	uow *fakeIngestUow
}

func (f *fakeIngestUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func publishIngestMessage(t *testing.T, pubSub *gochannel.GoChannel, topic string, payload dto.ProcessDocumentMessage) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), data)))
}

func TestConsumerProcessesDocument(t *testing.T) {
	docRepo := newFakeDocumentRepo()
	index := &recordingIndex{avail: true}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	topic := "INGEST_DOCUMENT"

	svc := NewConsumerService(pubSub, topic, &fakeIngestUowFactory{uow: &fakeIngestUow{docRepo: docRepo}}, index, nil, nopLogger{}, 10, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Consume(ctx))

	content := strings.Repeat("word ", 25)
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	docId := uuid.New()
	require.NoError(t, docRepo.Create(ctx, &entity.Document{
		Id:       docId,
		Filename: "doc.txt",
		Filepath: path,
		Filetype: "txt",
		Status:   entity.DocumentStatusPending,
	}))

	publishIngestMessage(t, pubSub, topic, dto.ProcessDocumentMessage{
		DocumentId: docId,
		Filepath:   path,
		Filetype:   "txt",
	})

	require.Eventually(t, func() bool {
		doc := docRepo.get(docId)
		return doc != nil && doc.Status == entity.DocumentStatusProcessed
	}, 2*time.Second, 20*time.Millisecond)

	doc := docRepo.get(docId)
	assert.Equal(t, content, doc.Summary)
	assert.Greater(t, doc.ChunkCount, 1)

	index.mu.Lock()
	defer index.mu.Unlock()
	assert.Len(t, index.ids, doc.ChunkCount)
	assert.Equal(t, entity.ChunkIdFor(docId, 0), index.ids[0])
}

func TestConsumerMarksUnreadableDocumentFailed(t *testing.T) {
	docRepo := newFakeDocumentRepo()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	topic := "INGEST_DOCUMENT"

	svc := NewConsumerService(pubSub, topic, &fakeIngestUowFactory{uow: &fakeIngestUow{docRepo: docRepo}}, nil, nil, nopLogger{}, 500, 50)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Consume(ctx))

	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))

	docId := uuid.New()
	require.NoError(t, docRepo.Create(ctx, &entity.Document{
		Id: docId, Filepath: path, Filetype: "pdf", Status: entity.DocumentStatusPending,
	}))

	publishIngestMessage(t, pubSub, topic, dto.ProcessDocumentMessage{
		DocumentId: docId, Filepath: path, Filetype: "pdf",
	})

	require.Eventually(t, func() bool {
		doc := docRepo.get(docId)
		return doc != nil && doc.Status == entity.DocumentStatusFailed
	}, 2*time.Second, 20*time.Millisecond)
}

func TestConsumerSkipsDeletedDocument(t *testing.T) {
	docRepo := newFakeDocumentRepo()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	topic := "INGEST_DOCUMENT"

	svc := NewConsumerService(pubSub, topic, &fakeIngestUowFactory{uow: &fakeIngestUow{docRepo: docRepo}}, nil, nil, nopLogger{}, 500, 50)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Consume(ctx))

	// No document row exists, the message must be dropped without panic.
	publishIngestMessage(t, pubSub, topic, dto.ProcessDocumentMessage{
		DocumentId: uuid.New(), Filepath: "/nowhere", Filetype: "txt",
	})

	time.Sleep(100 * time.Millisecond)
	count, err := docRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
