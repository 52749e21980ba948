package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devora-bit/sphere/internal/constant"
	"github.com/devora-bit/sphere/internal/dto"
	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/repository/contract"
	"github.com/devora-bit/sphere/internal/repository/memory"
	"github.com/devora-bit/sphere/internal/repository/specification"
	"github.com/devora-bit/sphere/internal/repository/unitofwork"
	"github.com/devora-bit/sphere/pkg/ai"
	"github.com/devora-bit/sphere/pkg/rag/assembler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// fakeChatMessageRepo is an in-memory ChatMessageRepository. Specifications
// are ignored beyond session filtering, which is enough for these tests.
// Writes for failRole are rejected to exercise persistence failures.
type fakeChatMessageRepo struct {
	mu       sync.Mutex
	messages []*entity.ChatMessage
	failRole string
}

func (r *fakeChatMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRole != "" && message.Role == r.failRole {
		return errors.New("insert rejected")
	}
	stored := *message
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *fakeChatMessageRepo) rejectRole(role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failRole = role
}

func (r *fakeChatMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out, nil
}

func (r *fakeChatMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.messages)), nil
}

func (r *fakeChatMessageRepo) ListSessionIds(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for i := len(r.messages) - 1; i >= 0; i-- {
		id := r.messages[i].SessionId
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeChatMessageRepo) DeleteBySessionId(ctx context.Context, sessionId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.SessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

func (r *fakeChatMessageRepo) bySession(sessionId string) []*entity.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ChatMessage
	for _, m := range r.messages {
		if m.SessionId == sessionId {
			out = append(out, m)
		}
	}
	return out
}

type fakeUow struct {
	chatRepo *fakeChatMessageRepo
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) NoteRepository() contract.NoteRepository                   { return nil }
func (u *fakeUow) TaskRepository() contract.TaskRepository                   { return nil }
func (u *fakeUow) EventRepository() contract.EventRepository                 { return nil }
func (u *fakeUow) DocumentRepository() contract.DocumentRepository           { return nil }
func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository { return nil }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository     { return u.chatRepo }

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// scriptedProvider replies with fixed fragments, optionally blocking until
// released so tests can cancel mid-stream.
type scriptedProvider struct {
	name      string
	fragments []string
	answer    string
	block     chan struct{}
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Chat(ctx context.Context, history []ai.Message, options ...ai.Option) string {
	if p.answer != "" {
		return p.answer
	}
	return strings.Join(p.fragments, "")
}

func (p *scriptedProvider) ChatStream(ctx context.Context, history []ai.Message, options ...ai.Option) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for i, f := range p.fragments {
			if p.block != nil && i > 0 {
				select {
				case <-p.block:
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

type emptyDataSource struct{}

func (emptyDataSource) OpenTaskTitles(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}

func (emptyDataSource) UpcomingEventTitles(ctx context.Context, from time.Time, limit int) ([]string, error) {
	return nil, nil
}

func (emptyDataSource) SearchNotes(ctx context.Context, query string) ([]assembler.NoteHit, error) {
	return nil, nil
}

func (emptyDataSource) SearchTasks(ctx context.Context, query string) ([]assembler.TaskHit, error) {
	return nil, nil
}

func newTestChatService(t *testing.T, providers ...ai.Provider) (IChatService, *fakeChatMessageRepo) {
	t.Helper()
	repo := &fakeChatMessageRepo{}
	factory := &fakeUowFactory{uow: &fakeUow{chatRepo: repo}}

	registry := ai.NewRegistry()
	defaultName := ""
	for _, p := range providers {
		registry.Register(p)
		if defaultName == "" {
			defaultName = p.Name()
		}
	}

	ctxAssembler := assembler.NewAssembler(emptyDataSource{}, nil, nopLogger{})
	svc := NewChatService(factory, registry, ctxAssembler, memory.NewSessionStateRepository(), nil, nopLogger{}, defaultName, "hybrid", 0.7)
	return svc, repo
}

func TestChatPersistsBothTurns(t *testing.T) {
	svc, repo := newTestChatService(t, &scriptedProvider{name: "ollama", fragments: []string{"hi there"}})

	resp, err := svc.Chat(context.Background(), &dto.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "default", resp.SessionId)
	assert.Equal(t, "hi there", resp.Answer)
	assert.Equal(t, "ollama", resp.Provider)

	stored := repo.bySession("default")
	require.Len(t, stored, 2)
	assert.Equal(t, entity.ChatMessageRoleUser, stored[0].Role)
	assert.Equal(t, "hello", stored[0].Content)
	assert.Equal(t, entity.ChatMessageRoleAssistant, stored[1].Role)
	assert.Equal(t, "hi there", stored[1].Content)
	assert.Equal(t, "ollama", stored[1].Provider)
}

func TestChatNoProvidersStillRecorded(t *testing.T) {
	svc, repo := newTestChatService(t)

	resp, err := svc.Chat(context.Background(), &dto.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, constant.NoProvidersMessage, resp.Answer)

	stored := repo.bySession("default")
	require.Len(t, stored, 2)
	assert.Equal(t, constant.NoProvidersMessage, stored[1].Content)
}

func TestChatBusySession(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	provider := &scriptedProvider{name: "ollama", fragments: []string{"a", "b"}, block: release}
	svc, _ := newTestChatService(t, provider)

	out, _, _, err := svc.ChatStream(context.Background(), &dto.ChatRequest{Message: "first"})
	require.NoError(t, err)
	go func() {
		<-out // first fragment arrived, the session is busy
		close(started)
		for range out {
		}
	}()
	<-started

	_, err = svc.Chat(context.Background(), &dto.ChatRequest{Message: "second"})
	assert.ErrorIs(t, err, ErrSessionBusy)

	// Another session is not blocked.
	_, err = svc.Chat(context.Background(), &dto.ChatRequest{SessionId: "other", Message: "second"})
	assert.NoError(t, err)

	close(release)
}

func TestChatStreamPersistsOnceOnCompletion(t *testing.T) {
	svc, repo := newTestChatService(t, &scriptedProvider{name: "ollama", fragments: []string{"Hel", "lo"}})

	out, completion, sessionId, err := svc.ChatStream(context.Background(), &dto.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "default", sessionId)

	var full strings.Builder
	for f := range out {
		full.WriteString(f)
	}
	assert.Equal(t, "Hello", full.String())
	assert.NoError(t, <-completion)

	// Persistence happens after channel close; wait for the writer.
	assert.Eventually(t, func() bool {
		return len(repo.bySession("default")) == 2
	}, time.Second, 10*time.Millisecond)

	stored := repo.bySession("default")
	assert.Equal(t, "Hello", stored[1].Content)
}

func TestChatStreamCancellationDiscardsPartial(t *testing.T) {
	release := make(chan struct{})
	provider := &scriptedProvider{name: "ollama", fragments: []string{"partial", "rest"}, block: release}
	svc, repo := newTestChatService(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	out, _, _, err := svc.ChatStream(ctx, &dto.ChatRequest{Message: "hi"})
	require.NoError(t, err)

	first := <-out
	assert.Equal(t, "partial", first)
	cancel()
	close(release)
	for range out {
	}

	// Only the user message survives; the partial answer is dropped.
	time.Sleep(50 * time.Millisecond)
	stored := repo.bySession("default")
	require.Len(t, stored, 1)
	assert.Equal(t, entity.ChatMessageRoleUser, stored[0].Role)
}

func TestChatStreamReportsPersistFailure(t *testing.T) {
	svc, repo := newTestChatService(t, &scriptedProvider{name: "ollama", fragments: []string{"Hel", "lo"}})
	repo.rejectRole(entity.ChatMessageRoleAssistant)

	out, completion, _, err := svc.ChatStream(context.Background(), &dto.ChatRequest{Message: "hi"})
	require.NoError(t, err)

	var full strings.Builder
	for f := range out {
		full.WriteString(f)
	}
	assert.Equal(t, "Hello", full.String())

	// The stream completed but the turn was not saved; the caller must
	// hear about it instead of getting a clean finish.
	perr := <-completion
	require.Error(t, perr)
	assert.Contains(t, perr.Error(), "persist assistant message")

	stored := repo.bySession("default")
	require.Len(t, stored, 1)
	assert.Equal(t, entity.ChatMessageRoleUser, stored[0].Role)
}

func TestChatStreamSurvivesSessionSwitch(t *testing.T) {
	release := make(chan struct{})
	provider := &scriptedProvider{name: "ollama", fragments: []string{"Hel", "lo"}, answer: "evening reply", block: release}
	svc, repo := newTestChatService(t, provider)

	out, completion, _, err := svc.ChatStream(context.Background(), &dto.ChatRequest{SessionId: "morning", Message: "first question"})
	require.NoError(t, err)
	assert.Equal(t, "Hel", <-out)

	// The user moves to another session while the answer is still
	// streaming. That turn completes independently.
	resp, err := svc.Chat(context.Background(), &dto.ChatRequest{SessionId: "evening", Message: "second question"})
	require.NoError(t, err)
	assert.Equal(t, "evening", resp.SessionId)

	close(release)
	for range out {
	}
	require.NoError(t, <-completion)

	// The in-flight answer lands under the session that issued it.
	assert.Eventually(t, func() bool {
		return len(repo.bySession("morning")) == 2
	}, time.Second, 10*time.Millisecond)

	morning := repo.bySession("morning")
	assert.Equal(t, "first question", morning[0].Content)
	assert.Equal(t, "Hello", morning[1].Content)

	evening := repo.bySession("evening")
	require.Len(t, evening, 2)
	assert.Equal(t, "second question", evening[0].Content)
	assert.Equal(t, "evening reply", evening[1].Content)
	for _, m := range evening {
		assert.NotEqual(t, "Hello", m.Content)
		assert.NotEqual(t, "first question", m.Content)
	}
}

func TestListSessionsAlwaysIncludesDefault(t *testing.T) {
	svc, repo := newTestChatService(t, &scriptedProvider{name: "ollama", fragments: []string{"ok"}})

	resp, err := svc.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, resp.Sessions)

	require.NoError(t, repo.Create(context.Background(), &entity.ChatMessage{
		SessionId: "14.03.2025", Role: entity.ChatMessageRoleUser, Content: "x",
	}))

	resp, err = svc.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Contains(t, resp.Sessions, "default")
	assert.Contains(t, resp.Sessions, "14.03.2025")
}

func TestDeleteSessionClearsMessages(t *testing.T) {
	svc, repo := newTestChatService(t, &scriptedProvider{name: "ollama", fragments: []string{"ok"}})

	_, err := svc.Chat(context.Background(), &dto.ChatRequest{SessionId: "doomed", Message: "hello"})
	require.NoError(t, err)
	require.Len(t, repo.bySession("doomed"), 2)

	require.NoError(t, svc.DeleteSession(context.Background(), "doomed"))
	assert.Empty(t, repo.bySession("doomed"))
}

func TestSetProvider(t *testing.T) {
	svc, _ := newTestChatService(t,
		&scriptedProvider{name: "ollama", fragments: []string{"ok"}},
		&scriptedProvider{name: "deepseek", fragments: []string{"ok"}},
	)

	assert.NoError(t, svc.SetProvider("deepseek"))
	assert.ErrorIs(t, svc.SetProvider("gemini"), ErrUnknownProvider)
}

func TestProvidersStatus(t *testing.T) {
	svc, _ := newTestChatService(t,
		&scriptedProvider{name: "ollama", fragments: []string{"ok"}},
		&scriptedProvider{name: "deepseek", fragments: []string{"ok"}},
	)

	resp, err := svc.Providers(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Providers, 2)
	assert.True(t, resp.Providers[0].Active)
	assert.False(t, resp.Providers[1].Active)
}
