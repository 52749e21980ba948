package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devora-bit/sphere/internal/constant"
	"github.com/devora-bit/sphere/internal/dto"
	"github.com/devora-bit/sphere/internal/entity"
	"github.com/devora-bit/sphere/internal/pkg/logger"
	"github.com/devora-bit/sphere/internal/repository/memory"
	"github.com/devora-bit/sphere/internal/repository/specification"
	"github.com/devora-bit/sphere/internal/repository/unitofwork"
	"github.com/devora-bit/sphere/pkg/ai"
	"github.com/devora-bit/sphere/pkg/events"
	pkgNats "github.com/devora-bit/sphere/pkg/nats"
	"github.com/devora-bit/sphere/pkg/rag/assembler"
	"github.com/devora-bit/sphere/pkg/rag/session"

	"github.com/google/uuid"
)

// ErrSessionBusy is returned when a generation is already running for the
// requested session. Other sessions are unaffected.
var ErrSessionBusy = errors.New("a response is already being generated for this session")

var ErrUnknownProvider = errors.New("unknown AI provider")

type IChatService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	ChatStream(ctx context.Context, req *dto.ChatRequest) (<-chan string, <-chan error, string, error)
	GetHistory(ctx context.Context, sessionId string) (*dto.ChatHistoryResponse, error)
	ListSessions(ctx context.Context) (*dto.SessionListResponse, error)
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	DeleteSession(ctx context.Context, sessionId string) error
	Providers(ctx context.Context) (*dto.ProvidersResponse, error)
	SetProvider(name string) error
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	registry       *ai.Registry
	assembler      *assembler.Assembler
	sessionState   *memory.SessionStateRepository
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger

	defaultMode assembler.Mode
	temperature float64

	mu              sync.RWMutex
	currentProvider string
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	registry *ai.Registry,
	ctxAssembler *assembler.Assembler,
	sessionState *memory.SessionStateRepository,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
	defaultProvider string,
	defaultMode string,
	temperature float64,
) IChatService {
	return &chatService{
		uowFactory:      uowFactory,
		registry:        registry,
		assembler:       ctxAssembler,
		sessionState:    sessionState,
		eventPublisher:  eventPublisher,
		log:             log,
		defaultMode:     assembler.NormalizeMode(defaultMode),
		temperature:     temperature,
		currentProvider: defaultProvider,
	}
}

func (s *chatService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	sessionId := s.resolveSession(req.SessionId)
	mode := s.resolveMode(req.Mode)

	if !s.sessionState.TryAcquire(sessionId) {
		return nil, ErrSessionBusy
	}
	defer s.sessionState.Release(sessionId)

	if err := s.persistMessage(ctx, sessionId, entity.ChatMessageRoleUser, req.Message, ""); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.TypeChatMessageSent, map[string]interface{}{
		"session_id": sessionId,
	})

	messages, err := s.buildMessages(ctx, sessionId, req.Message, mode)
	if err != nil {
		return nil, err
	}

	provider, answer := s.resolveProvider()
	providerName := ""
	if provider != nil {
		providerName = provider.Name()
		answer = provider.Chat(ctx, messages, ai.WithTemperature(s.temperature))
	}

	// The turn is recorded even when the answer is an in-band error
	// message; the transcript must show what happened.
	if err := s.persistMessage(ctx, sessionId, entity.ChatMessageRoleAssistant, answer, providerName); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}
	s.publishEvent(ctx, events.TypeChatResponseReceived, map[string]interface{}{
		"session_id": sessionId,
		"provider":   providerName,
	})

	return &dto.ChatResponse{
		SessionId: sessionId,
		Answer:    answer,
		Provider:  providerName,
	}, nil
}

func (s *chatService) ChatStream(ctx context.Context, req *dto.ChatRequest) (<-chan string, <-chan error, string, error) {
	sessionId := s.resolveSession(req.SessionId)
	mode := s.resolveMode(req.Mode)

	if !s.sessionState.TryAcquire(sessionId) {
		return nil, nil, sessionId, ErrSessionBusy
	}

	if err := s.persistMessage(ctx, sessionId, entity.ChatMessageRoleUser, req.Message, ""); err != nil {
		s.sessionState.Release(sessionId)
		return nil, nil, sessionId, err
	}
	s.publishEvent(ctx, events.TypeChatMessageSent, map[string]interface{}{
		"session_id": sessionId,
	})

	messages, err := s.buildMessages(ctx, sessionId, req.Message, mode)
	if err != nil {
		s.sessionState.Release(sessionId)
		return nil, nil, sessionId, err
	}

	out := make(chan string)
	// Buffered so the producer can report a terminal failure and exit
	// without waiting for the consumer to read it.
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		defer close(out)
		defer s.sessionState.Release(sessionId)

		provider, _ := s.resolveProvider()
		if provider == nil {
			select {
			case out <- constant.NoProvidersStreamMessage:
			case <-ctx.Done():
			}
			return
		}

		var full string
		for fragment := range provider.ChatStream(ctx, messages, ai.WithTemperature(s.temperature)) {
			full += fragment
			select {
			case out <- fragment:
			case <-ctx.Done():
				// The consumer walked away. The partial accumulation is
				// discarded, only naturally completed turns are persisted.
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		// Exactly one write of the complete assistant message. The turn is
		// saved under the session that issued the request, even if the user
		// has since switched sessions.
		if err := s.persistMessage(ctx, sessionId, entity.ChatMessageRoleAssistant, full, provider.Name()); err != nil {
			s.log.Error("chat", "failed to persist streamed response", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
			errCh <- fmt.Errorf("persist assistant message: %w", err)
			return
		}
		s.publishEvent(ctx, events.TypeChatResponseReceived, map[string]interface{}{
			"session_id": sessionId,
			"provider":   provider.Name(),
		})
	}()

	return out, errCh, sessionId, nil
}

func (s *chatService) GetHistory(ctx context.Context, sessionId string) (*dto.ChatHistoryResponse, error) {
	sessionId = s.resolveSession(sessionId)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
		specification.Limit{N: session.HistoryDisplayLimit},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ChatMessageItem, len(messages))
	for i, m := range messages {
		items[i] = dto.ChatMessageItem{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return &dto.ChatHistoryResponse{
		SessionId: sessionId,
		Messages:  items,
	}, nil
}

func (s *chatService) ListSessions(ctx context.Context) (*dto.SessionListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ids, err := uow.ChatMessageRepository().ListSessionIds(ctx)
	if err != nil {
		return nil, err
	}

	// The default session is always offered, even before its first message.
	hasDefault := false
	for _, id := range ids {
		if id == session.DefaultID {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		ids = append([]string{session.DefaultID}, ids...)
	}

	return &dto.SessionListResponse{Sessions: ids}, nil
}

func (s *chatService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.ChatMessageRepository().ListSessionIds(ctx)
	if err != nil {
		return nil, err
	}

	sessionId := session.GenerateID(existing, time.Now())
	s.publishEvent(ctx, events.TypeChatSessionCreated, map[string]interface{}{
		"session_id": sessionId,
	})
	return &dto.CreateSessionResponse{SessionId: sessionId}, nil
}

func (s *chatService) DeleteSession(ctx context.Context, sessionId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, sessionId); err != nil {
		return err
	}
	s.sessionState.Delete(sessionId)
	return nil
}

func (s *chatService) Providers(ctx context.Context) (*dto.ProvidersResponse, error) {
	s.mu.RLock()
	current := s.currentProvider
	s.mu.RUnlock()

	names := s.registry.Names()
	statuses := make([]dto.ProviderStatus, 0, len(names))
	for _, name := range names {
		provider, err := s.registry.Resolve(name)
		if err != nil {
			continue
		}
		statuses = append(statuses, dto.ProviderStatus{
			Name:      name,
			Available: provider.IsAvailable(ctx),
			Active:    name == current,
		})
	}
	return &dto.ProvidersResponse{Providers: statuses}, nil
}

func (s *chatService) SetProvider(name string) error {
	if !s.registry.Has(name) {
		return ErrUnknownProvider
	}
	s.mu.Lock()
	s.currentProvider = name
	s.mu.Unlock()
	return nil
}

func (s *chatService) resolveSession(sessionId string) string {
	if sessionId == "" {
		return session.DefaultID
	}
	return sessionId
}

func (s *chatService) resolveMode(mode string) assembler.Mode {
	if mode == "" {
		return s.defaultMode
	}
	return assembler.NormalizeMode(mode)
}

// resolveProvider returns the active provider, or nil plus the in-band
// message to use when none is configured.
func (s *chatService) resolveProvider() (ai.Provider, string) {
	s.mu.RLock()
	current := s.currentProvider
	s.mu.RUnlock()

	provider, err := s.registry.Resolve(current)
	if err != nil {
		return nil, constant.NoProvidersMessage
	}
	return provider, ""
}

// buildMessages gathers context and recent history into the provider
// message list. The user message passed here is already persisted; history
// is loaded up to and excluding it.
func (s *chatService) buildMessages(ctx context.Context, sessionId, userMessage string, mode assembler.Mode) ([]ai.Message, error) {
	bundle := s.assembler.Gather(ctx, userMessage, mode)
	contextText := s.assembler.Format(bundle)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	stored, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
		specification.Limit{N: session.HistoryDisplayLimit},
	)
	if err != nil {
		return nil, err
	}

	history := make([]ai.Message, 0, len(stored))
	for _, m := range stored {
		role := m.Role
		if role == entity.ChatMessageRoleAssistant {
			role = ai.RoleAssistant
		}
		history = append(history, ai.Message{Role: role, Content: m.Content})
	}
	// The user message was just written, keep it out of the replayed
	// history so it is not sent twice.
	if len(history) > 0 && history[len(history)-1].Content == userMessage && history[len(history)-1].Role == ai.RoleUser {
		history = history[:len(history)-1]
	}

	return s.assembler.BuildMessages(contextText, mode, history, userMessage), nil
}

func (s *chatService) persistMessage(ctx context.Context, sessionId, role, content, provider string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg := entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: sessionId,
		Role:      role,
		Content:   content,
		Provider:  provider,
		CreatedAt: time.Now(),
	}
	return uow.ChatMessageRepository().Create(ctx, &msg)
}

func (s *chatService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.log.Warn("chat", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
