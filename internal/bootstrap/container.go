package bootstrap

import (
	"log"

	"github.com/devora-bit/sphere/internal/config"
	"github.com/devora-bit/sphere/internal/constant"
	"github.com/devora-bit/sphere/internal/controller"
	"github.com/devora-bit/sphere/internal/pkg/logger"
	"github.com/devora-bit/sphere/internal/repository/implementation"
	"github.com/devora-bit/sphere/internal/repository/memory"
	"github.com/devora-bit/sphere/internal/repository/unitofwork"
	"github.com/devora-bit/sphere/internal/service"
	"github.com/devora-bit/sphere/pkg/ai"
	"github.com/devora-bit/sphere/pkg/ai/deepseek"
	"github.com/devora-bit/sphere/pkg/ai/ollama"
	"github.com/devora-bit/sphere/pkg/embedding"
	pkgNats "github.com/devora-bit/sphere/pkg/nats"
	"github.com/devora-bit/sphere/pkg/rag/assembler"
	"github.com/devora-bit/sphere/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	KnowledgeController controller.IKnowledgeController
	NoteController      controller.INoteController
	TaskController      controller.ITaskController
	EventController     controller.IEventController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS is auxiliary. A missing broker degrades to no events, not a
	// dead server.
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// 3. AI Providers
	registry := ai.NewRegistry()
	registry.Register(ollama.NewProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel))
	if cfg.Ai.DeepSeekAPIKey != "" {
		registry.Register(deepseek.NewProvider(cfg.Ai.DeepSeekAPIKey, cfg.Ai.DeepSeekBaseURL, cfg.Ai.DeepSeekModel))
	}
	log.Printf("[INFO] AI providers registered: %v (active: %s)", registry.Names(), cfg.Ai.Provider)

	// 4. Retrieval Index
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel, 768)
	chunkRepo := implementation.NewDocumentChunkRepository(db)
	index := vectorstore.NewPgVectorIndex(chunkRepo, embeddingProvider)

	// 5. Context Assembly
	dataSource := service.NewRepositoryDataSource(uowFactory)
	ctxAssembler := assembler.NewAssembler(dataSource, index, sysLogger)

	sessionState := memory.NewSessionStateRepository()

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IngestTopic,
		uowFactory,
		index,
		natsPub,
		sysLogger,
		cfg.Knowledge.ChunkSize,
		cfg.Knowledge.ChunkOverlap,
	)

	chatService := service.NewChatService(
		uowFactory,
		registry,
		ctxAssembler,
		sessionState,
		natsPub,
		sysLogger,
		cfg.Ai.Provider,
		cfg.Ai.SearchMode,
		cfg.Ai.Temperature,
	)
	knowledgeService := service.NewKnowledgeService(
		uowFactory,
		index,
		publisherService,
		natsPub,
		registry,
		sysLogger,
		cfg.Knowledge.UploadDir,
		cfg.Ai.Provider,
	)
	noteService := service.NewNoteService(uowFactory, natsPub, sysLogger)
	taskService := service.NewTaskService(uowFactory, natsPub, sysLogger)
	eventService := service.NewEventService(uowFactory, natsPub, sysLogger)

	if cfg.Ai.SearchMode != constant.SearchModeKnowledge &&
		cfg.Ai.SearchMode != constant.SearchModeHybrid &&
		cfg.Ai.SearchMode != constant.SearchModeModelOnly {
		log.Printf("[WARN] Unknown AI_SEARCH_MODE %q, falling back to hybrid", cfg.Ai.SearchMode)
	}

	// 7. Controllers
	return &Container{
		ChatController:      controller.NewChatController(chatService, sysLogger),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),
		NoteController:      controller.NewNoteController(noteService),
		TaskController:      controller.NewTaskController(taskService),
		EventController:     controller.NewEventController(eventService),
		ConsumerService:     consumerService,
		Logger:              sysLogger,
	}
}
