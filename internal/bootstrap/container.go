package bootstrap

import (
	"context"
	"log"

	"db-rag-be/internal/config"
	"db-rag-be/internal/controller"
	"db-rag-be/internal/pkg/logger"
	"db-rag-be/internal/repository/implementation"
	"db-rag-be/internal/service"
	"db-rag-be/internal/websocket"
	"db-rag-be/pkg/embedding"
	"db-rag-be/pkg/llm/factory"
	"db-rag-be/pkg/rag/catalog"
	"db-rag-be/pkg/rag/orchestrator"
	"db-rag-be/pkg/rag/sqlagent"
	"db-rag-be/pkg/rag/vectoragent"

	pkgNats "db-rag-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QueryController    controller.IQueryController
	DocumentController controller.IDocumentController
	CatalogController  controller.ICatalogController
	SystemController   controller.ISystemController

	// WebSocket chat
	ChatHandler *websocket.ChatHandler

	// Background services (exposed for main.go to run)
	IngestConsumerService service.IIngestConsumerService

	// Core components shared with the worker and CLI entrypoints
	Orchestrator   *orchestrator.Orchestrator
	CatalogManager *catalog.Manager
	Logger         logger.ILogger
	NatsPublisher  *pkgNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event bus (in-process queue for ingestion)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding provider
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	}

	// Redis-backed embedding cache; skipped when Redis is unreachable
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, embedding cache disabled: %v", err)
	} else {
		embeddingProvider = embedding.NewCachedProvider(embeddingProvider, rdb, cfg.Rag.EmbeddingCacheTTL)
	}

	// LLM provider
	baseURL := cfg.Ai.OpenAIBaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		baseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, baseURL, cfg.Ai.OpenAIAPIKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// NATS event bus (optional; sync requests and ingestion events)
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Repositories
	documentRepo := implementation.NewDocumentRepository(db)
	catalogRepo := implementation.NewTableCatalogRepository(db)
	schemaRepo := implementation.NewSchemaRepository(db)

	// Retrieval stack
	catalogManager := catalog.NewManager(catalogRepo, schemaRepo, llmProvider, embeddingProvider, sysLogger, catalog.Config{
		MaxContextTables:    cfg.Rag.MaxContextTables,
		SimilarityThreshold: cfg.Rag.SimilarityThreshold,
	})
	sqlAgent := sqlagent.NewAgent(catalogManager, schemaRepo, llmProvider, sysLogger, sqlagent.Config{
		MaxContextTables: cfg.Rag.MaxContextTables,
		MaxResultRows:    cfg.Rag.MaxResultRows,
		EnableValidation: cfg.Rag.EnableQueryValidation,
	})
	vectorAgent := vectoragent.NewAgent(documentRepo, embeddingProvider, sysLogger, vectoragent.Config{
		MaxResults: cfg.Rag.MaxVectorResults,
	})
	orch := orchestrator.New(catalogManager, sqlAgent, vectorAgent, llmProvider, sysLogger, orchestrator.Config{
		EnableSQLSearch:    cfg.Rag.EnableSQLSearch,
		EnableVectorSearch: cfg.Rag.EnableVectorSearch,
		EnableAutoSync:     cfg.Rag.EnableAutoCatalogSync,
		MaxVectorResults:   cfg.Rag.MaxVectorResults,
	})

	// Services
	publisherService := service.NewPublisherService(cfg.Rag.IngestTopic, pubSub)
	ingestConsumerService := service.NewIngestConsumerService(
		pubSub,
		cfg.Rag.IngestTopic,
		documentRepo,
		embeddingProvider,
		natsPub,
		sysLogger,
	)
	documentService := service.NewDocumentService(
		documentRepo,
		vectorAgent,
		publisherService,
		sysLogger,
		cfg.Rag.ChunkSize,
		cfg.Rag.ChunkOverlap,
	)
	catalogService := service.NewCatalogService(catalogManager, catalogRepo, natsPub, sysLogger)
	queryService := service.NewQueryService(orch, sysLogger)

	// Chat over websocket gets an isolated log to keep the main log readable
	chatLogger := logger.NewIsolatedLogger("logs/chat.log")

	return &Container{
		QueryController:       controller.NewQueryController(queryService),
		DocumentController:    controller.NewDocumentController(documentService),
		CatalogController:     controller.NewCatalogController(catalogService),
		SystemController:      controller.NewSystemController(cfg, catalogRepo, documentRepo),
		ChatHandler:           websocket.NewChatHandler(queryService, chatLogger),
		IngestConsumerService: ingestConsumerService,
		Orchestrator:          orch,
		CatalogManager:        catalogManager,
		Logger:                sysLogger,
		NatsPublisher:         natsPub,
	}
}
