package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/api"
	answerapi "github.com/teamdocs/rag-backend/internal/api/answer"
	documentsapi "github.com/teamdocs/rag-backend/internal/api/documents"
	"github.com/teamdocs/rag-backend/internal/config"
	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/integration/completion"
	"github.com/teamdocs/rag-backend/internal/integration/embedding"
	"github.com/teamdocs/rag-backend/internal/integration/extractor"
	"github.com/teamdocs/rag-backend/internal/integration/qdrant"
	"github.com/teamdocs/rag-backend/internal/pkg/validator"
	"github.com/teamdocs/rag-backend/internal/ratelimit"
	"github.com/teamdocs/rag-backend/internal/usecase/answer"
	"github.com/teamdocs/rag-backend/internal/usecase/ingest"
)

// embeddingConnector is the union of the gateway methods the pipelines and
// the startup checks need
type embeddingConnector interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Warmup(ctx context.Context) error
	Dimensions() int
	Model() string
}

type vectorIndex interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, chunks []entity.Chunk) error
	Search(ctx context.Context, teamID string, vector []float32, limit int) ([]entity.SearchHit, error)
	DeleteDocument(ctx context.Context, teamID, documentID string) (int, error)
	ListDocuments(ctx context.Context, teamID string) ([]entity.DocumentSummary, error)
	Ping(ctx context.Context) error
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Initialize external service connectors (with mock support)
	var embedder embeddingConnector
	var completer answer.CompletionConnector
	var pageExtractor documentsapi.ExtractorConnector
	var index vectorIndex

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = embedding.NewMockConnector(cfg.QdrantCfg.Dimension, logger)
		completer = completion.NewMockConnector(logger)
		pageExtractor = extractor.NewMockConnector(logger)
		index = qdrant.NewMemoryIndex(logger)
	} else {
		logger.Info("Using real connectors for external services")
		embedder = embedding.NewConnector(cfg.EmbeddingCfg, logger)
		completer = completion.NewConnector(cfg.CompletionCfg, logger)
		pageExtractor = extractor.NewConnector(cfg.ExtractorCfg, logger)
		index = qdrant.NewConnector(cfg.QdrantCfg, logger)
	}

	// Prepare the collection before anything can write to it
	if err := index.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	logger.Info("Vector collection ready",
		zap.String("collection", cfg.QdrantCfg.Collection),
		zap.Int("dimension", cfg.QdrantCfg.Dimension),
	)

	// Warm up the embedding backend and fail fast on a dimension mismatch:
	// vectors of the wrong width would poison the collection
	if err := embedder.Warmup(ctx); err != nil {
		return nil, fmt.Errorf("embedding warmup: %w", err)
	}
	if got := embedder.Dimensions(); got != cfg.QdrantCfg.Dimension {
		return nil, fmt.Errorf("%w: model %q produces %d dimensions, collection expects %d",
			entity.ErrDimensionMismatch, embedder.Model(), got, cfg.QdrantCfg.Dimension)
	}
	logger.Info("Embedding backend ready",
		zap.String("model", embedder.Model()),
		zap.Int("dimensions", embedder.Dimensions()),
	)

	// Initialize admission control
	limiter := ratelimit.NewLimiter(cfg.RateLimitCfg.Window, cfg.RateLimitCfg.MaxRequests, logger)

	// Initialize validators
	uploadValidator := validator.NewUploadValidator(cfg.MaxUploadSize)

	// Initialize use cases
	ingestUC := ingest.NewUsecase(embedder, index, cfg.ChunkSize, logger)
	answerUC := answer.NewUsecase(
		embedder,
		index,
		completer,
		cfg.SearchLimit,
		cfg.CompletionCfg.MaxTokens,
		cfg.CompletionCfg.Temperature,
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	documentsHandler := documentsapi.NewHandler(ingestUC, pageExtractor, limiter, uploadValidator, cfg.MaxUploadSize)
	answerHandler := answerapi.NewHandler(answerUC, limiter)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(documentsHandler, answerHandler, index, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		logger: logger,
	}, nil
}
