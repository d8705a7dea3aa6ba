package embedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teamdocs/rag-backend/internal/config"
	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/integration/common"
	pkghttp "github.com/teamdocs/rag-backend/pkg/http"
)

const embeddingsEndpoint = "/embeddings"

// Connector talks to an OpenAI-compatible embeddings API. Embeddings are a
// pure function of their input text, so results are cached with a TTL to
// avoid re-embedding repeated fragments and queries.
type Connector struct {
	config     config.EmbeddingConfig
	connector  *pkghttp.Connector
	logger     *zap.Logger
	cache      *gocache.Cache
	dimensions int
}

func NewConnector(
	cfg config.EmbeddingConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
		cache:     gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed generates the embedding vector for a single text
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(text); ok {
		return cached.([]float32), nil
	}

	vector, err := retry.DoWithData(func() ([]float32, error) {
		return c.embed(ctx, text)
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrEmbeddingBackend, err)
	}

	c.cache.SetDefault(text, vector)
	return vector, nil
}

// EmbedBatch generates one vector per input text, preserving input order.
// Items are embedded concurrently by a bounded worker pool; a single item's
// failure fails the whole batch with no partial results.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vector, err := c.Embed(gctx, text)
			if err != nil {
				return err
			}
			vectors[i] = vector
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

// Warmup performs one real embedding call to surface backend
// misconfiguration at startup instead of on the first user request. It also
// fixes the vector dimension reported by Dimensions.
func (c *Connector) Warmup(ctx context.Context) error {
	vector, err := c.Embed(ctx, "warm up text")
	if err != nil {
		return fmt.Errorf("embedding warmup: %w", err)
	}

	c.dimensions = len(vector)
	c.logger.Info("embedding backend warmed up",
		zap.String("model", c.config.Model),
		zap.Int("dimensions", c.dimensions),
	)

	return nil
}

// Dimensions returns the vector dimension observed during Warmup
func (c *Connector) Dimensions() int {
	return c.dimensions
}

// Model returns the embedding model identifier
func (c *Connector) Model() string {
	return c.config.Model
}

func (c *Connector) embed(ctx context.Context, text string) ([]float32, error) {
	req := embeddingRequest{
		Input: text,
		Model: c.config.Model,
	}

	var resp embeddingResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, embeddingsEndpoint, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}

	ctxzap.Debug(ctx, "text embedded",
		zap.Int("text_length", len(text)),
		zap.Int("dimensions", len(resp.Data[0].Embedding)),
	)

	return resp.Data[0].Embedding, nil
}
