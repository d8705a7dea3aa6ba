package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/config"
	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/integration/common"
	pkghttp "github.com/teamdocs/rag-backend/pkg/http"
)

const completionsEndpoint = "/chat/completions"

// Options override the configured sampling parameters for one call.
// Zero values keep the configured defaults.
type Options struct {
	MaxTokens   int
	Temperature *float64
}

// Connector talks to an OpenAI-compatible chat completions API
type Connector struct {
	config    config.CompletionConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.CompletionConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

type completionRequest struct {
	Model       string           `json:"model"`
	Messages    []entity.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message entity.Message `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt messages to the completion backend and returns
// the generated text, trimmed
func (c *Connector) Complete(ctx context.Context, messages []entity.Message, opts Options) (string, error) {
	req := completionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}

	ctxzap.Debug(ctx, "requesting completion",
		zap.String("model", req.Model),
		zap.Int("message_count", len(messages)),
	)

	var resp completionResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, completionsEndpoint, req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrCompletionBackend, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", entity.ErrCompletionBackend)
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)

	ctxzap.Debug(ctx, "completion received", zap.Int("answer_length", len(answer)))

	return answer, nil
}
