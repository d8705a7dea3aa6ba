package extractor

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/config"
	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/integration/common"
	pkghttp "github.com/teamdocs/rag-backend/pkg/http"
)

// Connector talks to the external page extraction service that turns an
// uploaded PDF into one text blob per page. Pages without extractable text
// come back as empty strings.
type Connector struct {
	config    config.ExtractorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.ExtractorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

type extractResponse struct {
	Pages []string `json:"pages"`
}

// ExtractPages uploads the document and returns its page texts in order
func (c *Connector) ExtractPages(ctx context.Context, filename string, content []byte) ([]string, error) {
	ctxzap.Info(ctx, "extracting pages",
		zap.String("filename", filename),
		zap.Int("size", len(content)),
	)

	prepareBody := func(writer *multipart.Writer) error {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(content); err != nil {
			return fmt.Errorf("write file content: %w", err)
		}
		return nil
	}

	var resp extractResponse
	err := c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.ExtractEndpoint, prepareBody, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrExtractionBackend, err)
	}

	ctxzap.Info(ctx, "pages extracted", zap.Int("page_count", len(resp.Pages)))

	return resp.Pages, nil
}
