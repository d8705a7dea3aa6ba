package extractor

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector treats the uploaded bytes as plain text and splits pages on
// form-feed characters. Good enough for local runs and tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) ExtractPages(ctx context.Context, filename string, content []byte) ([]string, error) {
	pages := strings.Split(string(content), "\f")

	ctxzap.Info(ctx, "[MOCK] extracted pages",
		zap.String("filename", filename),
		zap.Int("page_count", len(pages)),
	)

	return pages, nil
}
