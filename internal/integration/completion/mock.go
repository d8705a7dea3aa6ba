package completion

import (
	"context"
	"sync/atomic"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/entity"
)

// MockConnector returns a canned grounded answer and counts invocations so
// tests can assert the completion backend was (or was not) called.
type MockConnector struct {
	logger *zap.Logger
	calls  atomic.Int64

	// Answer overrides the canned response when set
	Answer string
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Complete(ctx context.Context, messages []entity.Message, _ Options) (string, error) {
	m.calls.Add(1)
	ctxzap.Info(ctx, "[MOCK] generating completion", zap.Int("message_count", len(messages)))

	if m.Answer != "" {
		return m.Answer, nil
	}
	return "Based on the provided context, see the cited documents for details.", nil
}

// Calls reports how many completions were requested
func (m *MockConnector) Calls() int64 {
	return m.calls.Load()
}
