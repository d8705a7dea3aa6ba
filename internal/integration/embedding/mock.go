package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sync/atomic"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is a deterministic in-process embedder used when mocks are
// enabled and in tests. Equal texts always get equal vectors; different
// texts almost always differ.
type MockConnector struct {
	dimensions int
	logger     *zap.Logger
	calls      atomic.Int64
}

func NewMockConnector(dimensions int, logger *zap.Logger) *MockConnector {
	return &MockConnector{
		dimensions: dimensions,
		logger:     logger,
	}
}

func (m *MockConnector) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	ctxzap.Debug(ctx, "[MOCK] embedding text", zap.Int("text_length", len(text)))
	return m.vectorFor(text), nil
}

func (m *MockConnector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding batch", zap.Int("count", len(texts)))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		m.calls.Add(1)
		vectors[i] = m.vectorFor(text)
	}
	return vectors, nil
}

func (m *MockConnector) Warmup(ctx context.Context) error {
	ctxzap.Info(ctx, "[MOCK] embedding warmup", zap.Int("dimensions", m.dimensions))
	return nil
}

func (m *MockConnector) Dimensions() int {
	return m.dimensions
}

func (m *MockConnector) Model() string {
	return "mock-embedding"
}

// Calls reports how many texts were embedded, for test assertions
func (m *MockConnector) Calls() int64 {
	return m.calls.Load()
}

// vectorFor derives a unit vector from an fnv hash of the text
func (m *MockConnector) vectorFor(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vector := make([]float32, m.dimensions)
	var norm float64
	for i := range vector {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed>>11)) / float64(1<<52)
		vector[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vector[0] = 1
		return vector
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}

	return vector
}
