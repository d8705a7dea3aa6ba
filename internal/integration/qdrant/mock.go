package qdrant

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/entity"
)

// MemoryIndex is an in-process stand-in for Qdrant used when mocks are
// enabled and in tests. It applies the same team scoping and cosine ranking
// semantics as the real adapter.
type MemoryIndex struct {
	logger *zap.Logger

	mu     sync.RWMutex
	chunks []entity.Chunk // insertion order, for stable ties
	byID   map[string]int // chunk_id -> index into chunks
}

func NewMemoryIndex(logger *zap.Logger) *MemoryIndex {
	return &MemoryIndex{
		logger: logger,
		byID:   make(map[string]int),
	}
}

func (m *MemoryIndex) EnsureCollection(ctx context.Context) error {
	ctxzap.Info(ctx, "[MOCK] memory index ready")
	return nil
}

func (m *MemoryIndex) Upsert(_ context.Context, chunks []entity.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range chunks {
		if i, ok := m.byID[ch.ChunkID]; ok {
			m.chunks[i] = ch
			continue
		}
		m.byID[ch.ChunkID] = len(m.chunks)
		m.chunks = append(m.chunks, ch)
	}

	return nil
}

func (m *MemoryIndex) Search(_ context.Context, teamID string, vector []float32, limit int) ([]entity.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []entity.SearchHit
	for _, ch := range m.chunks {
		if ch.TeamID != teamID {
			continue
		}
		hits = append(hits, entity.SearchHit{
			ChunkID:    ch.ChunkID,
			TeamID:     ch.TeamID,
			DocumentID: ch.DocumentID,
			DocName:    ch.DocName,
			PageNumber: ch.PageNumber,
			Text:       ch.Text,
			Score:      cosine(vector, ch.Vector),
		})
	}

	// Stable sort keeps insertion order for equal scores
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	return hits, nil
}

func (m *MemoryIndex) DeleteDocument(_ context.Context, teamID, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.chunks[:0]
	deleted := 0
	for _, ch := range m.chunks {
		if ch.TeamID == teamID && ch.DocumentID == documentID {
			deleted++
			continue
		}
		kept = append(kept, ch)
	}
	m.chunks = kept

	m.byID = make(map[string]int, len(m.chunks))
	for i, ch := range m.chunks {
		m.byID[ch.ChunkID] = i
	}

	return deleted, nil
}

func (m *MemoryIndex) ListDocuments(_ context.Context, teamID string) ([]entity.DocumentSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make(map[string]*entity.DocumentSummary)
	for _, ch := range m.chunks {
		if ch.TeamID != teamID {
			continue
		}
		s, ok := summaries[ch.DocumentID]
		if !ok {
			s = &entity.DocumentSummary{
				DocumentID: ch.DocumentID,
				DocName:    ch.DocName,
			}
			summaries[ch.DocumentID] = s
		}
		s.ChunkCount++
		if ch.PageNumber > s.PageCount {
			s.PageCount = ch.PageNumber
		}
	}

	result := make([]entity.DocumentSummary, 0, len(summaries))
	for _, s := range summaries {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocumentID < result[j].DocumentID
	})

	return result, nil
}

func (m *MemoryIndex) Ping(context.Context) error {
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
