package answer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/integration/completion"
	"github.com/teamdocs/rag-backend/internal/integration/embedding"
	"github.com/teamdocs/rag-backend/internal/integration/qdrant"
)

// stubIndex returns canned hits, including ones a correct index would have
// filtered out
type stubIndex struct {
	hits []entity.SearchHit
}

func (s *stubIndex) Search(context.Context, string, []float32, int) ([]entity.SearchHit, error) {
	return s.hits, nil
}

type failingIndex struct{}

func (failingIndex) Search(context.Context, string, []float32, int) ([]entity.SearchHit, error) {
	return nil, entity.ErrIndexUnavailable
}

// recordingCompleter captures the prompt it was handed
type recordingCompleter struct {
	messages []entity.Message
	answer   string
}

func (r *recordingCompleter) Complete(_ context.Context, messages []entity.Message, _ completion.Options) (string, error) {
	r.messages = messages
	return r.answer, nil
}

func seedIndex(t *testing.T, index *qdrant.MemoryIndex, embedder *embedding.MockConnector, teamID, docID, docName string, page int, texts ...string) {
	t.Helper()
	chunks := make([]entity.Chunk, 0, len(texts))
	for i, text := range texts {
		vec, err := embedder.Embed(context.Background(), text)
		require.NoError(t, err)
		chunks = append(chunks, entity.Chunk{
			ChunkID:    docID + "-" + string(rune('a'+i)),
			TeamID:     teamID,
			DocumentID: docID,
			DocName:    docName,
			PageNumber: page,
			ChunkIndex: i,
			Text:       text,
			Vector:     vec,
		})
	}
	require.NoError(t, index.Upsert(context.Background(), chunks))
}

func TestAnswer_Success(t *testing.T) {
	logger := zap.NewNop()
	embedder := embedding.NewMockConnector(8, logger)
	index := qdrant.NewMemoryIndex(logger)
	completer := completion.NewMockConnector(logger)

	seedIndex(t, index, embedder, "team-a", "doc-1", "handbook.pdf", 3, "vacation policy details")

	uc := NewUsecase(embedder, index, completer, 15, 1000, 0.2, logger)

	res, err := uc.Answer(context.Background(), "team-a", "what is the vacation policy?")
	require.NoError(t, err)
	assert.Equal(t, entity.AnswerStatusSuccess, res.Status)
	assert.NotEmpty(t, res.Answer)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, entity.Source{DocName: "handbook.pdf", PageNumber: 3}, res.Sources[0])
}

func TestAnswer_TenantIsolation(t *testing.T) {
	logger := zap.NewNop()
	embedder := embedding.NewMockConnector(8, logger)
	index := qdrant.NewMemoryIndex(logger)
	completer := completion.NewMockConnector(logger)

	// team-b owns the only chunk matching the question text exactly
	seedIndex(t, index, embedder, "team-b", "doc-b", "secrets.pdf", 1, "what is the vacation policy?")

	uc := NewUsecase(embedder, index, completer, 15, 1000, 0.2, logger)

	res, err := uc.Answer(context.Background(), "team-a", "what is the vacation policy?")
	require.NoError(t, err)
	assert.Equal(t, entity.AnswerStatusNoContext, res.Status)
	assert.Empty(t, res.Sources)
	assert.Zero(t, completer.Calls())
}

func TestAnswer_ForeignHitsDiscarded(t *testing.T) {
	logger := zap.NewNop()
	embedder := embedding.NewMockConnector(8, logger)

	// A misbehaving index returns another team's chunk with the top score
	index := &stubIndex{hits: []entity.SearchHit{
		{ChunkID: "x", TeamID: "team-b", DocName: "secrets.pdf", PageNumber: 1, Text: "leaked", Score: 0.99},
		{ChunkID: "y", TeamID: "team-a", DocName: "handbook.pdf", PageNumber: 2, Text: "policy", Score: 0.5},
	}}

	rec := &recordingCompleter{answer: "the policy says"}
	uc := NewUsecase(embedder, index, rec, 15, 1000, 0.2, logger)

	res, err := uc.Answer(context.Background(), "team-a", "policy?")
	require.NoError(t, err)
	assert.Equal(t, entity.AnswerStatusSuccess, res.Status)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "handbook.pdf", res.Sources[0].DocName)

	for _, msg := range rec.messages {
		assert.NotContains(t, msg.Content, "leaked")
	}
}

func TestAnswer_DeduplicatesChunksAndSources(t *testing.T) {
	logger := zap.NewNop()
	embedder := embedding.NewMockConnector(8, logger)

	index := &stubIndex{hits: []entity.SearchHit{
		{ChunkID: "1", TeamID: "team-a", DocName: "a.pdf", PageNumber: 1, Text: "same text", Score: 0.9},
		{ChunkID: "2", TeamID: "team-a", DocName: "a.pdf", PageNumber: 1, Text: "same text", Score: 0.8},
		{ChunkID: "3", TeamID: "team-a", DocName: "a.pdf", PageNumber: 1, Text: "other text", Score: 0.7},
	}}

	rec := &recordingCompleter{answer: "ok"}
	uc := NewUsecase(embedder, index, rec, 15, 1000, 0.2, logger)

	res, err := uc.Answer(context.Background(), "team-a", "q")
	require.NoError(t, err)

	// Repeated text appears once in the prompt, the shared source once
	require.Len(t, rec.messages, 2)
	assert.Equal(t, 1, strings.Count(rec.messages[1].Content, "same text"))
	require.Len(t, res.Sources, 1)
	assert.Equal(t, entity.Source{DocName: "a.pdf", PageNumber: 1}, res.Sources[0])
}

func TestAnswer_PromptShape(t *testing.T) {
	logger := zap.NewNop()
	embedder := embedding.NewMockConnector(8, logger)

	index := &stubIndex{hits: []entity.SearchHit{
		{ChunkID: "1", TeamID: "team-a", DocName: "guide.pdf", PageNumber: 4, Text: "remote work rules", Score: 0.9},
	}}

	rec := &recordingCompleter{answer: "ok"}
	uc := NewUsecase(embedder, index, rec, 15, 1000, 0.2, logger)

	_, err := uc.Answer(context.Background(), "team-a", "can I work remotely?")
	require.NoError(t, err)

	require.Len(t, rec.messages, 2)
	assert.Equal(t, "system", rec.messages[0].Role)
	assert.Contains(t, rec.messages[0].Content, "[Document: X, Page: Y]")
	assert.Equal(t, "user", rec.messages[1].Role)
	assert.Contains(t, rec.messages[1].Content, "[Document: guide.pdf, Page: 4]\nremote work rules")
	assert.Contains(t, rec.messages[1].Content, "Question: can I work remotely?")
}

func TestAnswer_IndexFailure(t *testing.T) {
	logger := zap.NewNop()
	uc := NewUsecase(embedding.NewMockConnector(8, logger), failingIndex{}, completion.NewMockConnector(logger), 15, 1000, 0.2, logger)

	_, err := uc.Answer(context.Background(), "team-a", "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrIndexUnavailable)
}

func TestAnswer_Validation(t *testing.T) {
	logger := zap.NewNop()
	uc := NewUsecase(embedding.NewMockConnector(8, logger), qdrant.NewMemoryIndex(logger), completion.NewMockConnector(logger), 15, 1000, 0.2, logger)

	_, err := uc.Answer(context.Background(), "", "q")
	assert.ErrorIs(t, err, entity.ErrMissingTeamID)

	_, err = uc.Answer(context.Background(), "team-a", "")
	assert.ErrorIs(t, err, entity.ErrMissingQuestion)
}
