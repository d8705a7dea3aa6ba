package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/integration/completion"
)

// AnswerUsecase implements question answering over a team's documents
type AnswerUsecase struct {
	embedder    EmbeddingConnector
	index       VectorIndex
	completer   CompletionConnector
	searchLimit int
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// NewUsecase creates a new answer use case
func NewUsecase(
	embedder EmbeddingConnector,
	index VectorIndex,
	completer CompletionConnector,
	searchLimit int,
	maxTokens int,
	temperature float64,
	logger *zap.Logger,
) *AnswerUsecase {
	return &AnswerUsecase{
		embedder:    embedder,
		index:       index,
		completer:   completer,
		searchLimit: searchLimit,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Answer retrieves the most relevant chunks for the question within the
// team's corpus and composes a cited answer from them. When retrieval finds
// nothing the completion backend is never called and the result carries the
// no_context status.
func (uc *AnswerUsecase) Answer(ctx context.Context, teamID, question string) (*entity.AnswerResult, error) {
	if teamID == "" {
		return nil, entity.ErrMissingTeamID
	}
	if question == "" {
		return nil, entity.ErrMissingQuestion
	}

	vector, err := uc.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := uc.index.Search(ctx, teamID, vector, uc.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	contextParts, sources := uc.collectContext(ctx, teamID, hits)
	if len(contextParts) == 0 {
		ctxzap.Info(ctx, "no context found for question")
		return &entity.AnswerResult{
			Answer:  "No relevant documents found",
			Sources: []entity.Source{},
			Status:  entity.AnswerStatusNoContext,
		}, nil
	}

	answer, err := uc.complete(ctx, question, contextParts)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	ctxzap.Info(ctx, "answer composed",
		zap.Int("context_chunks", len(contextParts)),
		zap.Int("sources", len(sources)))

	return &entity.AnswerResult{
		Answer:  answer,
		Sources: sources,
		Status:  entity.AnswerStatusSuccess,
	}, nil
}

// collectContext turns search hits into prompt context parts and their
// distinct sources. Hits whose team does not match the requester are
// discarded outright; the index already filters server-side, so a mismatch
// here means the index misbehaved and must not leak into the prompt.
// Duplicate chunk texts contribute one part, duplicate (document, page)
// pairs one source, both keeping first-seen order.
func (uc *AnswerUsecase) collectContext(ctx context.Context, teamID string, hits []entity.SearchHit) ([]string, []entity.Source) {
	seenTexts := make(map[string]struct{})
	seenSources := make(map[entity.Source]struct{})

	var parts []string
	var sources []entity.Source

	for _, hit := range hits {
		if hit.TeamID != teamID {
			ctxzap.Error(ctx, "search hit from foreign team discarded",
				zap.String("hit_team_id", hit.TeamID),
				zap.String("chunk_id", hit.ChunkID))
			continue
		}

		text := strings.TrimSpace(hit.Text)
		if _, ok := seenTexts[text]; ok {
			continue
		}
		seenTexts[text] = struct{}{}
		parts = append(parts, fmt.Sprintf("[Document: %s, Page: %d]\n%s", hit.DocName, hit.PageNumber, text))

		src := entity.Source{DocName: hit.DocName, PageNumber: hit.PageNumber}
		if _, ok := seenSources[src]; !ok {
			seenSources[src] = struct{}{}
			sources = append(sources, src)
		}
	}

	return parts, sources
}

func (uc *AnswerUsecase) complete(ctx context.Context, question string, contextParts []string) (string, error) {
	messages := composePrompt(question, contextParts)

	temperature := uc.temperature
	answer, err := uc.completer.Complete(ctx, messages, completion.Options{
		MaxTokens:   uc.maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}

	return answer, nil
}
