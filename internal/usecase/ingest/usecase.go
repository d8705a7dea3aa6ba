package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/chunker"
	"github.com/teamdocs/rag-backend/internal/entity"
)

// IngestUsecase implements document ingestion business logic
type IngestUsecase struct {
	embedder  EmbeddingConnector
	index     VectorIndex
	chunkSize int
	logger    *zap.Logger
}

// NewUsecase creates a new ingest use case
func NewUsecase(
	embedder EmbeddingConnector,
	index VectorIndex,
	chunkSize int,
	logger *zap.Logger,
) *IngestUsecase {
	return &IngestUsecase{
		embedder:  embedder,
		index:     index,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Ingest chunks and embeds every page of a document and writes the result
// to the index in one batch. Nothing is written until every page has been
// embedded, so a failure leaves no partial document behind. Returns the
// number of chunks stored.
func (uc *IngestUsecase) Ingest(ctx context.Context, req *entity.IngestRequest) (int, error) {
	if req.TeamID == "" {
		return 0, entity.ErrMissingTeamID
	}

	var chunks []entity.Chunk
	for pageIdx, pageText := range req.Pages {
		pageNumber := pageIdx + 1
		if pageText == "" {
			continue
		}

		fragments, err := chunker.Split(pageText, uc.chunkSize)
		if err != nil {
			return 0, fmt.Errorf("split page %d: %w", pageNumber, err)
		}

		vectors, err := uc.embedder.EmbedBatch(ctx, fragments)
		if err != nil {
			return 0, fmt.Errorf("embed page %d: %w", pageNumber, err)
		}

		for i, fragment := range fragments {
			chunks = append(chunks, entity.Chunk{
				ChunkID:        uuid.New().String(),
				TeamID:         req.TeamID,
				DocumentID:     req.DocumentID,
				DocName:        req.DocName,
				PageNumber:     pageNumber,
				ChunkIndex:     i,
				Text:           fragment,
				EmbeddingModel: uc.embedder.Model(),
				Vector:         vectors[i],
			})
		}
	}

	if len(chunks) == 0 {
		ctxzap.Warn(ctx, "document produced no chunks",
			zap.String("document_id", req.DocumentID))
		return 0, nil
	}

	if err := uc.index.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	ctxzap.Info(ctx, "document ingested",
		zap.String("document_id", req.DocumentID),
		zap.Int("pages", len(req.Pages)),
		zap.Int("chunks", len(chunks)))

	return len(chunks), nil
}

// ListDocuments returns every document the team has ingested
func (uc *IngestUsecase) ListDocuments(ctx context.Context, teamID string) ([]entity.DocumentSummary, error) {
	if teamID == "" {
		return nil, entity.ErrMissingTeamID
	}

	docs, err := uc.index.ListDocuments(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes every chunk of the team's document and reports how
// many vectors were deleted
func (uc *IngestUsecase) DeleteDocument(ctx context.Context, teamID, documentID string) (int, error) {
	if teamID == "" {
		return 0, entity.ErrMissingTeamID
	}
	if documentID == "" {
		return 0, entity.ErrMissingDocumentID
	}

	deleted, err := uc.index.DeleteDocument(ctx, teamID, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}

	ctxzap.Info(ctx, "document deleted",
		zap.String("document_id", documentID),
		zap.Int("vectors_deleted", deleted))

	return deleted, nil
}
