package ingest

import (
	"context"

	"github.com/teamdocs/rag-backend/internal/entity"
)

type EmbeddingConnector interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type VectorIndex interface {
	Upsert(ctx context.Context, chunks []entity.Chunk) error
	DeleteDocument(ctx context.Context, teamID, documentID string) (int, error)
	ListDocuments(ctx context.Context, teamID string) ([]entity.DocumentSummary, error)
}
