package answer

import (
	"context"

	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/integration/completion"
)

type EmbeddingConnector interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	Search(ctx context.Context, teamID string, vector []float32, limit int) ([]entity.SearchHit, error)
}

type CompletionConnector interface {
	Complete(ctx context.Context, messages []entity.Message, opts completion.Options) (string, error)
}
