package documents

import (
	"context"

	"github.com/teamdocs/rag-backend/internal/entity"
)

type IngestUsecase interface {
	Ingest(ctx context.Context, req *entity.IngestRequest) (int, error)
	ListDocuments(ctx context.Context, teamID string) ([]entity.DocumentSummary, error)
	DeleteDocument(ctx context.Context, teamID, documentID string) (int, error)
}

type ExtractorConnector interface {
	ExtractPages(ctx context.Context, filename string, content []byte) ([]string, error)
}

type AdmissionController interface {
	Allow(teamID string) bool
}
