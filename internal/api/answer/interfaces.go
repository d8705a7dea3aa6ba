package answer

import (
	"context"

	"github.com/teamdocs/rag-backend/internal/entity"
)

type AnswerUsecase interface {
	Answer(ctx context.Context, teamID, question string) (*entity.AnswerResult, error)
}

type AdmissionController interface {
	Allow(teamID string) bool
}
