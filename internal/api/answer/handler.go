package answer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/pkg/logger"
)

type Handler struct {
	usecase AnswerUsecase
	limiter AdmissionController
}

func NewHandler(usecase AnswerUsecase, limiter AdmissionController) *Handler {
	return &Handler{
		usecase: usecase,
		limiter: limiter,
	}
}

// Answer handles POST /answer
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Answer")

	var req entity.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if req.TeamID == "" {
		h.respondError(ctx, w, http.StatusUnauthorized, "team_id is required", nil)
		return
	}
	ctx = logger.WithTeam(ctx, req.TeamID)

	if req.Question == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "question is required", nil)
		return
	}

	if !h.limiter.Allow(req.TeamID) {
		h.respondError(ctx, w, http.StatusTooManyRequests, "rate limit exceeded", entity.ErrRateLimited)
		return
	}

	res, err := h.usecase.Answer(ctx, req.TeamID, req.Question)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "answer generated",
		zap.String("status", string(res.Status)),
		zap.Int("sources", len(res.Sources)))

	h.respondJSON(w, http.StatusOK, entity.ToAnswerResponse(res))
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	h.respondJSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// handleUsecaseError keeps the original contract: validation problems map to
// 4xx, but backend failures inside the pipeline come back as a 200 payload
// with the error status so clients always get an answer-shaped body.
func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrMissingTeamID):
		h.respondError(ctx, w, http.StatusUnauthorized, "team_id is required", err)
	case errors.Is(err, entity.ErrMissingQuestion):
		h.respondError(ctx, w, http.StatusBadRequest, "question is required", err)
	default:
		ctxzap.Error(ctx, "answer pipeline failed", zap.Error(err))
		h.respondJSON(w, http.StatusOK, &entity.AnswerResponse{
			Answer:  "Error generating answer",
			Sources: [][2]any{},
			Status:  entity.AnswerStatusError,
		})
	}
}
