package documents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/pkg/logger"
	"github.com/teamdocs/rag-backend/internal/pkg/validator"
)

type Handler struct {
	usecase       IngestUsecase
	extractor     ExtractorConnector
	limiter       AdmissionController
	validator     *validator.Validator
	maxUploadSize int64
}

func NewHandler(
	usecase IngestUsecase,
	extractor ExtractorConnector,
	limiter AdmissionController,
	validator *validator.Validator,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		usecase:       usecase,
		extractor:     extractor,
		limiter:       limiter,
		validator:     validator,
		maxUploadSize: maxUploadSize,
	}
}

// Upload handles POST /upload
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Upload")

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	teamID := r.FormValue("team_id")
	if teamID == "" {
		h.respondError(ctx, w, http.StatusUnauthorized, "team_id is required", nil)
		return
	}
	ctx = logger.WithTeam(ctx, teamID)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "no file part", err)
		return
	}
	defer file.Close()

	if err := h.validator.ValidateUpload(header); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	documentID := r.FormValue("document_id")
	if documentID == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "document_id is required", nil)
		return
	}

	if !h.limiter.Allow(teamID) {
		h.respondError(ctx, w, http.StatusTooManyRequests, "rate limit exceeded", entity.ErrRateLimited)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read file", err)
		return
	}

	docName := validator.SanitizeFilename(header.Filename)

	ctxzap.Info(ctx, "processing upload",
		zap.String("document_id", documentID),
		zap.String("filename", docName),
		zap.Int("size", len(content)))

	pages, err := h.extractor.ExtractPages(ctx, docName, content)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	chunks, err := h.usecase.Ingest(ctx, &entity.IngestRequest{
		TeamID:     teamID,
		DocumentID: documentID,
		DocName:    docName,
		Pages:      pages,
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, &entity.UploadResponse{
		Status:          "success",
		ChunksProcessed: chunks,
		DocumentID:      documentID,
		Filename:        docName,
	})
}

// ListDocuments handles GET /documents
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListDocuments")

	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		h.respondError(ctx, w, http.StatusUnauthorized, "team_id is required", nil)
		return
	}
	ctx = logger.WithTeam(ctx, teamID)

	docs, err := h.usecase.ListDocuments(ctx, teamID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	if docs == nil {
		docs = []entity.DocumentSummary{}
	}

	ctxzap.Info(ctx, "documents listed", zap.Int("count", len(docs)))
	h.respondJSON(w, http.StatusOK, &entity.ListDocumentsResponse{
		Status:    "success",
		Documents: docs,
	})
}

// DeleteDocument handles DELETE /documents/{document_id}
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "document_id")

	ctx = logger.AddFields(ctx,
		zap.String("document_id", documentID),
		zap.String("action", "DeleteDocument"),
	)

	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		h.respondError(ctx, w, http.StatusUnauthorized, "team_id is required", nil)
		return
	}
	ctx = logger.WithTeam(ctx, teamID)

	deleted, err := h.usecase.DeleteDocument(ctx, teamID, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, &entity.DeleteDocumentResponse{
		Status:         "success",
		DocumentID:     documentID,
		VectorsDeleted: deleted,
	})
}

// Helper methods
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

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrMissingTeamID):
		h.respondError(ctx, w, http.StatusUnauthorized, "team_id is required", err)
	case errors.Is(err, entity.ErrMissingDocumentID), errors.Is(err, entity.ErrInvalidFile):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, entity.ErrRateLimited):
		h.respondError(ctx, w, http.StatusTooManyRequests, "rate limit exceeded", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
