package documents

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers document ingestion routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/upload", h.Upload)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.ListDocuments)
		r.Delete("/{document_id}", h.DeleteDocument)
	})
}
