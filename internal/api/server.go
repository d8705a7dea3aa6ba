package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	answerapi "github.com/teamdocs/rag-backend/internal/api/answer"
	"github.com/teamdocs/rag-backend/internal/api/docs"
	documentsapi "github.com/teamdocs/rag-backend/internal/api/documents"
	"github.com/teamdocs/rag-backend/internal/api/middleware"
)

// IndexPinger reports whether the vector index is reachable
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	documentsHandler *documentsapi.Handler,
	answerHandler *answerapi.Handler,
	pinger IndexPinger,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                 // Recover from panics
	r.Use(chimiddleware.RequestID)                 // Add request ID
	r.Use(middleware.Logger(logger))               // Log requests
	r.Use(middleware.CORS)                         // Handle CORS
	r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout

	// Health check reflects index reachability: the service is useless
	// without its vector collection
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := pinger.Ping(r.Context()); err != nil {
			logger.Error("health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{
				"status":    "unhealthy",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"error":     err.Error(),
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"components": map[string]string{
				"vector_store": "healthy",
				"api":          "healthy",
			},
		})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	documentsapi.RegisterRoutes(r, documentsHandler)
	answerapi.RegisterRoutes(r, answerHandler)

	return r
}
