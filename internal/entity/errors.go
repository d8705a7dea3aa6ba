package entity

import "errors"

// Domain errors
var (
	// Caller contract violations (never retried)
	ErrInvalidChunkSize  = errors.New("chunk size must be positive")
	ErrMissingTeamID     = errors.New("team_id is required")
	ErrMissingDocumentID = errors.New("document_id is required")
	ErrMissingQuestion   = errors.New("question is required")
	ErrInvalidFile       = errors.New("invalid file")

	// Backend failures
	ErrEmbeddingBackend  = errors.New("embedding backend failed")
	ErrIndexUnavailable  = errors.New("vector index unavailable")
	ErrCompletionBackend = errors.New("completion backend failed")
	ErrExtractionBackend = errors.New("page extraction failed")

	// Startup configuration failures
	ErrDimensionMismatch = errors.New("embedding dimension does not match index collection")

	// Throttling signal, distinct from system errors
	ErrRateLimited = errors.New("rate limit exceeded")
)
