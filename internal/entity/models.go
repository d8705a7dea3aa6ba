package entity

// AnswerStatus represents the outcome of an answer request
type AnswerStatus string

const (
	AnswerStatusSuccess   AnswerStatus = "success"
	AnswerStatusNoContext AnswerStatus = "no_context"
	AnswerStatusError     AnswerStatus = "error"
)

// Chunk is the atomic retrievable unit: a bounded text fragment with its
// embedding and the metadata needed for citation. TeamID is set at creation
// and is the sole isolation boundary for every index operation.
type Chunk struct {
	ChunkID        string
	TeamID         string
	DocumentID     string
	DocName        string
	PageNumber     int // 1-based
	ChunkIndex     int // 0-based, order within page
	Text           string
	EmbeddingModel string
	Vector         []float32
}

// SearchHit is a chunk returned by a similarity search together with its
// relevance score. Hits are ordered by descending score; ties keep the
// index's insertion order.
type SearchHit struct {
	ChunkID    string
	TeamID     string
	DocumentID string
	DocName    string
	PageNumber int
	Text       string
	Score      float64
}

// DocumentSummary describes one ingested document, reconstructed by
// aggregating the chunk payloads stored for a team.
type DocumentSummary struct {
	DocumentID string `json:"document_id"`
	DocName    string `json:"doc_name"`
	PageCount  int    `json:"page_count"`
	ChunkCount int    `json:"chunk_count"`
}

// Source identifies a cited location in an ingested document
type Source struct {
	DocName    string
	PageNumber int
}

// AnswerResult is the outcome of one question: the generated answer, the
// distinct sources that contributed context, and the overall status.
// Constructed fresh per request, never persisted.
type AnswerResult struct {
	Answer  string
	Sources []Source
	Status  AnswerStatus
}

// Message is a single prompt message for the completion backend
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
