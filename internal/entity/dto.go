package entity

// IngestRequest carries one uploaded document through the ingestion pipeline.
// Pages holds one extracted text blob per page, in page order; pages without
// text are empty strings.
type IngestRequest struct {
	TeamID     string
	DocumentID string
	DocName    string
	Pages      []string
}

type UploadResponse struct {
	Status          string `json:"status"`
	ChunksProcessed int    `json:"chunks_processed"`
	DocumentID      string `json:"document_id"`
	Filename        string `json:"filename"`
}

type AnswerRequest struct {
	TeamID   string `json:"team_id"`
	Question string `json:"question"`
}

type AnswerResponse struct {
	Answer  string       `json:"answer"`
	Sources [][2]any     `json:"sources"`
	Status  AnswerStatus `json:"status"`
}

// ToAnswerResponse converts an AnswerResult into its wire form, rendering
// each source as a [doc_name, page_number] pair.
func ToAnswerResponse(res *AnswerResult) *AnswerResponse {
	sources := make([][2]any, 0, len(res.Sources))
	for _, s := range res.Sources {
		sources = append(sources, [2]any{s.DocName, s.PageNumber})
	}
	return &AnswerResponse{
		Answer:  res.Answer,
		Sources: sources,
		Status:  res.Status,
	}
}

type ListDocumentsResponse struct {
	Status    string            `json:"status"`
	Documents []DocumentSummary `json:"documents"`
}

type DeleteDocumentResponse struct {
	Status         string `json:"status"`
	DocumentID     string `json:"document_id"`
	VectorsDeleted int    `json:"vectors_deleted"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
