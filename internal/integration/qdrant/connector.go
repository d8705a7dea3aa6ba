// Package qdrant adapts the external Qdrant vector database to the narrow
// index contract the pipelines need. Every read and delete is scoped by
// team_id server-side; the filter is built here and nowhere else.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/config"
	"github.com/teamdocs/rag-backend/internal/entity"
	"github.com/teamdocs/rag-backend/internal/integration/common"
	pkghttp "github.com/teamdocs/rag-backend/pkg/http"
)

const scrollPageSize = 256

// Connector is a REST client for one Qdrant collection storing chunk
// vectors with cosine distance
type Connector struct {
	config    config.QdrantConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.QdrantConfig,
	logger *zap.Logger,
) *Connector {
	// Qdrant authenticates with a raw api-key header, not a Bearer token
	httpCfg := cfg.HTTPClientConfig
	apiKey := httpCfg.Token
	httpCfg.Token = ""

	return &Connector{
		connector: common.NewBaseConnector(httpCfg, logger, pkghttp.WithHeaderAuth("api-key", apiKey)),
		config:    cfg,
		logger:    logger,
	}
}

// chunkPayload is the metadata stored alongside each vector
type chunkPayload struct {
	TeamID         string `json:"team_id"`
	DocumentID     string `json:"document_id"`
	DocName        string `json:"doc_name"`
	PageNumber     int    `json:"page_number"`
	ChunkIndex     int    `json:"chunk_index"`
	Text           string `json:"text"`
	EmbeddingModel string `json:"embedding_model"`
}

type point struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector,omitempty"`
	Payload chunkPayload `json:"payload"`
}

// filter matches Qdrant's must-clause filter shape
type filter struct {
	Must []fieldCondition `json:"must"`
}

type fieldCondition struct {
	Key   string     `json:"key"`
	Match matchValue `json:"match"`
}

type matchValue struct {
	Value string `json:"value"`
}

func teamFilter(teamID string) filter {
	return filter{Must: []fieldCondition{
		{Key: "team_id", Match: matchValue{Value: teamID}},
	}}
}

func teamDocumentFilter(teamID, documentID string) filter {
	return filter{Must: []fieldCondition{
		{Key: "team_id", Match: matchValue{Value: teamID}},
		{Key: "document_id", Match: matchValue{Value: documentID}},
	}}
}

type collectionInfoResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureCollection makes sure the collection exists with the configured
// dimension and cosine distance. An existing collection whose vector size
// differs from the configured dimension fails startup rather than the first
// upsert. With RecreateCollection set it drops any existing collection
// first; destructive, startup use only.
func (c *Connector) EnsureCollection(ctx context.Context) error {
	collectionPath := fmt.Sprintf("/collections/%s", c.config.Collection)

	if c.config.RecreateCollection {
		err := c.connector.DoRequest(ctx, http.MethodDelete, collectionPath, nil, nil)
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("%w: drop collection: %w", entity.ErrIndexUnavailable, err)
		}
		ctxzap.Info(ctx, "dropped existing collection", zap.String("collection", c.config.Collection))
	} else {
		// Already there with some schema; creation would 409
		var info collectionInfoResponse
		err := c.connector.DoRequest(ctx, http.MethodGet, collectionPath, nil, &info)
		if err == nil {
			if got := info.Result.Config.Params.Vectors.Size; got != c.config.Dimension {
				return fmt.Errorf("%w: collection %s has vector size %d, configured %d",
					entity.ErrDimensionMismatch, c.config.Collection, got, c.config.Dimension)
			}
			return nil
		}
		if !isNotFound(err) {
			return fmt.Errorf("%w: check collection: %w", entity.ErrIndexUnavailable, err)
		}
	}

	createReq := map[string]any{
		"vectors": map[string]any{
			"size":     c.config.Dimension,
			"distance": "Cosine",
		},
	}
	if err := c.connector.DoRequest(ctx, http.MethodPut, collectionPath, createReq, nil); err != nil {
		return fmt.Errorf("%w: create collection: %w", entity.ErrIndexUnavailable, err)
	}

	ctxzap.Info(ctx, "collection ready",
		zap.String("collection", c.config.Collection),
		zap.Int("dimension", c.config.Dimension),
	)

	return nil
}

// Upsert writes or replaces chunks by chunk_id. The call waits for the
// write to be durable before returning.
func (c *Connector) Upsert(ctx context.Context, chunks []entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]point, len(chunks))
	for i, ch := range chunks {
		points[i] = point{
			ID:     ch.ChunkID,
			Vector: ch.Vector,
			Payload: chunkPayload{
				TeamID:         ch.TeamID,
				DocumentID:     ch.DocumentID,
				DocName:        ch.DocName,
				PageNumber:     ch.PageNumber,
				ChunkIndex:     ch.ChunkIndex,
				Text:           ch.Text,
				EmbeddingModel: ch.EmbeddingModel,
			},
		}
	}

	endpoint := fmt.Sprintf("/collections/%s/points?wait=true", c.config.Collection)
	req := map[string]any{"points": points}

	if err := c.connector.DoRequest(ctx, http.MethodPut, endpoint, req, nil); err != nil {
		return fmt.Errorf("%w: upsert %d points: %w", entity.ErrIndexUnavailable, len(points), err)
	}

	ctxzap.Info(ctx, "points upserted", zap.Int("count", len(points)))

	return nil
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	Filter      filter    `json:"filter"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		ID      string       `json:"id"`
		Score   float64      `json:"score"`
		Payload chunkPayload `json:"payload"`
	} `json:"result"`
}

// Search returns up to limit hits for the query vector, filtered
// server-side to the requesting team's chunks, ordered by descending
// cosine similarity
func (c *Connector) Search(ctx context.Context, teamID string, vector []float32, limit int) ([]entity.SearchHit, error) {
	endpoint := fmt.Sprintf("/collections/%s/points/search", c.config.Collection)
	req := searchRequest{
		Vector:      vector,
		Limit:       limit,
		Filter:      teamFilter(teamID),
		WithPayload: true,
	}

	var resp searchResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: search: %w", entity.ErrIndexUnavailable, err)
	}

	hits := make([]entity.SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, entity.SearchHit{
			ChunkID:    r.ID,
			TeamID:     r.Payload.TeamID,
			DocumentID: r.Payload.DocumentID,
			DocName:    r.Payload.DocName,
			PageNumber: r.Payload.PageNumber,
			Text:       r.Payload.Text,
			Score:      r.Score,
		})
	}

	ctxzap.Debug(ctx, "search completed", zap.Int("hit_count", len(hits)))

	return hits, nil
}

type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// DeleteDocument removes every chunk matching both the team and document
// keys and reports how many were removed. Deleting an unknown document
// returns 0, not an error.
func (c *Connector) DeleteDocument(ctx context.Context, teamID, documentID string) (int, error) {
	f := teamDocumentFilter(teamID, documentID)

	countEndpoint := fmt.Sprintf("/collections/%s/points/count", c.config.Collection)
	var count countResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, countEndpoint, map[string]any{
		"filter": f,
		"exact":  true,
	}, &count)
	if err != nil {
		return 0, fmt.Errorf("%w: count points: %w", entity.ErrIndexUnavailable, err)
	}

	if count.Result.Count == 0 {
		return 0, nil
	}

	deleteEndpoint := fmt.Sprintf("/collections/%s/points/delete?wait=true", c.config.Collection)
	err = c.connector.DoRequest(ctx, http.MethodPost, deleteEndpoint, map[string]any{
		"filter": f,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: delete points: %w", entity.ErrIndexUnavailable, err)
	}

	ctxzap.Info(ctx, "document chunks deleted",
		zap.String("document_id", documentID),
		zap.Int("count", count.Result.Count),
	)

	return count.Result.Count, nil
}

type scrollRequest struct {
	Filter      filter `json:"filter"`
	Limit       int    `json:"limit"`
	WithPayload bool   `json:"with_payload"`
	Offset      string `json:"offset,omitempty"`
}

type scrollResponse struct {
	Result struct {
		Points         []point `json:"points"`
		NextPageOffset *string `json:"next_page_offset"`
	} `json:"result"`
}

// ListDocuments reconstructs the team's document list by aggregating stored
// chunk payloads; there is no separate document table
func (c *Connector) ListDocuments(ctx context.Context, teamID string) ([]entity.DocumentSummary, error) {
	endpoint := fmt.Sprintf("/collections/%s/points/scroll", c.config.Collection)

	summaries := make(map[string]*entity.DocumentSummary)
	offset := ""

	for {
		req := scrollRequest{
			Filter:      teamFilter(teamID),
			Limit:       scrollPageSize,
			WithPayload: true,
			Offset:      offset,
		}

		var resp scrollResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
			return nil, fmt.Errorf("%w: scroll points: %w", entity.ErrIndexUnavailable, err)
		}

		for _, p := range resp.Result.Points {
			s, ok := summaries[p.Payload.DocumentID]
			if !ok {
				s = &entity.DocumentSummary{
					DocumentID: p.Payload.DocumentID,
					DocName:    p.Payload.DocName,
				}
				summaries[p.Payload.DocumentID] = s
			}
			s.ChunkCount++
			if p.Payload.PageNumber > s.PageCount {
				s.PageCount = p.Payload.PageNumber
			}
		}

		if resp.Result.NextPageOffset == nil || *resp.Result.NextPageOffset == "" {
			break
		}
		offset = *resp.Result.NextPageOffset
	}

	result := make([]entity.DocumentSummary, 0, len(summaries))
	for _, s := range summaries {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocumentID < result[j].DocumentID
	})

	return result, nil
}

// Ping checks that Qdrant is reachable, for the health endpoint
func (c *Connector) Ping(ctx context.Context) error {
	if err := c.connector.DoRequest(ctx, http.MethodGet, "/collections", nil, nil); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrIndexUnavailable, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var httpErr *pkghttp.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
