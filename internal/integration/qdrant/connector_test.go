package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamdocs/rag-backend/internal/config"
	"github.com/teamdocs/rag-backend/internal/entity"
)

func testQdrantConfig(url string) config.QdrantConfig {
	return config.QdrantConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			RequestTimeout:        5 * time.Second,
			ConnTimeout:           5 * time.Second,
			KeepAlive:             30 * time.Second,
			IdleConnTimeout:       30 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			Token:                 "qd-secret",
			Url:                   url,
		},
		Collection: "pdf_embeddings",
		Dimension:  4,
	}
}

func TestConnector_SearchSendsTeamFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/pdf_embeddings/points/search", r.URL.Path)
		assert.Equal(t, "qd-secret", r.Header.Get("api-key"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// The team filter must be part of the request, not applied client-side
		require.Len(t, req.Filter.Must, 1)
		assert.Equal(t, "team_id", req.Filter.Must[0].Key)
		assert.Equal(t, "team-a", req.Filter.Must[0].Match.Value)
		assert.True(t, req.WithPayload)
		assert.Equal(t, 15, req.Limit)

		resp := map[string]any{
			"result": []map[string]any{
				{
					"id":    "11111111-1111-1111-1111-111111111111",
					"score": 0.92,
					"payload": map[string]any{
						"team_id":     "team-a",
						"document_id": "doc-1",
						"doc_name":    "handbook.pdf",
						"page_number": 3,
						"chunk_index": 0,
						"text":        "vacation policy",
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewConnector(testQdrantConfig(server.URL), zap.NewNop())

	hits, err := c.Search(context.Background(), "team-a", []float32{1, 0, 0, 0}, 15)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "team-a", hits[0].TeamID)
	assert.Equal(t, "handbook.pdf", hits[0].DocName)
	assert.Equal(t, 3, hits[0].PageNumber)
	assert.InDelta(t, 0.92, hits[0].Score, 1e-9)
}

func TestConnector_SearchIndexDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shard unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewConnector(testQdrantConfig(server.URL), zap.NewNop())

	_, err := c.Search(context.Background(), "team-a", []float32{1, 0, 0, 0}, 15)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrIndexUnavailable)
}

func TestConnector_UpsertWaitsAndCarriesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/pdf_embeddings/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))

		var req struct {
			Points []point `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Points, 2)
		assert.Equal(t, "team-a", req.Points[0].Payload.TeamID)
		assert.Equal(t, "doc-1", req.Points[0].Payload.DocumentID)
		assert.Equal(t, 1, req.Points[1].Payload.ChunkIndex)

		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))
	defer server.Close()

	c := NewConnector(testQdrantConfig(server.URL), zap.NewNop())

	chunks := []entity.Chunk{
		{ChunkID: "id-0", TeamID: "team-a", DocumentID: "doc-1", DocName: "a.pdf", PageNumber: 1, ChunkIndex: 0, Text: "x", Vector: []float32{1, 0, 0, 0}},
		{ChunkID: "id-1", TeamID: "team-a", DocumentID: "doc-1", DocName: "a.pdf", PageNumber: 1, ChunkIndex: 1, Text: "y", Vector: []float32{0, 1, 0, 0}},
	}
	require.NoError(t, c.Upsert(context.Background(), chunks))
}

func TestConnector_UpsertEmpty(t *testing.T) {
	c := NewConnector(testQdrantConfig("http://unused"), zap.NewNop())
	require.NoError(t, c.Upsert(context.Background(), nil))
}

func TestConnector_DeleteDocumentReturnsCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/pdf_embeddings/points/count":
			var req struct {
				Filter filter `json:"filter"`
				Exact  bool   `json:"exact"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.True(t, req.Exact)
			require.Len(t, req.Filter.Must, 2)
			json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"count": 6}})
		case "/collections/pdf_embeddings/points/delete":
			assert.Equal(t, "true", r.URL.Query().Get("wait"))
			json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewConnector(testQdrantConfig(server.URL), zap.NewNop())

	count, err := c.DeleteDocument(context.Background(), "team-a", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestConnector_DeleteUnknownDocumentIsZeroNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/pdf_embeddings/points/count", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"count": 0}})
	}))
	defer server.Close()

	c := NewConnector(testQdrantConfig(server.URL), zap.NewNop())

	count, err := c.DeleteDocument(context.Background(), "team-a", "missing")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConnector_ListDocumentsAggregatesScroll(t *testing.T) {
	page2 := "offset-2"
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/pdf_embeddings/points/scroll", r.URL.Path)
		calls++

		var resp scrollResponse
		if calls == 1 {
			resp.Result.Points = []point{
				{ID: "1", Payload: chunkPayload{TeamID: "team-a", DocumentID: "doc-1", DocName: "a.pdf", PageNumber: 1}},
				{ID: "2", Payload: chunkPayload{TeamID: "team-a", DocumentID: "doc-1", DocName: "a.pdf", PageNumber: 2}},
			}
			resp.Result.NextPageOffset = &page2
		} else {
			resp.Result.Points = []point{
				{ID: "3", Payload: chunkPayload{TeamID: "team-a", DocumentID: "doc-2", DocName: "b.pdf", PageNumber: 1}},
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewConnector(testQdrantConfig(server.URL), zap.NewNop())

	docs, err := c.ListDocuments(context.Background(), "team-a")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "must follow next_page_offset")
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-1", docs[0].DocumentID)
	assert.Equal(t, 2, docs[0].PageCount)
	assert.Equal(t, 2, docs[0].ChunkCount)
	assert.Equal(t, "doc-2", docs[1].DocumentID)
	assert.Equal(t, 1, docs[1].ChunkCount)
}

func TestConnector_EnsureCollectionCreatesWhenMissing(t *testing.T) {
	var created bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/pdf_embeddings", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			http.Error(w, "not found", http.StatusNotFound)
		case http.MethodPut:
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			vectors := req["vectors"].(map[string]any)
			assert.EqualValues(t, 4, vectors["size"])
			assert.Equal(t, "Cosine", vectors["distance"])
			created = true
			json.NewEncoder(w).Encode(map[string]any{"result": true})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	c := NewConnector(testQdrantConfig(server.URL), zap.NewNop())
	require.NoError(t, c.EnsureCollection(context.Background()))
	assert.True(t, created)
}

func TestConnector_EnsureCollectionRecreateDrops(t *testing.T) {
	var dropped, created bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			dropped = true
			json.NewEncoder(w).Encode(map[string]any{"result": true})
		case http.MethodPut:
			created = true
			json.NewEncoder(w).Encode(map[string]any{"result": true})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	cfg := testQdrantConfig(server.URL)
	cfg.RecreateCollection = true

	c := NewConnector(cfg, zap.NewNop())
	require.NoError(t, c.EnsureCollection(context.Background()))
	assert.True(t, dropped)
	assert.True(t, created)
}

func collectionInfoBody(size int) map[string]any {
	return map[string]any{"result": map[string]any{
		"status": "green",
		"config": map[string]any{"params": map[string]any{
			"vectors": map[string]any{"size": size, "distance": "Cosine"},
		}},
	}}
}

func TestConnector_EnsureCollectionExistingIsNoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(collectionInfoBody(4))
	}))
	defer server.Close()

	c := NewConnector(testQdrantConfig(server.URL), zap.NewNop())
	require.NoError(t, c.EnsureCollection(context.Background()))
}

func TestConnector_EnsureCollectionDimensionMismatch(t *testing.T) {
	// A collection created earlier with a different vector width must fail
	// startup, not the first upsert.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(collectionInfoBody(768))
	}))
	defer server.Close()

	c := NewConnector(testQdrantConfig(server.URL), zap.NewNop())
	err := c.EnsureCollection(context.Background())
	require.ErrorIs(t, err, entity.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "768")
}
