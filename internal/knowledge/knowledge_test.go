package knowledge_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapseai/synapse/internal/knowledge"
	"github.com/synapseai/synapse/internal/supabase"
)

type stubEmbeddingClient struct {
	vecs  [][]float32
	err   error
	texts []string
}

func (s *stubEmbeddingClient) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	s.texts = append(s.texts, texts...)
	return s.vecs, s.err
}

func TestEmbedder(t *testing.T) {
	t.Run("Should return the single query vector", func(t *testing.T) {
		client := &stubEmbeddingClient{vecs: [][]float32{{0.1, 0.2}}}
		e, err := knowledge.NewEmbedder(client, 2)
		require.NoError(t, err)
		vec, err := e.EmbedQuery(context.Background(), "reset\npassword")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2}, vec)
		assert.Equal(t, []string{"reset\npassword"}, client.texts)
	})
	t.Run("Should fail instead of panicking on an empty response", func(t *testing.T) {
		e, err := knowledge.NewEmbedder(&stubEmbeddingClient{}, 0)
		require.NoError(t, err)
		_, err = e.EmbedQuery(context.Background(), "hi")
		assert.Error(t, err)
	})
	t.Run("Should reject vectors with the wrong dimensionality", func(t *testing.T) {
		client := &stubEmbeddingClient{vecs: [][]float32{{0.1, 0.2, 0.3}}}
		e, err := knowledge.NewEmbedder(client, 768)
		require.NoError(t, err)
		_, err = e.EmbedQuery(context.Background(), "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "3 dimensions, want 768")
	})
	t.Run("Should propagate client errors", func(t *testing.T) {
		e, err := knowledge.NewEmbedder(&stubEmbeddingClient{err: errors.New("quota exceeded")}, 0)
		require.NoError(t, err)
		_, err = e.EmbedQuery(context.Background(), "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

func TestSupabaseStore_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/match_documents", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["match_count"])
		assert.Equal(t, map[string]any{}, body["filter"])
		assert.Len(t, body["query_embedding"], 2)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 7, "content": "Go to Settings > Security.", "metadata": {"topic": "account"}, "similarity": 0.92},
			{"id": "b", "content": "Use the reset link.", "metadata": null, "similarity": 0.81}
		]`))
	}))
	defer srv.Close()

	client, err := supabase.New(srv.URL, "key", time.Second)
	require.NoError(t, err)
	store := knowledge.NewSupabaseStore(client, "match_documents", "documents")

	got, err := store.Search(context.Background(), []float32{0.5, 0.25}, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "7", got[0].ID)
	assert.Equal(t, "Go to Settings > Security.", got[0].Content)
	assert.Equal(t, "account", got[0].Metadata["topic"])
	assert.Equal(t, "b", got[1].ID)
	assert.InDelta(t, 0.81, got[1].Similarity, 1e-9)
}

func TestSupabaseStore_SearchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"function match_documents does not exist"}`))
	}))
	defer srv.Close()

	client, err := supabase.New(srv.URL, "key", time.Second)
	require.NoError(t, err)
	_, err = knowledge.NewSupabaseStore(client, "match_documents", "documents").
		Search(context.Background(), []float32{1}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestPostgresStore_Search(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT id::text, content, metadata, similarity FROM "match_documents"($1, $2, '{}'::jsonb)`)

	t.Run("Should scan ranked rows in order", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(query).
			WithArgs(pgxmock.AnyArg(), 3).
			WillReturnRows(pgxmock.NewRows([]string{"id", "content", "metadata", "similarity"}).
				AddRow("1", "first", []byte(`{"topic":"billing"}`), 0.9).
				AddRow("2", "second", []byte(nil), 0.7))

		store := knowledge.NewPostgresStore(mock, "match_documents")
		got, err := store.Search(context.Background(), []float32{0.1, 0.2}, 3)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Content)
		assert.Equal(t, "billing", got[0].Metadata["topic"])
		assert.Equal(t, "second", got[1].Content)
		assert.Nil(t, got[1].Metadata)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should return an empty slice when nothing matches", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(query).
			WithArgs(pgxmock.AnyArg(), 3).
			WillReturnRows(pgxmock.NewRows([]string{"id", "content", "metadata", "similarity"}))

		got, err := knowledge.NewPostgresStore(mock, "match_documents").Search(context.Background(), []float32{0.1}, 3)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should wrap query errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(query).
			WithArgs(pgxmock.AnyArg(), 3).
			WillReturnError(errors.New("connection refused"))

		_, err = knowledge.NewPostgresStore(mock, "match_documents").Search(context.Background(), []float32{0.1}, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func newESServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestElasticsearchStore_Search(t *testing.T) {
	srv := newESServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents/_search", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		knn, ok := body["knn"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "embedding", knn["field"])
		assert.Equal(t, float64(3), knn["k"])
		w.Write([]byte(`{"hits":{"hits":[
			{"_id":"a","_score":0.95,"_source":{"content":"Refunds take 5 days."}},
			{"_id":"b","_score":0.90,"_source":{"content":"Contact billing.","metadata":{"topic":"billing"}}}
		]}}`))
	})

	store, err := knowledge.NewElasticsearchStore(knowledge.ElasticsearchConfig{
		Addresses:   []string{srv.URL},
		Index:       "documents",
		VerifyCerts: true,
	})
	require.NoError(t, err)

	got, err := store.Search(context.Background(), []float32{0.3, 0.4}, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Refunds take 5 days.", got[0].Content)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "billing", got[1].Metadata["topic"])
}

func TestElasticsearchStore_SearchError(t *testing.T) {
	srv := newESServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	store, err := knowledge.NewElasticsearchStore(knowledge.ElasticsearchConfig{
		Addresses:   []string{srv.URL},
		Index:       "documents",
		VerifyCerts: true,
	})
	require.NoError(t, err)

	_, err = store.Search(context.Background(), []float32{0.3}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index_not_found_exception")
}
