package tools_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapseai/synapse/internal/knowledge"
	"github.com/synapseai/synapse/internal/tickets"
	"github.com/synapseai/synapse/internal/tools"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeStore struct {
	passages []knowledge.Passage
	err      error
	gotK     int
}

func (f *fakeStore) Search(_ context.Context, _ []float32, k int) ([]knowledge.Passage, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.passages) > k {
		return f.passages[:k], nil
	}
	return f.passages, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

type memoryTickets struct {
	mu      sync.Mutex
	records []tickets.Record
	err     error
}

func (m *memoryTickets) Insert(_ context.Context, rec tickets.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryTickets) Ping(context.Context) error { return nil }

func TestRetriever_Solve(t *testing.T) {
	ctx := context.Background()

	t.Run("Should join passages in store order", func(t *testing.T) {
		store := &fakeStore{passages: []knowledge.Passage{
			{Content: "Open Settings."},
			{Content: "Choose Reset password."},
			{Content: "Check your inbox."},
			{Content: "never returned"},
		}}
		r := tools.NewRetriever(&fakeEmbedder{}, store, tools.DefaultTopK)

		res := r.Solve(ctx, "How do I reset my password?")
		assert.Equal(t, tools.StatusOK, res.Status)
		assert.Equal(t, "Open Settings.\n---\nChoose Reset password.\n---\nCheck your inbox.", res.Content)
		assert.NotEqual(t, tools.NoResultsMessage, res.Content)
		assert.Equal(t, 3, store.gotK)
	})

	t.Run("Should return the sentinel when nothing matches", func(t *testing.T) {
		r := tools.NewRetriever(&fakeEmbedder{}, &fakeStore{}, 3)
		res := r.Solve(ctx, "My cat won't eat")
		assert.Equal(t, tools.StatusNotFound, res.Status)
		assert.Equal(t, "No relevant information found in the knowledge base.", res.Content)
	})

	t.Run("Should not call backends for a blank query", func(t *testing.T) {
		emb := &fakeEmbedder{}
		r := tools.NewRetriever(emb, &fakeStore{}, 3)
		res := r.Solve(ctx, "  \n")
		assert.Equal(t, tools.StatusNotFound, res.Status)
		assert.Zero(t, emb.calls)
	})

	t.Run("Should be deterministic for a fixed store", func(t *testing.T) {
		store := &fakeStore{passages: []knowledge.Passage{{Content: "a"}, {Content: "b"}}}
		r := tools.NewRetriever(&fakeEmbedder{}, store, 3)
		first := r.Solve(ctx, "refund policy")
		second := r.Solve(ctx, "refund policy")
		assert.Equal(t, first, second)
	})

	t.Run("Should contain store failures", func(t *testing.T) {
		r := tools.NewRetriever(&fakeEmbedder{}, &fakeStore{err: errors.New("connection reset")}, 3)
		res := r.Solve(ctx, "billing")
		assert.Equal(t, tools.StatusFailed, res.Status)
		assert.True(t, strings.HasPrefix(res.Content, "Knowledge base search failed:"))
		assert.Contains(t, res.Content, "connection reset")
		assert.Error(t, res.Err)
	})

	t.Run("Should contain embedding failures", func(t *testing.T) {
		r := tools.NewRetriever(&fakeEmbedder{err: errors.New("invalid api key")}, &fakeStore{}, 3)
		res := r.Solve(ctx, "billing")
		assert.True(t, res.Failed())
		assert.Equal(t, "Knowledge base search failed: invalid api key", res.Content)
	})
}

func TestRetriever_Tool(t *testing.T) {
	r := tools.NewRetriever(&fakeEmbedder{}, &fakeStore{passages: []knowledge.Passage{{Content: "x"}}}, 3)
	tool := r.Tool()
	assert.Equal(t, "support_faq_solver", tool.Name)
	assert.Equal(t, []string{"query"}, tool.InputSchema["required"])

	res := tool.Execute(context.Background(), map[string]interface{}{"query": "hi"})
	assert.Equal(t, "x", res.Content)

	res = tool.Execute(context.Background(), map[string]interface{}{"query": 42})
	assert.True(t, res.Failed())
}

func TestEscalator_Escalate(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Should write one record per call", func(t *testing.T) {
		store := &memoryTickets{}
		e := tools.NewEscalator(store, tools.WithClock(func() time.Time { return fixed }))

		for i := 0; i < 3; i++ {
			res := e.Escalate(context.Background(), "My cat won't eat")
			require.Equal(t, tools.StatusOK, res.Status)
			assert.Equal(t, "Your query has been escalated to a human agent.", res.Content)
		}

		require.Len(t, store.records, 3)
		ids := map[string]bool{}
		for _, rec := range store.records {
			assert.Equal(t, "My cat won't eat", rec.UserQuery)
			assert.Equal(t, "Escalated due to insufficient RAG context.", rec.Note)
			assert.Equal(t, fixed, rec.CreatedAt)
			ids[rec.ID.String()] = true
		}
		assert.Len(t, ids, 3)
	})

	t.Run("Should report insert failures as text", func(t *testing.T) {
		e := tools.NewEscalator(&memoryTickets{err: errors.New("401 invalid api key")})
		res := e.Escalate(context.Background(), "help")
		assert.True(t, res.Failed())
		assert.Equal(t, "Escalation failed: 401 invalid api key", res.Content)
	})

	t.Run("Should reject missing arguments", func(t *testing.T) {
		store := &memoryTickets{}
		res := tools.NewEscalator(store).Tool().Execute(context.Background(), map[string]interface{}{})
		assert.True(t, res.Failed())
		assert.Empty(t, store.records)
	})
}
