package tickets_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapseai/synapse/internal/supabase"
	"github.com/synapseai/synapse/internal/tickets"
)

func sampleRecord() tickets.Record {
	return tickets.Record{
		ID:        uuid.MustParse("6f1c1f7e-3b8e-4f5c-9a61-2d1f0b0d9a11"),
		UserQuery: "My invoice shows the wrong currency",
		Note:      "Escalated due to insufficient RAG context.",
		CreatedAt: time.Date(2025, 3, 4, 10, 30, 0, 123456789, time.UTC),
	}
}

func TestRecord_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(sampleRecord())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"user_query": "My invoice shows the wrong currency",
		"agent_note": "Escalated due to insufficient RAG context.",
		"timestamp": "2025-03-04T10:30:00.123456789Z"
	}`, string(data))
}

func TestSupabaseStore_Insert(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/support_tickets", r.URL.Path)
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := supabase.New(srv.URL, "key", time.Second)
	require.NoError(t, err)
	store := tickets.NewSupabaseStore(client, "support_tickets")

	require.NoError(t, store.Insert(context.Background(), sampleRecord()))
	assert.Equal(t, "My invoice shows the wrong currency", got["user_query"])
	assert.Equal(t, "Escalated due to insufficient RAG context.", got["agent_note"])
	assert.Equal(t, "2025-03-04T10:30:00.123456789Z", got["timestamp"])
}

func TestPostgresStore_Insert(t *testing.T) {
	query := regexp.QuoteMeta("INSERT INTO support_tickets (id,user_query,agent_note,timestamp) VALUES ($1,$2,$3,$4)")

	t.Run("Should insert one row per record", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rec := sampleRecord()
		mock.ExpectExec(query).
			WithArgs(rec.ID, rec.UserQuery, rec.Note, "2025-03-04T10:30:00.123456789Z").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		store := tickets.NewPostgresStore(mock, "support_tickets")
		require.NoError(t, store.Insert(context.Background(), rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should wrap database errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("permission denied"))

		err = tickets.NewPostgresStore(mock, "support_tickets").Insert(context.Background(), sampleRecord())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
