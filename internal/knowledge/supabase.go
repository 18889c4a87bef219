package knowledge

import (
	"context"
	"encoding/json"

	"github.com/synapseai/synapse/internal/supabase"
)

// SupabaseStore searches through the match_documents RPC exposed by PostgREST.
type SupabaseStore struct {
	client   *supabase.Client
	function string
	table    string
}

func NewSupabaseStore(client *supabase.Client, function, table string) *SupabaseStore {
	return &SupabaseStore{client: client, function: function, table: table}
}

type matchParams struct {
	QueryEmbedding []float32      `json:"query_embedding"`
	MatchCount     int            `json:"match_count"`
	Filter         map[string]any `json:"filter"`
}

type matchRow struct {
	ID         json.RawMessage `json:"id"`
	Content    string          `json:"content"`
	Metadata   map[string]any  `json:"metadata"`
	Similarity float64         `json:"similarity"`
}

func (s *SupabaseStore) Search(ctx context.Context, embedding []float32, k int) ([]Passage, error) {
	params := matchParams{
		QueryEmbedding: embedding,
		MatchCount:     k,
		Filter:         map[string]any{},
	}
	var rows []matchRow
	if err := s.client.RPC(ctx, s.function, params, &rows); err != nil {
		return nil, err
	}
	passages := make([]Passage, 0, len(rows))
	for _, r := range rows {
		passages = append(passages, Passage{
			ID:         rawID(r.ID),
			Content:    r.Content,
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		})
	}
	return passages, nil
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, s.table)
}

// rawID renders numeric and string ids the same way.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

var _ Store = (*SupabaseStore)(nil)
