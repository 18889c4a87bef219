package tickets

import (
	"context"

	"github.com/synapseai/synapse/internal/supabase"
)

type SupabaseStore struct {
	client *supabase.Client
	table  string
}

func NewSupabaseStore(client *supabase.Client, table string) *SupabaseStore {
	return &SupabaseStore{client: client, table: table}
}

func (s *SupabaseStore) Insert(ctx context.Context, rec Record) error {
	return s.client.Insert(ctx, s.table, rec)
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, s.table)
}

var _ Store = (*SupabaseStore)(nil)
