package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/synapseai/synapse/internal/database"
)

// PostgresStore calls match_documents directly over a pgx pool.
type PostgresStore struct {
	db    database.DB
	query string
}

func NewPostgresStore(db database.DB, function string) *PostgresStore {
	fn := pgx.Identifier{function}.Sanitize()
	return &PostgresStore{
		db:    db,
		query: "SELECT id::text, content, metadata, similarity FROM " + fn + "($1, $2, '{}'::jsonb)",
	}
}

func (s *PostgresStore) Search(ctx context.Context, embedding []float32, k int) ([]Passage, error) {
	rows, err := s.db.Query(ctx, s.query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("match documents: %w", err)
	}
	defer rows.Close()

	passages := make([]Passage, 0, k)
	for rows.Next() {
		var (
			p           Passage
			metadataRaw []byte
		)
		if err := rows.Scan(&p.ID, &p.Content, &metadataRaw, &p.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if len(metadataRaw) > 0 {
			if err := json.Unmarshal(metadataRaw, &p.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match rows: %w", err)
	}
	return passages, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

var _ Store = (*PostgresStore)(nil)
