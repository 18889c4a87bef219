package tickets

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/synapseai/synapse/internal/database"
)

// PostgresStore writes tickets through the shared pgx pool.
type PostgresStore struct {
	db    database.DB
	table string
}

func NewPostgresStore(db database.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: table}
}

func (s *PostgresStore) Insert(ctx context.Context, rec Record) error {
	query, args, err := squirrel.Insert(s.table).
		Columns("id", "user_query", "agent_note", "timestamp").
		Values(rec.ID, rec.UserQuery, rec.Note, rec.Timestamp()).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build ticket insert: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

var _ Store = (*PostgresStore)(nil)
