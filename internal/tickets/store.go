// Package tickets persists support escalations for human follow-up.
package tickets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is an escalated request. Records are written once and never updated.
type Record struct {
	ID        uuid.UUID
	UserQuery string
	Note      string
	CreatedAt time.Time
}

// Timestamp renders CreatedAt the way it is stored.
func (r Record) Timestamp() string {
	return r.CreatedAt.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON emits the row shape of the support_tickets table. The id is
// left to the database default.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UserQuery string `json:"user_query"`
		Note      string `json:"agent_note"`
		Timestamp string `json:"timestamp"`
	}{r.UserQuery, r.Note, r.Timestamp()})
}

// Store appends escalation records.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	Ping(ctx context.Context) error
}
