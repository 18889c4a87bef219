package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/synapseai/synapse/internal/tickets"
)

const (
	EscalationToolName = "create_support_ticket_supabase"

	EscalationNote       = "Escalated due to insufficient RAG context."
	EscalatedMessage     = "Your query has been escalated to a human agent."
	escalationFailPrefix = "Escalation failed: "
)

// Escalator files support tickets. Each call writes a new record; there is no
// deduplication.
type Escalator struct {
	store tickets.Store
	now   func() time.Time
}

// EscalatorOption configures an Escalator.
type EscalatorOption func(*Escalator)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) EscalatorOption {
	return func(e *Escalator) { e.now = now }
}

func NewEscalator(store tickets.Store, opts ...EscalatorOption) *Escalator {
	e := &Escalator{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Escalate records userQuery verbatim for a human agent.
func (e *Escalator) Escalate(ctx context.Context, userQuery string) Result {
	rec := tickets.Record{
		ID:        uuid.New(),
		UserQuery: userQuery,
		Note:      EscalationNote,
		CreatedAt: e.now(),
	}
	if err := e.store.Insert(ctx, rec); err != nil {
		log.Error().Err(err).Str("ticket_id", rec.ID.String()).Msg("escalation failed")
		return Result{
			Status:  StatusFailed,
			Content: escalationFailPrefix + err.Error(),
			Err:     fmt.Errorf("insert ticket: %w", err),
		}
	}
	log.Info().Str("ticket_id", rec.ID.String()).Msg("support ticket created")
	return Result{Status: StatusOK, Content: EscalatedMessage}
}

// Tool exposes Escalate to the model.
func (e *Escalator) Tool() Tool {
	return Tool{
		Name: EscalationToolName,
		Description: "Escalate the customer's query to a human support agent by creating a support ticket. " +
			"Use only when the knowledge base has no relevant information.",
		InputSchema: stringArgSchema("user_query", "The customer's original message, unchanged."),
		Execute: func(ctx context.Context, input map[string]interface{}) Result {
			q, ok := stringArg(input, "user_query")
			if !ok {
				return Result{
					Status:  StatusFailed,
					Content: escalationFailPrefix + "missing required string argument \"user_query\"",
					Err:     fmt.Errorf("%s: invalid arguments", EscalationToolName),
				}
			}
			return e.Escalate(ctx, q)
		},
	}
}
