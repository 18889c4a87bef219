package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/synapseai/synapse/internal/knowledge"
)

const (
	RetrievalToolName = "support_faq_solver"

	// DefaultTopK is how many passages a search returns.
	DefaultTopK = 3

	NoResultsMessage   = "No relevant information found in the knowledge base."
	searchFailedPrefix = "Knowledge base search failed: "
	passageSeparator   = "\n---\n"
)

// Retriever answers support questions from the knowledge base. It has no side
// effects and does not retry or cache.
type Retriever struct {
	embedder knowledge.Embedder
	store    knowledge.Store
	k        int
}

func NewRetriever(embedder knowledge.Embedder, store knowledge.Store, k int) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, k: k}
}

// Solve embeds query, fetches the top passages and joins their contents in
// store order. Backend errors are reported in the Result, never returned.
func (r *Retriever) Solve(ctx context.Context, query string) Result {
	if strings.TrimSpace(query) == "" {
		return Result{Status: StatusNotFound, Content: NoResultsMessage}
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return searchFailed(err)
	}
	passages, err := r.store.Search(ctx, vec, r.k)
	if err != nil {
		return searchFailed(err)
	}
	if len(passages) == 0 {
		return Result{Status: StatusNotFound, Content: NoResultsMessage}
	}

	bodies := make([]string, len(passages))
	for i, p := range passages {
		bodies[i] = p.Content
	}
	return Result{Status: StatusOK, Content: strings.Join(bodies, passageSeparator)}
}

func searchFailed(err error) Result {
	log.Warn().Err(err).Str("tool", RetrievalToolName).Msg("knowledge base search failed")
	return Result{
		Status:  StatusFailed,
		Content: searchFailedPrefix + err.Error(),
		Err:     fmt.Errorf("knowledge search: %w", err),
	}
}

// Tool exposes Solve to the model.
func (r *Retriever) Tool() Tool {
	return Tool{
		Name: RetrievalToolName,
		Description: "Search the support knowledge base (FAQ) for passages relevant to the customer's question. " +
			"Always call this before any other tool.",
		InputSchema: stringArgSchema("query", "The customer's question, phrased as a search query."),
		Execute: func(ctx context.Context, input map[string]interface{}) Result {
			query, ok := stringArg(input, "query")
			if !ok {
				return Result{
					Status:  StatusFailed,
					Content: searchFailedPrefix + "missing required string argument \"query\"",
					Err:     fmt.Errorf("%s: invalid arguments", RetrievalToolName),
				}
			}
			return r.Solve(ctx, query)
		},
	}
}
