package server

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/synapseai/synapse/internal/agent"
	"github.com/synapseai/synapse/internal/config"
	"github.com/synapseai/synapse/internal/database"
	"github.com/synapseai/synapse/internal/gemini"
	"github.com/synapseai/synapse/internal/knowledge"
	"github.com/synapseai/synapse/internal/supabase"
	"github.com/synapseai/synapse/internal/tickets"
	"github.com/synapseai/synapse/internal/tools"
)

// Backends holds the process-wide clients and the agent built on top of them.
// Every field is safe for concurrent use.
type Backends struct {
	Agent     *agent.Orchestrator
	Knowledge knowledge.Store
	Tickets   tickets.Store

	pool *pgxpool.Pool
}

// NewBackends constructs the stores, the model and the orchestrator from cfg.
// cfg must already be validated.
func NewBackends(ctx context.Context, cfg *config.Config) (*Backends, error) {
	b := &Backends{}

	var sb *supabase.Client
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		poolCfg, err := database.PoolConfig(cfg.DatabaseURL, cfg.DatabaseKey, cfg.PostgresMaxConns)
		if err != nil {
			return nil, err
		}
		b.pool, err = database.Connect(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		b.Tickets = tickets.NewPostgresStore(b.pool, cfg.TicketsTable)
	default:
		var err error
		sb, err = supabase.New(cfg.DatabaseURL, cfg.DatabaseKey, cfg.SupabaseTimeout)
		if err != nil {
			return nil, fmt.Errorf("create supabase client: %w", err)
		}
		b.Tickets = tickets.NewSupabaseStore(sb, cfg.TicketsTable)
	}

	switch cfg.KnowledgeBackend {
	case config.BackendElasticsearch:
		es, err := knowledge.NewElasticsearchStore(knowledge.ElasticsearchConfig{
			Scheme:      cfg.ElasticsearchScheme,
			Host:        cfg.ElasticsearchHost,
			Port:        cfg.ElasticsearchPort,
			User:        cfg.ElasticsearchUser,
			Password:    cfg.ElasticsearchPassword,
			VerifyCerts: cfg.ElasticsearchVerifyCerts,
			MaxRetries:  cfg.ElasticsearchMaxRetries,
			Index:       cfg.ElasticsearchIndex,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Knowledge = es
	case config.BackendPostgres:
		b.Knowledge = knowledge.NewPostgresStore(b.pool, cfg.MatchFunction)
	default:
		b.Knowledge = knowledge.NewSupabaseStore(sb, cfg.MatchFunction, cfg.DocumentsTable)
	}

	// Embeddings always come from Gemini, whichever vendor answers the chat.
	chatModel := cfg.LLMModel
	if cfg.LLMProvider != config.ProviderGemini {
		chatModel = config.DefaultGeminiModel
	}
	gc := gemini.New(cfg.GeminiAPIKey, chatModel, cfg.EmbeddingModel)
	embedder, err := knowledge.NewEmbedder(gc, cfg.EmbeddingDims)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	var model agent.Model
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		model = agent.NewAnthropicModel(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.AnthropicBaseURL)
	default:
		model = agent.NewGeminiModel(gc)
	}
	model = agent.WithRetry(model, cfg.RetryAttempts, cfg.RetryBackoff)

	if cfg.LLMAPIKey() == "" {
		log.Warn().Str("provider", string(cfg.LLMProvider)).Msg("llm api key not set, model calls will fail")
	}

	toolset := []tools.Tool{
		tools.NewRetriever(embedder, b.Knowledge, tools.DefaultTopK).Tool(),
		tools.NewEscalator(b.Tickets).Tool(),
	}
	b.Agent = agent.NewOrchestrator(model, toolset, agent.WithMaxRounds(cfg.AgentMaxRounds))

	log.Info().
		Str("provider", string(cfg.LLMProvider)).
		Str("model", cfg.LLMModel).
		Str("store_backend", string(cfg.StoreBackend)).
		Str("knowledge_backend", string(cfg.KnowledgeBackend)).
		Int("max_rounds", cfg.AgentMaxRounds).
		Msg("agent executor ready")

	return b, nil
}

// Close releases the database pool when one was opened.
func (b *Backends) Close() {
	if b.pool != nil {
		b.pool.Close()
		log.Info().Msg("database pool closed")
	}
}
