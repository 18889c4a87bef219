package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names a storage implementation for the knowledge and ticket stores.
type Backend string

const (
	BackendSupabase      Backend = "supabase"
	BackendPostgres      Backend = "postgres"
	BackendElasticsearch Backend = "elasticsearch"
)

// Provider names a chat model vendor.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

var (
	ErrMissingDatabaseURL = errors.New("SUPABASE_URL is not set")
	ErrMissingDatabaseKey = errors.New("SUPABASE_SERVICE_KEY is not set")
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Database (Supabase REST endpoint or Postgres DSN) and its service credential
	DatabaseURL      string        `json:"database_url"`
	DatabaseKey      string        `json:"-"`
	StoreBackend     Backend       `json:"store_backend"`
	KnowledgeBackend Backend       `json:"knowledge_backend"` // defaults to StoreBackend
	DocumentsTable   string        `json:"documents_table"`
	TicketsTable     string        `json:"tickets_table"`
	MatchFunction    string        `json:"match_function"`
	SupabaseTimeout  time.Duration `json:"supabase_timeout"`
	PostgresMaxConns int32         `json:"postgres_max_conns"`

	// Elasticsearch knowledge backend
	ElasticsearchHost        string `json:"elasticsearch_host"`
	ElasticsearchPort        int    `json:"elasticsearch_port"`
	ElasticsearchScheme      string `json:"elasticsearch_scheme"`
	ElasticsearchUser        string `json:"elasticsearch_user"`
	ElasticsearchPassword    string `json:"-"`
	ElasticsearchVerifyCerts bool   `json:"elasticsearch_verify_certs"`
	ElasticsearchMaxRetries  int    `json:"elasticsearch_max_retries"`
	ElasticsearchIndex       string `json:"elasticsearch_index"`

	// AI / LLM
	LLMProvider      Provider `json:"llm_provider"`
	LLMModel         string   `json:"llm_model"`
	GeminiAPIKey     string   `json:"-"`
	AnthropicAPIKey  string   `json:"-"`
	AnthropicBaseURL string   `json:"anthropic_base_url"`
	EmbeddingModel   string   `json:"embedding_model"`
	EmbeddingDims    int      `json:"embedding_dims"`

	// Agent loop
	AgentTimeout   int           `json:"agent_timeout"` // seconds
	AgentMaxRounds int           `json:"agent_max_rounds"`
	RetryAttempts  int           `json:"retry_attempts"`
	RetryBackoff   time.Duration `json:"retry_backoff"`

	// Security
	MaxPromptLength    int  `json:"max_prompt_length"`
	EnableAuditLogging bool `json:"enable_audit_logging"`
}

// Load resolves configuration from defaults, an optional JSON file, an optional
// .env file and finally the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		Host:                     DefaultHost,
		Port:                     DefaultPort,
		Environment:              DefaultEnvironment,
		APIPrefix:                DefaultAPIPrefix,
		LogLevel:                 DefaultLogLevel,
		CORSOrigins:              DefaultCORSOrigins,
		APIKeyHeader:             "X-API-Key",
		EnableAuth:               true,
		RateLimitPerMinute:       DefaultRateLimitPerMinute,
		StoreBackend:             DefaultStoreBackend,
		DocumentsTable:           DefaultDocumentsTable,
		TicketsTable:             DefaultTicketsTable,
		MatchFunction:            DefaultMatchFunction,
		SupabaseTimeout:          DefaultSupabaseTimeout,
		PostgresMaxConns:         DefaultPostgresMaxConns,
		ElasticsearchPort:        DefaultElasticsearchPort,
		ElasticsearchScheme:      DefaultElasticsearchScheme,
		ElasticsearchVerifyCerts: true,
		ElasticsearchMaxRetries:  DefaultElasticsearchMaxRetries,
		ElasticsearchIndex:       DefaultElasticsearchIndex,
		LLMProvider:              DefaultLLMProvider,
		EmbeddingModel:           DefaultEmbeddingModel,
		EmbeddingDims:            DefaultEmbeddingDims,
		AgentTimeout:             DefaultAgentTimeout,
		AgentMaxRounds:           DefaultAgentMaxRounds,
		RetryAttempts:            DefaultRetryAttempts,
		RetryBackoff:             DefaultRetryBackoff,
		MaxPromptLength:          DefaultMaxPromptLength,
		EnableAuditLogging:       true,
	}

	// Load from JSON config file if specified
	if path := getEnv("SYNAPSE_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// .env is optional; values already present in the environment win
	if err := godotenv.Load(getEnv("SYNAPSE_ENV_FILE", ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDerived()

	return cfg, nil
}

// Validate enforces the startup requirements. A missing LLM key is deliberately
// not checked here; it surfaces on the first model call.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.DatabaseKey == "" {
		return ErrMissingDatabaseKey
	}
	switch c.StoreBackend {
	case BackendSupabase, BackendPostgres:
	default:
		return fmt.Errorf("unsupported store backend %q", c.StoreBackend)
	}
	switch c.KnowledgeBackend {
	case BackendSupabase, BackendPostgres:
		if c.KnowledgeBackend != c.StoreBackend {
			return fmt.Errorf("knowledge backend %q requires store backend %q", c.KnowledgeBackend, c.KnowledgeBackend)
		}
	case BackendElasticsearch:
		if c.ElasticsearchHost == "" {
			return errors.New("ELASTICSEARCH_HOST is required for the elasticsearch knowledge backend")
		}
	default:
		return fmt.Errorf("unsupported knowledge backend %q", c.KnowledgeBackend)
	}
	switch c.LLMProvider {
	case ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLMProvider)
	}
	if c.AgentMaxRounds <= 0 {
		return fmt.Errorf("agent max rounds must be positive, got %d", c.AgentMaxRounds)
	}
	return nil
}

// LLMAPIKey returns the key for the configured provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

func (c *Config) applyDerived() {
	if c.KnowledgeBackend == "" {
		c.KnowledgeBackend = c.StoreBackend
	}
	if c.LLMModel == "" {
		if c.LLMProvider == ProviderAnthropic {
			c.LLMModel = DefaultAnthropicModel
		} else {
			c.LLMModel = DefaultGeminiModel
		}
	}
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("SYNAPSE_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("SYNAPSE_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("SYNAPSE_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("SYNAPSE_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("SYNAPSE_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("SYNAPSE_CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}
	if v := getEnv("SUPABASE_URL", ""); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getEnv("SUPABASE_SERVICE_KEY", ""); v != "" {
		cfg.DatabaseKey = v
	}
	if v := getEnv("STORE_BACKEND", ""); v != "" {
		cfg.StoreBackend = Backend(strings.ToLower(v))
	}
	if v := getEnv("KNOWLEDGE_BACKEND", ""); v != "" {
		cfg.KnowledgeBackend = Backend(strings.ToLower(v))
	}
	if v := getEnv("GEMINI_API_KEY", ""); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("LLM_PROVIDER", ""); v != "" {
		cfg.LLMProvider = Provider(strings.ToLower(v))
	}
	if v := getEnv("LLM_MODEL", ""); v != "" {
		cfg.LLMModel = v
	}
	if v := getEnv("EMBEDDING_MODEL", ""); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := getEnv("ELASTICSEARCH_HOST", ""); v != "" {
		cfg.ElasticsearchHost = v
	}
	if v := getEnv("ELASTICSEARCH_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ElasticsearchPort = p
		}
	}
	if v := getEnv("ELASTICSEARCH_SCHEME", ""); v != "" {
		cfg.ElasticsearchScheme = v
	}
	if v := getEnv("ELASTICSEARCH_USER", ""); v != "" {
		cfg.ElasticsearchUser = v
	}
	if v := getEnv("ELASTICSEARCH_PASSWORD", ""); v != "" {
		cfg.ElasticsearchPassword = v
	}
	if v := getEnv("ELASTICSEARCH_INDEX", ""); v != "" {
		cfg.ElasticsearchIndex = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("AGENT_TIMEOUT", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.AgentTimeout = t
		}
	}
	if v := getEnv("AGENT_MAX_ROUNDS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AgentMaxRounds = n
		}
	}
	if v := getEnv("LLM_RETRY_ATTEMPTS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryAttempts = n
		}
	}
	if v := getEnv("LLM_RETRY_BACKOFF", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RetryBackoff = d
		}
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
