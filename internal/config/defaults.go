package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultStoreBackend     = BackendSupabase
	DefaultDocumentsTable   = "documents"
	DefaultTicketsTable     = "support_tickets"
	DefaultMatchFunction    = "match_documents"
	DefaultSupabaseTimeout  = 30 * time.Second
	DefaultPostgresMaxConns = 10

	DefaultElasticsearchPort       = 9200
	DefaultElasticsearchScheme     = "http"
	DefaultElasticsearchIndex      = "documents"
	DefaultElasticsearchMaxRetries = 3

	DefaultLLMProvider    = ProviderGemini
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultAnthropicModel = "claude-sonnet-4-6"
	DefaultEmbeddingModel = "embedding-001"
	DefaultEmbeddingDims  = 768

	DefaultAgentTimeout   = 120 // seconds
	DefaultAgentMaxRounds = 8
	DefaultRetryAttempts  = 3
	DefaultRetryBackoff   = 500 * time.Millisecond

	DefaultMaxPromptLength = 2000
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8501",
}
