package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/synapseai/synapse/internal/config"
	"github.com/synapseai/synapse/internal/handler"
	"github.com/synapseai/synapse/internal/metrics"
	"github.com/synapseai/synapse/internal/middleware"
	"github.com/synapseai/synapse/internal/security"
)

func newRouter(
	cfg *config.Config,
	a handler.Agent,
	checks map[string]handler.HealthChecker,
	limiter *middleware.RateLimiter,
	m *metrics.Metrics,
) http.Handler {
	authEnabled := cfg.EnableAuth && len(cfg.APIKeys) > 0

	log.Info().
		Bool("auth_enabled", authEnabled).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Int("rate_limit_per_minute", cfg.RateLimitPerMinute).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - chat requests are unauthenticated")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(checks)
	chatH := handler.NewChatHandler(
		a,
		security.NewPromptValidator(cfg.MaxPromptLength),
		security.NewAuditLogger(cfg.EnableAuditLogging),
		m,
		cfg.AgentTimeout,
		cfg.APIKeyHeader,
	)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware(cfg.APIKeyHeader))
		if authEnabled {
			r.Use(middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
		}
		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/chat", chatH.Chat)
		})
	})

	return r
}
