package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/synapseai/synapse/internal/config"
	"github.com/synapseai/synapse/internal/handler"
	"github.com/synapseai/synapse/internal/metrics"
	"github.com/synapseai/synapse/internal/middleware"
	"github.com/synapseai/synapse/internal/models"
)

type Server struct {
	cfg      *config.Config
	http     *http.Server
	backends *Backends
}

func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	backends, err := NewBackends(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build backends: %w", err)
	}

	s := &Server{cfg: cfg, backends: backends}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	router := newRouter(cfg, backends.Agent, map[string]handler.HealthChecker{
		"knowledge": backends.Knowledge,
		"tickets":   backends.Tickets,
	}, limiter, metrics.New())

	// WriteTimeout must outlast the longest per-request agent timeout.
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: (models.MaxChatTimeout + 30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Str("environment", s.cfg.Environment).Msg("server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	defer s.backends.Close()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
