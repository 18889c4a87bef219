package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/synapseai/synapse/internal/models"
)

const version = "1.0.0"

// HealthChecker is implemented by backends that can report connectivity
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health with dependency checks
type HealthHandler struct {
	checks  map[string]HealthChecker
	timeout time.Duration
}

func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 5 * time.Second}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = map[string]string{"server": "ok"}
		status = "healthy"
		g      errgroup.Group
	)
	for name, checker := range h.checks {
		g.Go(func() error {
			state := "ok"
			if err := checker.Ping(ctx); err != nil {
				state = "unavailable: " + err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			checks[name] = state
			if state != "ok" {
				status = "degraded"
			}
			return nil
		})
	}
	_ = g.Wait()

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	models.WriteJSON(w, code, models.HealthResponse{
		Status:  status,
		Version: version,
		Checks:  checks,
	})
}
