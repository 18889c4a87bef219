package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/synapseai/synapse/internal/models"
)

// RateLimiter applies a fixed request budget per client key and period.
type RateLimiter struct {
	limiter *limiter.Limiter
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "synapse:ratelimit:",
		CleanUpInterval: period,
	})
	return &RateLimiter{
		limiter: limiter.New(store, limiter.Rate{Period: period, Limit: int64(limit)}),
	}
}

// Allow records a request for key and reports whether it is within the limit.
// Store errors fail open.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (limiter.Context, bool) {
	lctx, err := rl.limiter.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("rate limit store error")
		return lctx, true
	}
	return lctx, !lctx.Reached
}

// Middleware enforces the limit, keyed by the API key header when present and
// the client IP otherwise.
func (rl *RateLimiter) Middleware(keyHeader string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(keyHeader)
			if key == "" {
				key = clientIP(r)
			}

			lctx, ok := rl.Allow(r.Context(), key)

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if !ok {
				retryAfter := lctx.Reset - time.Now().Unix()
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				models.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
