package agent

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxBackoff = 10 * time.Second

type retryingModel struct {
	next     Model
	attempts int
	base     time.Duration
}

// WithRetry retries transient model failures with jittered exponential backoff.
// attempts counts retries after the first call.
func WithRetry(m Model, attempts int, base time.Duration) Model {
	if attempts <= 0 {
		return m
	}
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return &retryingModel{next: m, attempts: attempts, base: base}
}

func (r *retryingModel) Generate(ctx context.Context, req *Request) (*Response, error) {
	backoff := retry.NewExponential(r.base)
	backoff = retry.WithCappedDuration(maxBackoff, backoff)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(uint64(r.attempts), backoff) // #nosec G115 -- attempts > 0

	var (
		resp    *Response
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var callErr error
		resp, callErr = r.next.Generate(ctx, req)
		if callErr == nil {
			return nil
		}
		if ctx.Err() == nil && isTransient(callErr) {
			log.Warn().Err(callErr).Int("attempt", attempt).Msg("transient model error, retrying")
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// isTransient reports whether a model error is worth retrying: rate limits,
// overload and server errors, and network timeouts.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.StatusCode)
	}

	if s, ok := status.FromError(err); ok && s.Code() != codes.OK && s.Code() != codes.Unknown {
		switch s.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Internal:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func transientStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests, code == 529:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}
