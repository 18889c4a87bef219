package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type flakyModel struct {
	errs  []error
	calls int
}

func (f *flakyModel) Generate(context.Context, *Request) (*Response, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &Response{Text: "ok"}, nil
}

// apiError builds an SDK error complete enough for Error() to render.
func apiError(code int) *anthropic.Error {
	req := httptest.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil)
	return &anthropic.Error{
		StatusCode: code,
		Request:    req,
		Response:   &http.Response{StatusCode: code, Request: req},
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", apiError(429), true},
		{"overloaded", fmt.Errorf("wrapped: %w", apiError(529)), true},
		{"server error", apiError(503), true},
		{"bad request", apiError(400), false},
		{"unauthorized", apiError(401), false},
		{"grpc unavailable", status.Error(codes.Unavailable, "try later"), true},
		{"grpc quota", status.Error(codes.ResourceExhausted, "quota"), true},
		{"grpc invalid", status.Error(codes.InvalidArgument, "bad schema"), false},
		{"network timeout", &net.DNSError{IsTimeout: true}, true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isTransient(tc.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("Should retry transient errors", func(t *testing.T) {
		m := &flakyModel{errs: []error{
			apiError(529),
			status.Error(codes.Unavailable, "busy"),
		}}
		resp, err := WithRetry(m, 3, time.Millisecond).Generate(context.Background(), &Request{})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Text)
		assert.Equal(t, 3, m.calls)
	})

	t.Run("Should stop on permanent errors", func(t *testing.T) {
		m := &flakyModel{errs: []error{apiError(400)}}
		_, err := WithRetry(m, 3, time.Millisecond).Generate(context.Background(), &Request{})
		require.Error(t, err)
		assert.Equal(t, 1, m.calls)
	})

	t.Run("Should give up after the configured attempts", func(t *testing.T) {
		m := &flakyModel{errs: []error{
			apiError(429),
			apiError(429),
			apiError(429),
		}}
		_, err := WithRetry(m, 2, time.Millisecond).Generate(context.Background(), &Request{})
		require.Error(t, err)
		var apiErr *anthropic.Error
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 3, m.calls)
	})

	t.Run("Should return the model unchanged without attempts", func(t *testing.T) {
		m := &flakyModel{}
		assert.Same(t, Model(m), WithRetry(m, 0, time.Second))
	})
}
