// Package supabase holds the process-wide PostgREST client shared by the
// knowledge and ticket stores.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a thin PostgREST client authenticated with a service key.
type Client struct {
	rest *resty.Client
}

// New builds a client for the project at baseURL. It performs no network I/O.
func New(baseURL, serviceKey string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase url is required")
	}
	if serviceKey == "" {
		return nil, errors.New("supabase service key is required")
	}
	rest := resty.New().
		SetBaseURL(baseURL+"/rest/v1").
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey)
	return &Client{rest: rest}, nil
}

// RPC calls a Postgres function exposed under /rpc and decodes the result into out.
func (c *Client) RPC(ctx context.Context, function string, params, out any) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(out).
		Post("/rpc/" + function)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", function, err)
	}
	return checkResponse(resp)
}

// Insert appends row to table without asking for the representation back.
func (c *Client) Insert(ctx context.Context, table string, row any) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(row).
		Post("/" + table)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return checkResponse(resp)
}

// Ping checks that the table is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context, table string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("limit", "0").
		Head("/" + table)
	if err != nil {
		return err
	}
	return checkResponse(resp)
}

// Error is a non-2xx PostgREST response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("supabase: %d %s", e.StatusCode, e.Message)
}

func checkResponse(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	return &Error{
		StatusCode: resp.StatusCode(),
		Message:    strings.TrimSpace(resp.String()),
	}
}
