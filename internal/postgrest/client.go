// Package postgrest reads and writes the site's tables through the hosted
// REST table API.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
)

const (
	mediaObject = "application/vnd.pgrst.object+json"
	mediaJSON   = "application/json"
)

type ctxKey struct{}

// WithAccessToken makes requests made with ctx run as the signed-in user so
// row level security applies. Without it requests use the anonymous key.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, token)
}

// AccessToken returns the token set by WithAccessToken, or "".
func AccessToken(ctx context.Context) string {
	token, _ := ctx.Value(ctxKey{}).(string)
	return token
}

type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func New(projectURL, anonKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(projectURL, "/") + "/rest/v1",
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	op       string
	method   string
	table    string
	query    url.Values
	body     any
	single   bool
	returnIt bool
	// kind reported for failures that are not otherwise classified
	fallback apperr.Kind
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.baseURL + "/" + r.table
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	bearer := c.anonKey
	if token := AccessToken(ctx); token != "" {
		bearer = token
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if r.single {
		req.Header.Set("Accept", mediaObject)
	} else {
		req.Header.Set("Accept", mediaJSON)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", mediaJSON)
	}
	if r.returnIt {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.FromTransport(r.op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(r.op, r.fallback, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindUnknown, r.op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// Ping issues a cheap read against table; used by diagnostics.
func (c *Client) Ping(ctx context.Context, table string) error {
	return c.do(ctx, request{
		op:     table + ".ping",
		method: http.MethodGet,
		table:  table,
		query:  url.Values{"select": {"id"}, "limit": {"1"}},
	}, nil)
}

func eq(v any) string {
	return fmt.Sprintf("eq.%v", v)
}
