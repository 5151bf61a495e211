// Package client talks to the donor matching and routing backend over JSON/HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// HTTPDoer is the subset of *http.Client used by the clients.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for outgoing requests. An empty token
// produces an unauthenticated request.
type TokenSource interface {
	Token() string
}

// Option configures a client.
type Option func(*base)

// WithHTTPDoer replaces the underlying HTTP client.
func WithHTTPDoer(d HTTPDoer) Option {
	return func(b *base) { b.doer = d }
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(b *base) { b.timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *base) { b.logger = l }
}

type base struct {
	baseURL string
	tokens  TokenSource
	doer    HTTPDoer
	timeout time.Duration
	logger  zerolog.Logger
}

func newBase(baseURL string, tokens TokenSource, timeout time.Duration, opts []Option) base {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	b := base{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		doer:    &http.Client{},
		timeout: timeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// postJSON sends body to path and decodes a 2xx response into out.
func (b *base) postJSON(ctx context.Context, path string, body, out any) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("client: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("client: failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if b.tokens != nil {
		if token := b.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	logger := b.logger.With().Str("request_id", requestID).Str("path", path).Logger()
	logger.Debug().RawJSON("body", payload).Msg("sending request")

	start := time.Now()
	resp, err := b.doer.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("received response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &ServerError{
			StatusCode: resp.StatusCode,
			Detail:     detailFromBody(raw),
			Body:       string(raw),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return classifyTransportError(ctx, err)
		}
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// detailFromBody extracts a string "detail" field from a JSON error body.
func detailFromBody(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
