// Package epg is the HTTP client for the programme/channel data service:
// the source of truth for channels, programmes by date and reminders.
package epg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client talks to the data service. Safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithRateLimit throttles outbound requests to perSecond with the given burst.
// A non-positive perSecond disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cl *Client) {
		if perSecond <= 0 {
			cl.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		cl.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a Client for baseURL (e.g. http://localhost:3030).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: "tvminder/1.0",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do performs one request. token is sent as a bearer token when non-empty.
// in is JSON-encoded when non-nil; out is decoded from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, op, method, path, token string, in, out any) (err error) {
	done := metrics.ObserveCall("epg", op)
	defer func() { done(err) }()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return apperr.Network(err)
		}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil || token != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", c.userAgent)
	reqID := metrics.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return apperr.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return apperr.Network(err)
	}
	if err := statusError(resp.StatusCode, raw); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Rejected(apperr.CodeUnexpected, "malformed response", fmt.Errorf("decode %s: %w", op, err))
	}
	return nil
}

func statusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	cause := fmt.Errorf("HTTP %d", status)
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperr.Network(cause)
	case http.StatusUnauthorized:
		return &apperr.Error{Kind: apperr.KindUnauthenticated, Code: apperr.CodeUnauthenticated, Message: "session rejected", Err: cause}
	case http.StatusForbidden:
		return apperr.Rejected(apperr.CodeForbidden, "forbidden", cause)
	case http.StatusNotFound:
		return &apperr.Error{Kind: apperr.KindNotFound, Code: apperr.CodeNotFound, Message: "not found", Err: cause}
	}
	var e errorBody
	_ = json.Unmarshal(body, &e)
	code := e.Code
	if code == "" {
		code = e.Error
	}
	return apperr.Rejected(code, e.Message, cause)
}
