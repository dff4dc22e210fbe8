// Package backend is the typed client for the rental REST API. Every call
// normalises failures into the domain error taxonomy, so callers never look
// at status codes.
package backend

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

	"github.com/google/uuid"

	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/metrics"
	"camrent-web/internal/session"
)

const maxErrorText = 512

type Client struct {
	baseURL string
	http    *http.Client
	auth    session.TokenSource
}

// New builds a client for baseURL. auth supplies the bearer token and is told
// to invalidate the session when the backend answers 401.
func New(baseURL string, httpClient *http.Client, auth session.TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		auth:    auth,
	}
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	public bool
}

// do sends c and returns the raw response body of a 2xx answer.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	var token string
	if !cl.public {
		t, err := c.auth.Token(ctx)
		if err != nil {
			metrics.BackendRequests.WithLabelValues(cl.op, "unauthorized").Inc()
			return nil, fmt.Errorf("%s: %w", cl.op, err)
		}
		token = t
	}

	var buf bytes.Buffer
	if cl.body != nil {
		if err := json.NewEncoder(&buf).Encode(cl.body); err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", cl.op, err)
		}
	}

	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	corr := logger.CorrelationID(ctx)
	if corr == "" {
		corr = uuid.NewString()
	}
	req.Header.Set("X-Correlation-ID", corr)

	logger.BackendCall(ctx, cl.op, cl.method, cl.path)
	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	metrics.BackendRequestDuration.WithLabelValues(cl.op).Observe(elapsed.Seconds())
	if err != nil {
		metrics.BackendRequests.WithLabelValues(cl.op, "transport_error").Inc()
		logger.BackendResult(ctx, cl.op, 0, elapsed, err)
		return nil, fmt.Errorf("%s: %w", cl.op, err)
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		metrics.BackendRequests.WithLabelValues(cl.op, "transport_error").Inc()
		logger.BackendResult(ctx, cl.op, resp.StatusCode, elapsed, readErr)
		return nil, fmt.Errorf("%s: read response: %w", cl.op, readErr)
	}

	if err := c.classify(ctx, cl, resp.StatusCode, b); err != nil {
		logger.BackendResult(ctx, cl.op, resp.StatusCode, elapsed, err)
		return nil, fmt.Errorf("%s: %w", cl.op, err)
	}
	metrics.BackendRequests.WithLabelValues(cl.op, "ok").Inc()
	logger.BackendResult(ctx, cl.op, resp.StatusCode, elapsed, nil)
	return b, nil
}

// classify maps a status code to the error taxonomy. A 401 on an
// authenticated call clears the session as a side effect.
func (c *Client) classify(ctx context.Context, cl call, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized && !cl.public:
		metrics.BackendRequests.WithLabelValues(cl.op, "unauthorized").Inc()
		if err := c.auth.Invalidate(ctx); err != nil {
			logger.Error("Failed to clear session after 401", "operation", cl.op, "error", err)
		}
		return domain.ErrUnauthorized
	case status == http.StatusNotFound:
		metrics.BackendRequests.WithLabelValues(cl.op, "not_found").Inc()
		return domain.ErrNotFound
	}
	metrics.BackendRequests.WithLabelValues(cl.op, "server_error").Inc()
	return &domain.ServerError{StatusCode: status, Message: errorMessage(body)}
}

// errorMessage prefers the JSON body's message or title and falls back to
// the raw text.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(body, &obj) == nil {
		for _, k := range []string{"message", "Message", "title", "Title"} {
			var s string
			if raw, ok := obj[k]; ok && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	text := string(body)
	if len(text) > maxErrorText {
		text = text[:maxErrorText]
	}
	return text
}

// decode accepts either the bare payload or one wrapped in {"data": ...}.
func decode(op string, body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return fmt.Errorf("%s: empty response body", op)
	}
	if body[0] == '{' {
		var env map[string]json.RawMessage
		if json.Unmarshal(body, &env) == nil {
			_, hasID := env["id"]
			if data, ok := env["data"]; ok && !hasID && len(bytes.TrimSpace(data)) > 0 {
				body = data
			}
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	b, err := c.do(ctx, call{op: op, method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	return decode(op, b, out)
}

func pathID(prefix, id string, rest ...string) string {
	p := prefix + "/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}
