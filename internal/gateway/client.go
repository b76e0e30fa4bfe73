// Package gateway is the only boundary to the ticketing API server. Every
// function is stateless: authenticated calls take the bearer token as an
// argument and every failure comes back as an *errorutil.APIError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/observability"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util/errorutil"
)

const maxBodyBytes = 4 << 20

// ErrMissingToken is the message used when an authenticated call has no token.
const ErrMissingToken = "No authentication token found"

// Client performs HTTP calls against the API base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewClient builds a client for cfg.BaseURL.
func NewClient(cfg config.APIConfig, logger *zap.Logger, metrics *observability.Metrics) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse API base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("API base url %q must be absolute", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one API call. Label is the path template used for
// metrics so ids do not explode the counter keys.
type request struct {
	method string
	path   string
	label  string
	query  url.Values
	token  string
	auth   bool
	body   any
}

func (c *Client) do(ctx context.Context, req request, out any) (int, []byte, error) {
	if req.auth && strings.TrimSpace(req.token) == "" {
		c.metrics.RecordError(req.label, req.method, "PRECONDITION_FAILED")
		return 0, nil, apperrors.NewPreconditionError(ErrMissingToken)
	}

	target := c.baseURL.ResolveReference(&url.URL{Path: req.path})
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return 0, nil, apperrors.NewPreconditionError(fmt.Sprintf("encode request: %v", err))
		}
		payload = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), payload)
	if err != nil {
		return 0, nil, apperrors.NewPreconditionError(fmt.Sprintf("build request: %v", err))
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.auth {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordError(req.label, req.method, "NETWORK_ERROR")
		c.logger.Debug("api call failed",
			zap.String("request_id", requestID),
			zap.String("method", req.method),
			zap.String("endpoint", req.label),
			zap.Error(err))
		return 0, nil, apperrors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(started)
	c.metrics.RecordRequest(req.label, req.method, resp.StatusCode, elapsed)
	c.logger.Debug("api call",
		zap.String("request_id", requestID),
		zap.String("method", req.method),
		zap.String("endpoint", req.label),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))
	if err != nil {
		return resp.StatusCode, nil, apperrors.NewNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := serverError(resp.StatusCode, resp.Status, body)
		c.metrics.RecordError(req.label, req.method, apiErr.Code())
		return resp.StatusCode, body, apiErr
	}

	if out != nil {
		if len(bytes.TrimSpace(body)) == 0 {
			return resp.StatusCode, body, apperrors.NewMalformedResponse(resp.StatusCode, errors.New("empty body"))
		}
		if err := json.Unmarshal(body, out); err != nil {
			c.metrics.RecordError(req.label, req.method, "MALFORMED_RESPONSE")
			return resp.StatusCode, body, apperrors.NewMalformedResponse(resp.StatusCode, err)
		}
	}
	return resp.StatusCode, body, nil
}

// serverError extracts the server-provided message from a non-2xx body. The
// API answers either with a JSON object carrying "message"/"error", a JSON
// string, or plain text.
func serverError(status int, statusLine string, body []byte) *apperrors.APIError {
	trimmed := bytes.TrimSpace(body)
	var data any
	message := ""
	if len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &data); err == nil {
			switch v := data.(type) {
			case map[string]any:
				message = firstString(v, "message", "error", "detail")
			case string:
				message = v
			}
		} else {
			data = string(trimmed)
			message = string(trimmed)
		}
	}
	apiErr := apperrors.NewServerError(status, message, data)
	if text := strings.TrimSpace(strings.TrimPrefix(statusLine, fmt.Sprint(status))); text != "" {
		apiErr.StatusText = text
	}
	return apiErr
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Ping reports whether the API server answers at all. Any HTTP status,
// including 404 on the bare base URL, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	if err != nil {
		return apperrors.NewPreconditionError(fmt.Sprintf("build request: %v", err))
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apperrors.NewNetworkError(err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return resp.Body.Close()
}
