package gateway

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
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// HeaderRequestID carries a per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// Config configures a Client.
type Config struct {
	// BaseURL is the collaborator API root, e.g. "https://planner.example.com/api"
	BaseURL string

	// Token is sent as a bearer token when set
	Token string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// HTTPClient overrides the transport. Token is ignored when set.
	HTTPClient *http.Client

	// Logger receives decode warnings (optional)
	Logger logging.Logger

	// Metrics records backend operations (optional)
	Metrics *instrumentation.Metrics
}

// Client talks to the collaborator backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	logger  logging.Logger
	metrics *instrumentation.Metrics
}

// New creates a Client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", raw)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		if cfg.Token != "" {
			hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: cfg.Token,
				TokenType:   "Bearer",
			}))
		} else {
			hc = &http.Client{}
		}
		hc.Timeout = cfg.Timeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	return &Client{
		base:    base,
		http:    hc,
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// response is a received HTTP response.
type response struct {
	status int
	body   []byte
}

// send performs one request. It only fails when no response was received.
func (c *Client) send(ctx context.Context, area, op, method, path string, query url.Values, body interface{}) (*response, error) {
	requestID := uuid.NewString()
	ctx, span := instrumentation.StartBackendSpan(ctx, area, op,
		attribute.String(instrumentation.SpanAttrRequestID, requestID),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.roundTrip(ctx, requestID, method, path, query, body)
	duration := time.Since(start)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordBackendOperation(ctx, area, op, instrumentation.StatusError, duration)
		c.logger.Debug("backend request failed", logging.RequestID(requestID),
			logging.Area(area), logging.Operation(op), logging.Err(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrHTTPStatus, resp.status))
	status := instrumentation.StatusSuccess
	if resp.status >= 300 {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, fmt.Errorf("http status %d", resp.status))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordBackendOperation(ctx, area, op, status, duration)
	c.logger.Debug("backend request", logging.RequestID(requestID),
		logging.Area(area), logging.Operation(op), logging.Status(status),
		"http_status", resp.status, logging.Duration(duration))
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, requestID, method, path string, query url.Values, body interface{}) (*response, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &response{status: res.StatusCode, body: data}, nil
}

// do performs a request and converts every failure into a *schedule.Error.
func (c *Client) do(ctx context.Context, area, op, method, path string, query url.Values, body interface{}) ([]byte, error) {
	name := area + "." + op
	resp, err := c.send(ctx, area, op, method, path, query, body)
	if err != nil {
		return nil, schedule.Network(name, err)
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, statusError(name, resp.status, resp.body)
	}
	return resp.body, nil
}

// decodeOne decodes a single-object response body.
func decodeOne[T any](op string, body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, &schedule.Error{
			Kind:    schedule.KindUnknown,
			Op:      op,
			Message: "The server returned an unreadable response.",
			Err:     fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return v, nil
}

// decodeList normalizes body and decodes each element, skipping the ones
// that do not decode.
func decodeList[T any](logger logging.Logger, op string, body []byte) []T {
	n := Normalize(body)
	if n.Warning != "" {
		logger.Warn("unexpected list response", logging.Operation(op),
			"shape", n.Shape.String(), "warning", n.Warning)
	}

	out := make([]T, 0, len(n.Items))
	for i, raw := range n.Items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warn("skipping undecodable list element", logging.Operation(op),
				"index", i, logging.Err(err))
			continue
		}
		out = append(out, v)
	}
	return out
}

func idPath(format string, ids ...int64) string {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, args...)
}
