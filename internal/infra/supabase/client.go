// Package supabase provides a client for Supabase (PostgREST).
// It is the data backend for every CRM table the dashboard reads and writes.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// statusError is a non-2xx answer from PostgREST.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase returned status %d: %s", e.Status, e.Body)
}

// postgrestError is the JSON error body PostgREST sends on 4xx.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// doRequest executes an authenticated request to Supabase PostgREST.
// A nil payload sends no body.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)

	var reader io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &statusError{Status: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// getRows runs a read through the circuit breaker with retry and decodes the
// JSON array into out. An empty answer decodes as an empty array.
func (c *Client) getRows(ctx context.Context, resource, path string, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			var se *statusError
			if errors.As(err, &se) && se.Status < http.StatusInternalServerError {
				return resilience.Permanent(err)
			}
			if err != nil {
				return err
			}
			if len(body) == 0 {
				body = []byte("[]")
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode %s: %w", resource, err)
			}
			return nil
		})
	})
	return c.classify(resource, err)
}

// writeRow sends a single write and decodes the first returned row into out
// (when out is non-nil). Writes are not retried. Zero affected rows means the
// filter matched nothing the caller owns.
func (c *Client) writeRow(ctx context.Context, method, resource, id, path string, payload any, out any) error {
	var (
		body []byte
		err  error
	)
	switch method {
	case http.MethodPost:
		body, err = c.doPost(ctx, path, payload)
	case http.MethodPatch:
		body, err = c.doPatch(ctx, path, payload)
	case http.MethodDelete:
		body, err = c.doDelete(ctx, path)
	default:
		return fmt.Errorf("unsupported write method %s", method)
	}
	if err != nil {
		return c.classify(resource, err)
	}

	var rows []json.RawMessage
	if len(body) > 0 {
		if err := json.Unmarshal(body, &rows); err != nil {
			return &domain.ErrExternalService{Service: "supabase/" + resource, Err: fmt.Errorf("decode %s: %w", resource, err)}
		}
	}
	if len(rows) == 0 {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return &domain.ErrExternalService{Service: "supabase/" + resource, Err: fmt.Errorf("decode %s: %w", resource, err)}
	}
	return nil
}

// classify maps transport, breaker and PostgREST failures to domain errors.
func (c *Client) classify(resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "supabase"}
	}

	var se *statusError
	if errors.As(err, &se) {
		var pg postgrestError
		_ = json.Unmarshal([]byte(se.Body), &pg)
		switch {
		case se.Status == http.StatusConflict || pg.Code == "23505":
			return &domain.ErrConflict{Message: fmt.Sprintf("%s: %s", resource, pg.Message)}
		case pg.Code == "23503":
			return &domain.ErrValidation{Field: resource, Message: "referenced record does not exist"}
		case se.Status == http.StatusBadRequest && pg.Message != "":
			return &domain.ErrValidation{Field: resource, Message: pg.Message}
		}
	}
	return &domain.ErrExternalService{Service: "supabase/" + resource, Err: err}
}

// Ping checks that PostgREST answers; used by /healthz.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodGet, "profiles?select=id&limit=1", nil)
	return err
}

// eq builds a PostgREST equality filter value.
func eq(v any) string {
	return "eq." + url.QueryEscape(fmt.Sprint(v))
}
