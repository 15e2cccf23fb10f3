package supabase

import (
	"bytes"
	"context"
	"net/http"

	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for POST, PATCH, DELETE
//
// All three ask for return=representation so the caller can tell an
// update that matched nothing from one that succeeded.
// ============================================================

func (c *Client) doPost(ctx context.Context, table string, data any) ([]byte, error) {
	body, err := c.doRequest(ctx, http.MethodPost, table, data)
	if err != nil {
		c.logger.Error("supabase: POST request failed",
			zap.String("table", table),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("supabase: POST OK", zap.String("table", table))
	return body, nil
}

func (c *Client) doPatch(ctx context.Context, path string, data any) ([]byte, error) {
	body, err := c.doRequest(ctx, http.MethodPatch, path, data)
	if err != nil {
		c.logger.Error("supabase: PATCH request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("supabase: PATCH OK", zap.String("path", path))
	return body, nil
}

func (c *Client) doDelete(ctx context.Context, path string) ([]byte, error) {
	body, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		c.logger.Error("supabase: DELETE request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("supabase: DELETE OK", zap.String("path", path))
	return body, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
