package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Export downloads the master store as a snapshot-layout SQLite file.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	data, err := c.send(ctx, call{method: http.MethodGet, path: "/api/v1/export"})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	return data, nil
}

// Import uploads an SQLite export file and merges it into the master store.
func (c *Client) Import(ctx context.Context, blob []byte) (*ImportResult, error) {
	body, err := c.send(ctx, call{
		method:      http.MethodPost,
		path:        "/api/v1/import",
		body:        blob,
		contentType: "application/vnd.sqlite3",
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	var result ImportResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
