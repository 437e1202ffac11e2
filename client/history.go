package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// HistoryService reads and prunes the server's import log.
type HistoryService struct {
	c *Client
}

// List returns import log entries, newest first, and whether more exist.
func (s *HistoryService) List(ctx context.Context, opts *HistoryListOptions) ([]ImportRecord, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		if opts.Origin != "" {
			params.Set("origin", opts.Origin)
		}
		if opts.Since != nil {
			params.Set("since", opts.Since.UTC().Format(time.RFC3339))
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}

	var resp struct {
		Data    []ImportRecord `json:"data"`
		HasMore bool           `json:"has_more"`
	}
	if err := s.c.getJSON(ctx, "/api/v1/imports", params, &resp); err != nil {
		return nil, false, fmt.Errorf("list imports: %w", err)
	}
	return resp.Data, resp.HasMore, nil
}

// Purge deletes import log entries older than retentionDays and returns how
// many were removed.
func (s *HistoryService) Purge(ctx context.Context, retentionDays int) (int, error) {
	params := url.Values{}
	if retentionDays > 0 {
		params.Set("retention_days", strconv.Itoa(retentionDays))
	}

	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := s.c.deleteJSON(ctx, "/api/v1/imports", params, &resp); err != nil {
		return 0, fmt.Errorf("purge imports: %w", err)
	}
	return resp.Deleted, nil
}
