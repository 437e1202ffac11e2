package client

import (
	"context"
	"fmt"
	"net/url"
)

// NoteService reads and writes network annotations.
type NoteService struct {
	c *Client
}

// Get returns the note for the network matching identity (BSSID or SSID).
func (s *NoteService) Get(ctx context.Context, identity string) (*Note, error) {
	var note Note
	if err := s.c.getJSON(ctx, "/api/v1/notes/"+url.PathEscape(identity), nil, &note); err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &note, nil
}

// Set writes text as the note of the network matching identity.
func (s *NoteService) Set(ctx context.Context, identity, text string) (*Note, error) {
	body := map[string]string{"note": text}

	var note Note
	if err := s.c.putJSON(ctx, "/api/v1/notes/"+url.PathEscape(identity), body, &note); err != nil {
		return nil, fmt.Errorf("set note: %w", err)
	}
	return &note, nil
}
