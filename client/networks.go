package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/paulmach/orb/geojson"
)

// NetworkService reads the map views.
type NetworkService struct {
	c *Client
}

// List returns every positioned network, strongest signal first.
func (s *NetworkService) List(ctx context.Context) ([]Network, error) {
	var resp struct {
		Networks []Network `json:"networks"`
	}
	if err := s.c.getJSON(ctx, "/api/v1/networks", nil, &resp); err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	return resp.Networks, nil
}

// GeoJSON returns the networks as a FeatureCollection of points.
func (s *NetworkService) GeoJSON(ctx context.Context) (*geojson.FeatureCollection, error) {
	body, err := s.c.send(ctx, call{method: http.MethodGet, path: "/api/v1/networks.geojson"})
	if err != nil {
		return nil, fmt.Errorf("networks geojson: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	return fc, nil
}
