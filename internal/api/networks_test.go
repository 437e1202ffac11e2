package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/persistorai/wifimap/internal/api"
	"github.com/persistorai/wifimap/internal/models"
)

func sampleViews() []models.NetworkView {
	return []models.NetworkView{
		{BSSID: "aa:bb:cc:00:00:01", SSID: "HomeNet", Lat: 52.5, Lon: 13.4, Type: "W", BestLevel: -40, Note: "Office AP", Observations: 2, APCount: 1},
		{BSSID: "aa:bb:cc:00:00:02", SSID: "Cafe", Lat: 48.1, Lon: 11.6, Type: "W", BestLevel: -70, Observations: 1, APCount: 1},
	}
}

func newNetworkRouter(svc *mockNetworkService) *gin.Engine {
	h := api.NewNetworkHandler(svc, testLogger())
	r := gin.New()
	r.GET("/networks", h.List)
	r.GET("/networks.geojson", h.GeoJSON)
	r.GET("/stats", h.Stats)

	return r
}

func TestNetworkList(t *testing.T) {
	t.Parallel()

	svc := &mockNetworkService{
		listFn: func(_ context.Context) ([]models.NetworkView, error) { return sampleViews(), nil },
	}

	w := doRequest(newNetworkRouter(svc), http.MethodGet, "/networks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Networks []map[string]any `json:"networks"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body.Count != 2 || len(body.Networks) != 2 {
		t.Fatalf("count = %d, networks = %d", body.Count, len(body.Networks))
	}

	if body.Networks[1]["note"] != "" {
		t.Errorf("network without note should carry an empty note, got %v", body.Networks[1]["note"])
	}

	if body.Networks[0]["lastlat"] != 52.5 {
		t.Errorf("lastlat = %v", body.Networks[0]["lastlat"])
	}
}

func TestNetworkGeoJSON(t *testing.T) {
	t.Parallel()

	svc := &mockNetworkService{
		listFn: func(_ context.Context) ([]models.NetworkView, error) { return sampleViews(), nil },
	}

	w := doRequest(newNetworkRouter(svc), http.MethodGet, "/networks.geojson", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Content-Type = %q", ct)
	}

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	if err != nil {
		t.Fatalf("invalid GeoJSON: %v", err)
	}

	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}

	first := fc.Features[0]

	pt, ok := first.Geometry.(orb.Point)
	if !ok {
		t.Fatalf("geometry is %T, want Point", first.Geometry)
	}

	if pt.Lon() != 13.4 || pt.Lat() != 52.5 {
		t.Errorf("point = %v, GeoJSON order is lon,lat", pt)
	}

	if first.Properties.MustString("ssid") != "HomeNet" || first.Properties.MustString("note") != "Office AP" {
		t.Errorf("properties = %v", first.Properties)
	}
}

func TestNetworkStats(t *testing.T) {
	t.Parallel()

	svc := &mockNetworkService{
		statsFn: func(_ context.Context) (*models.Stats, error) {
			s := models.NewStats()
			s.TotalNetworks = 3
			s.NetworksWithNotes = 1
			s.NetworkTypes["W"] = 3
			s.SecurityTypes[models.UnknownBucket] = 1

			return s, nil
		},
	}

	w := doRequest(newNetworkRouter(svc), http.MethodGet, "/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stats models.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if stats.TotalNetworks != 3 || stats.NetworksWithNotes != 1 || stats.NetworkTypes["W"] != 3 || stats.SecurityTypes["Unknown"] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestNetworkList_ServiceError(t *testing.T) {
	t.Parallel()

	svc := &mockNetworkService{
		listFn: func(_ context.Context) ([]models.NetworkView, error) { return nil, errors.New("db down") },
	}

	w := doRequest(newNetworkRouter(svc), http.MethodGet, "/networks", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
