package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// newTestServer creates a test server that routes to the given handler map.
// Keys are "METHOD /path", values are handler funcs.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithAPIKey("test-key"))
	return srv, c
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestHealth(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, HealthResponse{Status: "ok", Version: "0.3.0", Database: "ok"})
		},
	})
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("got status %q, want ok", resp.Status)
	}
	if resp.Version != "0.3.0" {
		t.Errorf("got version %q, want 0.3.0", resp.Version)
	}
}

func TestReadyNotReady(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/ready": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 503, ReadyResponse{Status: "not_ready", Checks: map[string]string{"schema": "pending"}})
		},
	})
	_, err := c.Ready(context.Background())
	var apiErr *APIError
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 503 {
		t.Errorf("expected 503 APIError, got: %v", err)
	}
}

func TestStats(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/stats": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{
				"totalNetworks":     12,
				"networksWithNotes": 2,
				"networkTypes":      map[string]int{"W": 12},
				"securityTypes":     map[string]int{"[WPA2-PSK-CCMP][ESS]": 7, "Unknown": 5},
			})
		},
	})
	resp, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if resp.TotalNetworks != 12 {
		t.Errorf("got total %d, want 12", resp.TotalNetworks)
	}
	if resp.NetworksWithNotes != 2 {
		t.Errorf("got with notes %d, want 2", resp.NetworksWithNotes)
	}
	if resp.SecurityTypes["Unknown"] != 5 {
		t.Errorf("got unknown security %d, want 5", resp.SecurityTypes["Unknown"])
	}
}

func TestNetworksList(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/networks": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{
				"networks": []Network{
					{BSSID: "aa:bb:cc:dd:ee:01", SSID: "Cafe", Lat: 52.52, Lon: 13.40, BestLevel: -40},
					{BSSID: "aa:bb:cc:dd:ee:02", SSID: "Home", Lat: 52.50, Lon: 13.38, BestLevel: -70},
				},
				"count": 2,
			})
		},
	})
	networks, err := c.Networks.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(networks) != 2 {
		t.Fatalf("got %d networks, want 2", len(networks))
	}
	if networks[0].SSID != "Cafe" || networks[0].Lat != 52.52 {
		t.Errorf("unexpected first network: %+v", networks[0])
	}
}

func TestNetworksGeoJSON(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/networks.geojson": func(w http.ResponseWriter, _ *http.Request) {
			fc := geojson.NewFeatureCollection()
			f := geojson.NewFeature(orb.Point{13.40, 52.52})
			f.Properties["bssid"] = "aa:bb:cc:dd:ee:01"
			fc.Append(f)
			data, _ := fc.MarshalJSON()
			w.Header().Set("Content-Type", "application/geo+json")
			w.Write(data) //nolint:errcheck
		},
	})
	fc, err := c.Networks.GeoJSON(context.Background())
	if err != nil {
		t.Fatalf("GeoJSON() error: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(fc.Features))
	}
	pt, ok := fc.Features[0].Geometry.(orb.Point)
	if !ok {
		t.Fatalf("geometry is %T, want orb.Point", fc.Features[0].Geometry)
	}
	if pt.Lon() != 13.40 || pt.Lat() != 52.52 {
		t.Errorf("got point %v", pt)
	}
	if fc.Features[0].Properties.MustString("bssid") != "aa:bb:cc:dd:ee:01" {
		t.Errorf("bssid property missing")
	}
}

func TestNotes(t *testing.T) {
	ts := int64(1700000000000)
	var gotBody map[string]string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/notes/{identity}": func(w http.ResponseWriter, r *http.Request) {
			if r.PathValue("identity") != "Cafe Wifi" {
				jsonResponse(w, 404, map[string]string{"code": "not_found", "message": "network not found"})
				return
			}
			jsonResponse(w, 200, Note{Identity: "Cafe Wifi", Note: "slow", Timestamp: &ts})
		},
		"PUT /api/v1/notes/{identity}": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
			jsonResponse(w, 200, Note{Identity: r.PathValue("identity"), Note: gotBody["note"], Timestamp: &ts})
		},
	})

	ctx := context.Background()

	note, err := c.Notes.Get(ctx, "Cafe Wifi")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if note.Note != "slow" || note.Timestamp == nil || *note.Timestamp != ts {
		t.Errorf("unexpected note: %+v", note)
	}

	_, err = c.Notes.Get(ctx, "Other")
	if !IsNotFound(err) {
		t.Errorf("expected not found, got: %v", err)
	}

	note, err = c.Notes.Set(ctx, "aa:bb:cc:dd:ee:01", "fast now")
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if gotBody["note"] != "fast now" {
		t.Errorf("request body note: got %q", gotBody["note"])
	}
	if note.Identity != "aa:bb:cc:dd:ee:01" {
		t.Errorf("identity: got %q", note.Identity)
	}
}

func TestImportExport(t *testing.T) {
	blob := []byte("SQLite format 3\x00fake")
	var gotUpload []byte
	var gotType string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/import": func(w http.ResponseWriter, r *http.Request) {
			gotType = r.Header.Get("Content-Type")
			gotUpload, _ = io.ReadAll(r.Body)
			jsonResponse(w, 200, ImportResult{Schema: "wigle", Added: 3, Updated: 1})
		},
		"GET /api/v1/export": func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/vnd.sqlite3")
			w.Write(blob) //nolint:errcheck
		},
	})

	ctx := context.Background()

	result, err := c.Import(ctx, blob)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if result.Added != 3 || result.Updated != 1 || result.Schema != "wigle" {
		t.Errorf("unexpected result: %+v", result)
	}
	if string(gotUpload) != string(blob) {
		t.Errorf("uploaded body mismatch")
	}
	if gotType != "application/vnd.sqlite3" {
		t.Errorf("content type: got %q", gotType)
	}

	data, err := c.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if string(data) != string(blob) {
		t.Errorf("export body mismatch")
	}
}

func TestAPIError(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/import": func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > 4 {
				jsonResponse(w, 503, map[string]string{"code": "import_busy", "message": "another import is in progress"})
				return
			}
			jsonResponse(w, 400, map[string]string{"code": "malformed_input", "message": "not an sqlite file"})
		},
		"GET /api/v1/stats": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(429)
			w.Write([]byte("slow down")) //nolint:errcheck
		},
	})

	ctx := context.Background()

	_, err := c.Import(ctx, []byte("junk"))
	if !IsMalformedInput(err) {
		t.Errorf("expected malformed input, got: %v", err)
	}

	_, err = c.Import(ctx, []byte("SQLite format 3"))
	if !IsImportBusy(err) {
		t.Errorf("expected import busy, got: %v", err)
	}

	_, err = c.Stats(ctx)
	if !IsRateLimited(err) {
		t.Errorf("expected rate limited, got: %v", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "slow down" {
		t.Errorf("raw body fallback: got %q", apiErr.Message)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: 404, Code: "not_found", Message: "network not found", RequestID: "r1"}
	want := "wifimap: 404 not_found: network not found (request_id=r1)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestAuthHeader(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(w, 200, HealthResponse{Status: "ok"})
		},
	})

	c.Health(context.Background()) //nolint:errcheck
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header: got %q, want %q", gotAuth, "Bearer test-key")
	}
}

func TestHistory(t *testing.T) {
	var gotQuery, gotRetention string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/imports": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			jsonResponse(w, 200, map[string]any{
				"data":     []ImportRecord{{ImportID: "imp-1", Status: "ok", Added: 2}},
				"has_more": true,
			})
		},
		"DELETE /api/v1/imports": func(w http.ResponseWriter, r *http.Request) {
			gotRetention = r.URL.Query().Get("retention_days")
			jsonResponse(w, 200, map[string]int{"deleted": 4, "retention_days": 30})
		},
	})

	ctx := context.Background()

	records, hasMore, err := c.History.List(ctx, &HistoryListOptions{Status: "ok", Limit: 5})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(records) != 1 || records[0].ImportID != "imp-1" || !hasMore {
		t.Errorf("unexpected list: %+v has_more=%v", records, hasMore)
	}
	if gotQuery != "limit=5&status=ok" {
		t.Errorf("query: got %q", gotQuery)
	}

	deleted, err := c.History.Purge(ctx, 30)
	if err != nil {
		t.Fatalf("Purge() error: %v", err)
	}
	if deleted != 4 || gotRetention != "30" {
		t.Errorf("deleted %d retention %q", deleted, gotRetention)
	}
}

func TestImportRetriesWhenBusy(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
		if string(body) != "blob" {
			t.Errorf("attempt %d body = %q, want the original payload", calls.Load()+1, body)
		}

		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"code": "import_busy", "message": "busy"})

			return
		}

		jsonResponse(w, http.StatusOK, ImportResult{ImportID: "imp-2", Added: 1})
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, WithRetries(2))

	res, err := c.Import(context.Background(), []byte("blob"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.ImportID != "imp-2" || calls.Load() != 2 {
		t.Errorf("result %+v after %d calls", res, calls.Load())
	}
}

func TestNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32

	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/import": func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"code": "import_busy", "message": "busy"})
		},
	})

	_, err := c.Import(context.Background(), []byte("blob"))
	if !IsImportBusy(err) {
		t.Fatalf("expected import busy, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", time.Second},
		{"3", 3 * time.Second},
		{"junk", time.Second},
		{"-2", time.Second},
		{"600", maxRetryWait},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.header); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestUserAgentAndTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "wifimap-cli/1" {
			t.Errorf("User-Agent = %q", ua)
		}
		jsonResponse(w, http.StatusOK, HealthResponse{Status: "ok"})
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL+"/", WithUserAgent("wifimap-cli/1"))
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
