package client

import "time"

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is returned by the readiness endpoint.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Network is one stored network as shown on the map.
type Network struct {
	BSSID         string   `json:"bssid"`
	SSID          string   `json:"ssid"`
	Frequency     int64    `json:"frequency"`
	Capabilities  string   `json:"capabilities"`
	LastSeen      int64    `json:"lasttime"`
	Lat           float64  `json:"lastlat"`
	Lon           float64  `json:"lastlon"`
	Type          string   `json:"type"`
	BestLevel     int      `json:"bestlevel"`
	Accuracy      *float64 `json:"accuracy,omitempty"`
	Observations  int      `json:"observations"`
	APCount       int      `json:"ap_count"`
	Note          string   `json:"note"`
	NoteTimestamp *int64   `json:"note_timestamp,omitempty"`
}

// Stats holds aggregate counts over the stored networks.
type Stats struct {
	TotalNetworks     int            `json:"totalNetworks"`
	NetworksWithNotes int            `json:"networksWithNotes"`
	NetworkTypes      map[string]int `json:"networkTypes"`
	SecurityTypes     map[string]int `json:"securityTypes"`
}

// Note is a user annotation attached to a network.
type Note struct {
	Identity  string `json:"identity"`
	Note      string `json:"note"`
	Timestamp *int64 `json:"timestamp"`
}

// ImportResult summarises one import run.
type ImportResult struct {
	ImportID string   `json:"import_id"`
	Schema   string   `json:"schema"`
	Added    int      `json:"added"`
	Updated  int      `json:"updated"`
	Notes    int      `json:"notes"`
	Skipped  int      `json:"skipped"`
	Excluded int      `json:"excluded"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportRecord is one entry of the server's import log.
type ImportRecord struct {
	ImportID  string         `json:"import_id"`
	Origin    string         `json:"origin"`
	Schema    string         `json:"schema"`
	Status    string         `json:"status"`
	Added     int            `json:"added"`
	Updated   int            `json:"updated"`
	Notes     int            `json:"notes"`
	Skipped   int            `json:"skipped"`
	Excluded  int            `json:"excluded"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// HistoryListOptions filters the import log.
type HistoryListOptions struct {
	Status string
	Origin string
	Since  *time.Time
	Limit  int
	Offset int
}
