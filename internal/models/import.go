package models

// Sample is one raw location observation of a network.
type Sample struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Level    int      `json:"level"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// Position returns the coordinates of the sample.
func (s Sample) Position() Position {
	return Position{Lat: s.Lat, Lon: s.Lon}
}

// Candidate is one incoming record extracted from a foreign export, ready
// for reconciliation. Observations is zero when the source did not say.
type Candidate struct {
	BSSID         string
	SSID          string
	Frequency     int64
	Capabilities  string
	LastSeen      int64
	Position      *Position
	Type          string
	Level         int
	Accuracy      *float64
	Observations  int
	APCount       int
	Note          *string
	NoteTimestamp *int64
}

// LegacyNote is one row of a standalone historical note table.
type LegacyNote struct {
	BSSID     string
	SSID      string
	Note      string
	Timestamp *int64
}

// Import actions returned by the reconciler.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
)

// ImportResult summarises the outcome of an import operation.
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

// Changed reports whether the import mutated the store.
func (r *ImportResult) Changed() bool {
	return r.Added+r.Updated+r.Notes > 0
}
