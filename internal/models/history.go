package models

import "time"

// Import log statuses. Failed runs use the outcome label of their error.
const (
	ImportStatusOK         = "ok"
	ImportStatusMalformed  = "malformed"
	ImportStatusRolledBack = "rolled_back"
	ImportStatusFailed     = "failed"
)

// ImportRecord is one row of the import log. Every import that got past the
// queue is recorded, whether it committed or not.
type ImportRecord struct {
	ID        string         `json:"import_id"`
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

// ImportHistoryQuery holds filters for querying the import log.
type ImportHistoryQuery struct {
	Status string
	Origin string
	Since  *time.Time
	Limit  int
	Offset int
}
