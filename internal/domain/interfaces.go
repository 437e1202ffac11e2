// Package domain defines the canonical service interfaces shared across the
// REST API, the watcher and the client. Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"
	"time"

	"github.com/persistorai/wifimap/internal/models"
)

// NetworkTx is the transaction-scoped view of the master store. Every write
// made through it commits or rolls back together.
type NetworkTx interface {
	// FindNetwork returns the record matching bssid or, failing that, the
	// strongest record with the same non-empty ssid. It returns nil, nil
	// when nothing matches.
	FindNetwork(ctx context.Context, bssid, ssid string) (*models.Network, error)
	// FindRival returns the strongest record with the non-empty ssid other
	// than the one stored under exclude, or nil, nil.
	FindRival(ctx context.Context, ssid, exclude string) (*models.Network, error)
	InsertNetwork(ctx context.Context, n *models.Network) error
	// UpdateNetwork replaces the record currently stored under key.
	UpdateNetwork(ctx context.Context, key string, n *models.Network) error
	// FillNote writes a note on the record stored under key only if it has none.
	FillNote(ctx context.Context, key, note string, timestamp *int64) (bool, error)
	DeleteNetwork(ctx context.Context, key string) error
	// LinkAliases records bssids as access points folded into primary,
	// taking over any access points they carried, and returns the number of
	// access points primary now stands for, itself included.
	LinkAliases(ctx context.Context, primary string, bssids []string) (int, error)
}

// ImportService defines the import pipeline.
type ImportService interface {
	Import(ctx context.Context, blob []byte, origin string) (*models.ImportResult, error)
}

// NetworkService defines the read-side views over the master store.
type NetworkService interface {
	ListNetworks(ctx context.Context) ([]models.NetworkView, error)
	ComputeStats(ctx context.Context) (*models.Stats, error)
}

// NoteService defines annotation operations.
type NoteService interface {
	SetNote(ctx context.Context, identity string, text *string) (*models.Note, error)
	GetNote(ctx context.Context, identity string) (*models.Note, error)
}

// ExportService defines snapshot export.
type ExportService interface {
	Export(ctx context.Context) ([]byte, error)
}

// HistoryService defines access to the import log.
type HistoryService interface {
	QueryImports(ctx context.Context, opts models.ImportHistoryQuery) ([]models.ImportRecord, bool, error)
	PurgeImports(ctx context.Context, retention time.Duration) (int, error)
}
