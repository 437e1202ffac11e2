package wigle

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/persistorai/wifimap/internal/models"
)

const snapshotDDL = `CREATE TABLE network (
	bssid TEXT PRIMARY KEY NOT NULL,
	ssid TEXT NOT NULL,
	frequency INTEGER NOT NULL,
	capabilities TEXT NOT NULL,
	lasttime INTEGER NOT NULL,
	lastlat REAL NOT NULL,
	lastlon REAL NOT NULL,
	type TEXT NOT NULL DEFAULT 'W',
	bestlevel INTEGER NOT NULL DEFAULT 0,
	accuracy REAL,
	observations INTEGER NOT NULL DEFAULT 1,
	note TEXT,
	note_timestamp INTEGER
)`

// WriteSnapshot renders networks as a snapshot export and returns the file
// contents. Notes are folded into the network table; absent notes are NULL.
func WriteSnapshot(ctx context.Context, networks []models.Network) ([]byte, error) {
	dir, err := os.MkdirTemp("", "wifimap-export-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.sqlite")

	if err := writeSnapshotFile(ctx, path, networks); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	return data, nil
}

func writeSnapshotFile(ctx context.Context, path string, networks []models.Network) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	// A single self-contained file; no WAL sidecar.
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=DELETE`); err != nil {
		return fmt.Errorf("setting journal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, snapshotDDL); err != nil {
		return fmt.Errorf("creating network table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit.

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO network (bssid, ssid, frequency, capabilities, lasttime,
		    lastlat, lastlon, type, bestlevel, accuracy, observations, note, note_timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range networks {
		n := &networks[i]

		if _, err := stmt.ExecContext(ctx,
			n.BSSID, n.SSID, n.Frequency, n.Capabilities, n.LastSeen,
			n.Position.Lat, n.Position.Lon, n.Type, n.BestLevel,
			nullFloat(n.Accuracy), max(n.Observations, 1), nullString(n.Note), nullInt(n.NoteTimestamp)); err != nil {
			return fmt.Errorf("inserting network %s: %w", n.BSSID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: *v, Valid: true}
}
