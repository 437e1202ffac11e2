package store

import (
	"context"
	"fmt"

	"github.com/persistorai/wifimap/internal/models"
)

// ListNetworks returns every stored network, strongest signal first.
func (s *NetworkStore) ListNetworks(ctx context.Context) ([]models.Network, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT `+networkColumns+` FROM network ORDER BY bestlevel DESC, bssid`)
	if err != nil {
		return nil, fmt.Errorf("listing networks: %w", err)
	}
	defer rows.Close()

	networks := []models.Network{}

	for rows.Next() {
		n, err := scanNetwork(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning network: %w", err)
		}

		networks = append(networks, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating networks: %w", err)
	}

	return networks, nil
}

// GetNetwork returns the record matching identity by bssid, then by ssid.
func (s *NetworkStore) GetNetwork(ctx context.Context, identity string) (*models.Network, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := findNetwork(ctx, poolQuerier{s.Pool}, identity, identity)
	if err != nil {
		return nil, err
	}

	if n == nil {
		return nil, models.ErrNetworkNotFound
	}

	return n, nil
}

// Stats computes aggregate counts. An empty store yields zero counts and
// empty histograms.
func (s *NetworkStore) Stats(ctx context.Context) (*models.Stats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	stats := models.NewStats()

	err := s.Pool.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN note IS NOT NULL AND note <> '' AND note_timestamp IS NOT NULL THEN 1 ELSE 0 END), 0)
		 FROM network`).Scan(&stats.TotalNetworks, &stats.NetworksWithNotes)
	if err != nil {
		return nil, fmt.Errorf("counting networks: %w", err)
	}

	if err := s.histogram(ctx, "type", stats.NetworkTypes); err != nil {
		return nil, err
	}

	if err := s.histogram(ctx, "capabilities", stats.SecurityTypes); err != nil {
		return nil, err
	}

	return stats, nil
}

// histogram counts rows per distinct value of column. column is one of a
// fixed set of identifiers.
func (s *NetworkStore) histogram(ctx context.Context, column string, into map[string]int) error {
	rows, err := s.Pool.Query(ctx,
		`SELECT COALESCE(NULLIF(`+column+`, ''), ?), COUNT(*) FROM network GROUP BY 1`,
		models.UnknownBucket)
	if err != nil {
		return fmt.Errorf("grouping by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)

		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scanning %s histogram: %w", column, err)
		}

		into[key] += count
	}

	return rows.Err()
}

// SetNote writes note and timestamp on the network matching identity in one
// transaction. It returns models.ErrNetworkNotFound when nothing matches.
func (s *NetworkStore) SetNote(ctx context.Context, identity, note string, timestamp int64) (*models.Network, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, &models.TransactionError{Op: "begin", Err: err}
	}

	defer tx.Rollback() //nolint:errcheck // no-op after commit.

	n, err := findNetwork(ctx, tx, identity, identity)
	if err != nil {
		return nil, err
	}

	if n == nil {
		return nil, models.ErrNetworkNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE network SET note = ?, note_timestamp = ? WHERE bssid = ?`,
		note, timestamp, n.BSSID); err != nil {
		return nil, fmt.Errorf("saving note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, &models.TransactionError{Op: "commit", Err: err}
	}

	n.Note = &note
	n.NoteTimestamp = &timestamp

	return n, nil
}
