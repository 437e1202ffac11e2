// Package store provides data access for the master network store.
//
// Stores embed shared helpers (Pool, logger) via the Base struct. Multi-step
// writes go through RunInTx so either every mutation of a batch is visible
// or none is.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/dbpool"
	"github.com/persistorai/wifimap/internal/domain"
	"github.com/persistorai/wifimap/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// NetworkStore reads and writes network records.
type NetworkStore struct {
	Base
}

// NewNetworkStore creates a NetworkStore.
func NewNetworkStore(pool *dbpool.Pool, log *logrus.Logger) *NetworkStore {
	return &NetworkStore{Base: Base{Pool: pool, Log: log}}
}

// RunInTx runs fn inside one transaction. Any error from fn, a cancelled
// context, or a failed commit rolls the whole transaction back. Store-level
// failures come back as *models.TransactionError; errors returned by fn are
// passed through unchanged.
func (s *NetworkStore) RunInTx(ctx context.Context, fn func(tx domain.NetworkTx) error) error {
	sqlTx, err := s.Pool.BeginTx(ctx, nil)
	if err != nil {
		return &models.TransactionError{Op: "begin", Err: err}
	}

	defer sqlTx.Rollback() //nolint:errcheck // no-op after commit.

	if err := fn(&networkTx{tx: sqlTx}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return &models.TransactionError{Op: "cancel", Err: err}
	}

	if err := sqlTx.Commit(); err != nil {
		return &models.TransactionError{Op: "commit", Err: err}
	}

	return nil
}

// Flush makes everything committed so far durable in the main database file.
func (s *NetworkStore) Flush(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := s.Pool.Checkpoint(ctx); err != nil {
		return fmt.Errorf("flushing store: %w", err)
	}

	return nil
}

// rowQuerier is satisfied by *sql.Tx and poolQuerier.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type poolQuerier struct{ pool *dbpool.Pool }

func (q poolQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return q.pool.QueryRow(ctx, query, args...)
}

// findNetwork looks a record up by bssid, then by non-empty ssid.
func findNetwork(ctx context.Context, q rowQuerier, bssid, ssid string) (*models.Network, error) {
	if bssid != "" {
		n, err := scanNetwork(q.QueryRowContext(ctx,
			`SELECT `+networkColumns+` FROM network WHERE bssid = ?`, bssid).Scan)
		switch {
		case err == nil:
			return n, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("finding network by bssid: %w", err)
		}
	}

	if ssid == "" {
		return nil, nil
	}

	n, err := scanNetwork(q.QueryRowContext(ctx,
		`SELECT `+networkColumns+` FROM network WHERE ssid = ? ORDER BY bestlevel DESC, bssid LIMIT 1`, ssid).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("finding network by ssid: %w", err)
	}

	return n, nil
}
