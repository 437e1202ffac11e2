// Package dbpool provides SQLite connection management for the master store.
package dbpool

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// MemoryPath opens a private in-memory store.
const MemoryPath = ":memory:"

// Pool wraps a *sql.DB opened on the master SQLite file.
// The handle is unexported so callers go through the store's timeout helpers.
type Pool struct {
	db   *sql.DB
	path string
}

// NewPool opens the SQLite database at path with WAL journaling and a busy
// timeout applied to every connection.
func NewPool(ctx context.Context, path string) (*Pool, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(4)
	}

	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{db: db, path: path}, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	// Writers take the lock at BEGIN so a read-then-write transaction never
	// fails its upgrade halfway through a batch.
	q.Add("_txlock", "immediate")

	if path == MemoryPath {
		return path + "?" + q.Encode()
	}

	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")

	return "file:" + path + "?" + q.Encode()
}

// DB returns the underlying handle for tooling that needs a *sql.DB, such as
// the migration runner.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Exec executes a query that doesn't return rows.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.db.ExecContext(ctx, query, args...)
}

// Query executes a query that returns rows.
func (p *Pool) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row.
func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (p *Pool) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return p.db.BeginTx(ctx, opts)
}

// HealthCheck verifies database connectivity by executing a simple query.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var result int

	if err := p.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("health check query: %w", err)
	}

	return nil
}

// Checkpoint flushes the write-ahead log into the main database file so the
// file on disk is complete on its own.
func (p *Pool) Checkpoint(ctx context.Context) error {
	if p.path == MemoryPath {
		return nil
	}

	if _, err := p.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}

	return nil
}

// Path returns the database path the pool was opened with.
func (p *Pool) Path() string {
	return p.path
}

// Close closes the database handle.
func (p *Pool) Close() error {
	return p.db.Close()
}
