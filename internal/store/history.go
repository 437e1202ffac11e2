package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/dbpool"
	"github.com/persistorai/wifimap/internal/models"
)

// HistoryStore provides data access for the import_log table.
type HistoryStore struct {
	Base
}

// NewHistoryStore creates a HistoryStore.
func NewHistoryStore(pool *dbpool.Pool, log *logrus.Logger) *HistoryStore {
	return &HistoryStore{Base: Base{Pool: pool, Log: log}}
}

// RecordImport inserts an import log entry. A zero CreatedAt is stamped with
// the current time.
func (s *HistoryStore) RecordImport(ctx context.Context, rec *models.ImportRecord) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var detail sql.NullString
	if len(rec.Detail) > 0 {
		data, err := json.Marshal(rec.Detail)
		if err != nil {
			return fmt.Errorf("marshaling import detail: %w", err)
		}

		detail = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO import_log (id, origin, schema, status, added, updated, notes, skipped, excluded, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Origin, rec.Schema, rec.Status,
		rec.Added, rec.Updated, rec.Notes, rec.Skipped, rec.Excluded,
		detail, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting import record: %w", err)
	}

	return nil
}

// buildHistoryFilter builds the WHERE clause and args from opts.
func buildHistoryFilter(opts models.ImportHistoryQuery) (where string, args []any) {
	var conditions []string

	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, opts.Status)
	}
	if opts.Origin != "" {
		conditions = append(conditions, "origin LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(opts.Origin)+"%")
	}
	if opts.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.Since.UnixMilli())
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args
}

// escapeLike escapes LIKE wildcards so origin filters match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// QueryImports returns import log entries matching the filters, newest first.
// Returns entries, hasMore flag, and any error.
func (s *HistoryStore) QueryImports(
	ctx context.Context, opts models.ImportHistoryQuery,
) ([]models.ImportRecord, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where, args := buildHistoryFilter(opts)

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, origin, schema, status, added, updated, notes, skipped, excluded, detail, created_at
		FROM import_log %s ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, where)
	args = append(args, limit+1, opts.Offset)

	entries, err := s.scanImportRows(ctx, query, args)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

func (s *HistoryStore) scanImportRows(ctx context.Context, query string, args []any) ([]models.ImportRecord, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying import log: %w", err)
	}
	defer rows.Close()

	entries := []models.ImportRecord{}

	for rows.Next() {
		var (
			e         models.ImportRecord
			detail    sql.NullString
			createdAt int64
		)

		if err := rows.Scan(&e.ID, &e.Origin, &e.Schema, &e.Status,
			&e.Added, &e.Updated, &e.Notes, &e.Skipped, &e.Excluded, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning import record: %w", err)
		}

		e.CreatedAt = time.UnixMilli(createdAt).UTC()

		if detail.Valid {
			if err := json.Unmarshal([]byte(detail.String), &e.Detail); err != nil {
				s.Log.WithError(err).WithField("import_id", e.ID).Warn("failed to unmarshal import detail")
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating import log: %w", err)
	}

	return entries, nil
}

// purgeBatchSize limits the rows deleted per statement so a purge never holds
// the write lock long enough to stall an import.
const purgeBatchSize = 5000

// PurgeImports deletes import log entries created before cutoff in batches.
// Returns the number of deleted entries.
func (s *HistoryStore) PurgeImports(ctx context.Context, cutoff time.Time) (int, error) {
	var total int

	for {
		batchCtx, cancel := withTimeout(ctx)

		res, err := s.Pool.Exec(batchCtx, `
			DELETE FROM import_log WHERE rowid IN (
				SELECT rowid FROM import_log WHERE created_at < ? LIMIT ?
			)`, cutoff.UnixMilli(), purgeBatchSize)
		cancel()

		if err != nil {
			return total, fmt.Errorf("purging import log: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("purging import log: %w", err)
		}

		total += int(n)
		if n < purgeBatchSize {
			return total, nil
		}
	}
}
