package api

import (
	"context"

	"github.com/persistorai/wifimap/internal/db"
	"github.com/persistorai/wifimap/internal/db/migrations"
	"github.com/persistorai/wifimap/internal/dbpool"
	"github.com/persistorai/wifimap/internal/domain"
)

// Service interfaces consumed by the handlers.
type (
	ImportService  = domain.ImportService
	NetworkService = domain.NetworkService
	NoteService    = domain.NoteService
	ExportService  = domain.ExportService
	HistoryService = domain.HistoryService
)

// DatabaseChecker reports store liveness and the applied schema version.
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int64, error)
}

// poolChecker adapts a pool to DatabaseChecker using the embedded migrations.
type poolChecker struct {
	pool *dbpool.Pool
}

// NewPoolChecker returns a DatabaseChecker backed by pool.
func NewPoolChecker(pool *dbpool.Pool) DatabaseChecker {
	return &poolChecker{pool: pool}
}

func (p *poolChecker) HealthCheck(ctx context.Context) error {
	return p.pool.HealthCheck(ctx)
}

func (p *poolChecker) SchemaVersion(ctx context.Context) (int64, error) {
	return db.CurrentVersion(ctx, p.pool, migrations.FS)
}
