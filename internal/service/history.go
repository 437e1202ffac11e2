package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/domain"
	"github.com/persistorai/wifimap/internal/models"
)

// historyStore is the data-access interface HistoryService depends on.
type historyStore interface {
	RecordImport(ctx context.Context, rec *models.ImportRecord) error
	QueryImports(ctx context.Context, opts models.ImportHistoryQuery) ([]models.ImportRecord, bool, error)
	PurgeImports(ctx context.Context, cutoff time.Time) (int, error)
}

// Compile-time check: *HistoryService must satisfy domain.HistoryService.
var _ domain.HistoryService = (*HistoryService)(nil)

// HistoryService wraps the import log with logging for destructive operations.
type HistoryService struct {
	store historyStore
	log   *logrus.Logger
	now   func() time.Time
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(store historyStore, log *logrus.Logger) *HistoryService {
	return &HistoryService{store: store, log: log, now: time.Now}
}

// RecordImport inserts an import log entry (pass-through to store).
func (s *HistoryService) RecordImport(ctx context.Context, rec *models.ImportRecord) error {
	return s.store.RecordImport(ctx, rec)
}

// QueryImports returns import log entries matching the filters (pass-through).
func (s *HistoryService) QueryImports(
	ctx context.Context, opts models.ImportHistoryQuery,
) ([]models.ImportRecord, bool, error) {
	return s.store.QueryImports(ctx, opts)
}

// PurgeImports deletes entries older than retention and logs the result.
func (s *HistoryService) PurgeImports(ctx context.Context, retention time.Duration) (int, error) {
	deleted, err := s.store.PurgeImports(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"retention": retention.String(),
		"deleted":   deleted,
	}).Info("import log purged")

	return deleted, nil
}
