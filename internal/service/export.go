package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/domain"
	"github.com/persistorai/wifimap/internal/models"
	"github.com/persistorai/wifimap/internal/wigle"
)

// exportStore is the minimal store interface consumed by ExportService.
type exportStore interface {
	ListNetworks(ctx context.Context) ([]models.Network, error)
}

// Compile-time check: *ExportService must satisfy domain.ExportService.
var _ domain.ExportService = (*ExportService)(nil)

// ExportService renders the master store as a snapshot export.
type ExportService struct {
	store exportStore
	log   *logrus.Logger
}

// NewExportService creates an ExportService.
func NewExportService(store exportStore, log *logrus.Logger) *ExportService {
	return &ExportService{store: store, log: log}
}

// Export returns the bytes of an SQLite file in the snapshot layout holding
// every stored network with its note.
func (s *ExportService) Export(ctx context.Context) ([]byte, error) {
	networks, err := s.store.ListNetworks(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting networks: %w", err)
	}

	blob, err := wigle.WriteSnapshot(ctx, networks)
	if err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"networks": len(networks),
		"bytes":    len(blob),
	}).Info("snapshot exported")

	return blob, nil
}
