package api_test

import (
	"context"
	"time"

	"github.com/persistorai/wifimap/internal/models"
)

// mockImportService implements api.ImportService for testing.
type mockImportService struct {
	importFn func(ctx context.Context, blob []byte, origin string) (*models.ImportResult, error)
}

func (m *mockImportService) Import(ctx context.Context, blob []byte, origin string) (*models.ImportResult, error) {
	return m.importFn(ctx, blob, origin)
}

// mockExportService implements api.ExportService for testing.
type mockExportService struct {
	exportFn func(ctx context.Context) ([]byte, error)
}

func (m *mockExportService) Export(ctx context.Context) ([]byte, error) {
	return m.exportFn(ctx)
}

// mockNetworkService implements api.NetworkService for testing.
type mockNetworkService struct {
	listFn  func(ctx context.Context) ([]models.NetworkView, error)
	statsFn func(ctx context.Context) (*models.Stats, error)
}

func (m *mockNetworkService) ListNetworks(ctx context.Context) ([]models.NetworkView, error) {
	return m.listFn(ctx)
}

func (m *mockNetworkService) ComputeStats(ctx context.Context) (*models.Stats, error) {
	return m.statsFn(ctx)
}

// mockNoteService implements api.NoteService for testing.
type mockNoteService struct {
	setFn func(ctx context.Context, identity string, text *string) (*models.Note, error)
	getFn func(ctx context.Context, identity string) (*models.Note, error)
}

func (m *mockNoteService) SetNote(ctx context.Context, identity string, text *string) (*models.Note, error) {
	return m.setFn(ctx, identity, text)
}

func (m *mockNoteService) GetNote(ctx context.Context, identity string) (*models.Note, error) {
	return m.getFn(ctx, identity)
}

// mockDatabase implements api.DatabaseChecker for testing.
type mockDatabase struct {
	healthErr error
	version   int64
	schemaErr error
}

func (m *mockDatabase) HealthCheck(_ context.Context) error { return m.healthErr }

func (m *mockDatabase) SchemaVersion(_ context.Context) (int64, error) {
	return m.version, m.schemaErr
}

// mockHistoryService implements api.HistoryService for testing.
type mockHistoryService struct {
	queryFn func(ctx context.Context, opts models.ImportHistoryQuery) ([]models.ImportRecord, bool, error)
	purgeFn func(ctx context.Context, retention time.Duration) (int, error)
}

func (m *mockHistoryService) QueryImports(ctx context.Context, opts models.ImportHistoryQuery) ([]models.ImportRecord, bool, error) {
	return m.queryFn(ctx, opts)
}

func (m *mockHistoryService) PurgeImports(ctx context.Context, retention time.Duration) (int, error) {
	return m.purgeFn(ctx, retention)
}
