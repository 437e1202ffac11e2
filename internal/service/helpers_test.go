package service_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/db"
	"github.com/persistorai/wifimap/internal/db/migrations"
	"github.com/persistorai/wifimap/internal/dbpool"
	"github.com/persistorai/wifimap/internal/domain"
	"github.com/persistorai/wifimap/internal/models"
	"github.com/persistorai/wifimap/internal/store"
	"github.com/persistorai/wifimap/internal/wigle"
)

func ptr[T any](v T) *T { return &v }

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

// newStore opens a fresh migrated master store owned by t.
func newStore(t *testing.T) *store.NetworkStore {
	t.Helper()

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, filepath.Join(t.TempDir(), "master.db"))
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := db.RunMigrations(ctx, pool, testLogger(), migrations.FS); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	return store.NewNetworkStore(pool, testLogger())
}

// buildExport creates an SQLite file from stmts and returns its bytes.
func buildExport(t *testing.T, stmts ...string) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "export.sqlite")

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	return data
}

const (
	scanNetworkDDL = `CREATE TABLE network (
		bssid TEXT PRIMARY KEY NOT NULL, ssid TEXT NOT NULL, frequency INTEGER NOT NULL,
		capabilities TEXT NOT NULL, lasttime INTEGER NOT NULL, lastlat REAL NOT NULL,
		lastlon REAL NOT NULL, type TEXT NOT NULL DEFAULT 'W', bestlevel INTEGER NOT NULL DEFAULT 0)`
	scanLocationDDL = `CREATE TABLE location (
		_id INTEGER PRIMARY KEY AUTOINCREMENT, bssid TEXT NOT NULL, level INTEGER NOT NULL,
		lat REAL NOT NULL, lon REAL NOT NULL, accuracy REAL NOT NULL, time INTEGER NOT NULL DEFAULT 0)`
)

func snapshotBlob(t *testing.T, networks ...models.Network) []byte {
	t.Helper()

	blob, err := wigle.WriteSnapshot(context.Background(), networks)
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	return blob
}

func snapshotNetwork(bssid, ssid string, level int) models.Network {
	return models.Network{
		BSSID:        bssid,
		SSID:         ssid,
		Frequency:    2412,
		Capabilities: "[WPA2-PSK-CCMP][ESS]",
		LastSeen:     1000,
		Position:     models.Position{Lat: 52.5, Lon: 13.4},
		Type:         "W",
		BestLevel:    level,
		Accuracy:     ptr(10.0),
		Observations: 1,
		APCount:      1,
	}
}

// recordingPublisher captures broadcast events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	data   []json.RawMessage
}

func (p *recordingPublisher) BroadcastEvent(eventType string, data json.RawMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, eventType)
	p.data = append(p.data, data)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.events...)
}

// mockImportStore implements the import store for failure-path tests.
type mockImportStore struct {
	runInTx func(ctx context.Context, fn func(tx domain.NetworkTx) error) error
	flush   func(ctx context.Context) error
}

func (m *mockImportStore) RunInTx(ctx context.Context, fn func(tx domain.NetworkTx) error) error {
	return m.runInTx(ctx, fn)
}

func (m *mockImportStore) Flush(ctx context.Context) error {
	if m.flush == nil {
		return nil
	}

	return m.flush(ctx)
}

// mockTx implements domain.NetworkTx with an in-memory map.
type mockTx struct {
	rows      map[string]*models.Network
	aliases   map[string]string
	insertErr func(n *models.Network) error
}

func newMockTx() *mockTx {
	return &mockTx{rows: map[string]*models.Network{}, aliases: map[string]string{}}
}

func (m *mockTx) FindRival(_ context.Context, ssid, exclude string) (*models.Network, error) {
	var best *models.Network

	for bssid, n := range m.rows {
		if ssid == "" || n.SSID != ssid || strings.EqualFold(bssid, exclude) {
			continue
		}

		if best == nil || n.BestLevel > best.BestLevel {
			best = n
		}
	}

	if best == nil {
		return nil, nil
	}

	cp := *best

	return &cp, nil
}

func (m *mockTx) DeleteNetwork(_ context.Context, key string) error {
	delete(m.rows, key)
	return nil
}

func (m *mockTx) LinkAliases(_ context.Context, primary string, bssids []string) (int, error) {
	self := strings.ToLower(primary)
	delete(m.aliases, self)

	for _, b := range bssids {
		alias := strings.ToLower(b)
		if alias == self {
			continue
		}

		m.aliases[alias] = primary

		for other, p := range m.aliases {
			if strings.EqualFold(p, alias) {
				m.aliases[other] = primary
			}
		}
	}

	count := 1

	for _, p := range m.aliases {
		if strings.EqualFold(p, primary) {
			count++
		}
	}

	return count, nil
}

func (m *mockTx) FindNetwork(_ context.Context, bssid, _ string) (*models.Network, error) {
	n, ok := m.rows[bssid]
	if !ok {
		return nil, nil
	}

	cp := *n

	return &cp, nil
}

func (m *mockTx) InsertNetwork(_ context.Context, n *models.Network) error {
	if m.insertErr != nil {
		if err := m.insertErr(n); err != nil {
			return err
		}
	}

	m.rows[n.BSSID] = n

	return nil
}

func (m *mockTx) UpdateNetwork(_ context.Context, key string, n *models.Network) error {
	delete(m.rows, key)
	m.rows[n.BSSID] = n

	return nil
}

func (m *mockTx) FillNote(_ context.Context, key, note string, ts *int64) (bool, error) {
	n, ok := m.rows[key]
	if !ok || n.Note != nil {
		return false, nil
	}

	n.Note = &note
	n.NoteTimestamp = ts

	return true, nil
}

// mockNetworkStore implements the network store with fn fields.
type mockNetworkStore struct {
	listNetworks func(ctx context.Context) ([]models.Network, error)
	getNetwork   func(ctx context.Context, identity string) (*models.Network, error)
	stats        func(ctx context.Context) (*models.Stats, error)
	setNote      func(ctx context.Context, identity, note string, ts int64) (*models.Network, error)
	flushes      int
}

func (m *mockNetworkStore) ListNetworks(ctx context.Context) ([]models.Network, error) {
	return m.listNetworks(ctx)
}

func (m *mockNetworkStore) GetNetwork(ctx context.Context, identity string) (*models.Network, error) {
	return m.getNetwork(ctx, identity)
}

func (m *mockNetworkStore) Stats(ctx context.Context) (*models.Stats, error) {
	return m.stats(ctx)
}

func (m *mockNetworkStore) SetNote(ctx context.Context, identity, note string, ts int64) (*models.Network, error) {
	return m.setNote(ctx, identity, note, ts)
}

func (m *mockNetworkStore) Flush(_ context.Context) error {
	m.flushes++
	return nil
}
