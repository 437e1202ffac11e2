package store_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/wifimap/internal/db"
	"github.com/persistorai/wifimap/internal/db/migrations"
	"github.com/persistorai/wifimap/internal/dbpool"
	"github.com/persistorai/wifimap/internal/models"
	"github.com/persistorai/wifimap/internal/store"
)

func ptr[T any](v T) *T { return &v }

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

// newTestStore opens a fresh migrated database file owned by t.
func newTestStore(t *testing.T) *store.NetworkStore {
	t.Helper()

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, filepath.Join(t.TempDir(), "master.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	log := testLogger()
	require.NoError(t, db.RunMigrations(ctx, pool, log, migrations.FS))

	return store.NewNetworkStore(pool, log)
}

func network(bssid, ssid string, level int) *models.Network {
	return &models.Network{
		BSSID:        bssid,
		SSID:         ssid,
		Frequency:    2412,
		Capabilities: "[WPA2-PSK-CCMP][ESS]",
		LastSeen:     1000,
		Position:     models.Position{Lat: 10, Lon: 20},
		Type:         "W",
		BestLevel:    level,
		Observations: 1,
		APCount:      1,
	}
}
