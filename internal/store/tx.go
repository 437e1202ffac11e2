package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/persistorai/wifimap/internal/models"
)

// networkTx implements domain.NetworkTx over one *sql.Tx.
type networkTx struct {
	tx *sql.Tx
}

func (t *networkTx) FindNetwork(ctx context.Context, bssid, ssid string) (*models.Network, error) {
	return findNetwork(ctx, t.tx, bssid, ssid)
}

func (t *networkTx) FindRival(ctx context.Context, ssid, exclude string) (*models.Network, error) {
	if ssid == "" {
		return nil, nil
	}

	n, err := scanNetwork(t.tx.QueryRowContext(ctx,
		`SELECT `+networkColumns+` FROM network
		 WHERE ssid = ? AND lower(bssid) <> lower(?)
		 ORDER BY bestlevel DESC, bssid LIMIT 1`, ssid, exclude).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("finding rival network: %w", err)
	}

	return n, nil
}

func (t *networkTx) InsertNetwork(ctx context.Context, n *models.Network) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO network (`+networkColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.BSSID, n.SSID, n.Frequency, n.Capabilities, n.LastSeen,
		n.Position.Lat, n.Position.Lon, n.Type, n.BestLevel,
		floatArg(n.Accuracy), max(n.Observations, 1), max(n.APCount, 1),
		stringArg(n.Note), intArg(n.NoteTimestamp),
	)
	if err != nil {
		return rowError(n.BSSID, fmt.Errorf("inserting network: %w", err))
	}

	return nil
}

func (t *networkTx) UpdateNetwork(ctx context.Context, key string, n *models.Network) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE network SET
			bssid = ?, ssid = ?, frequency = ?, capabilities = ?, lasttime = ?,
			lastlat = ?, lastlon = ?, type = ?, bestlevel = ?, accuracy = ?,
			observations = ?, ap_count = ?, note = ?, note_timestamp = ?
		 WHERE bssid = ?`,
		n.BSSID, n.SSID, n.Frequency, n.Capabilities, n.LastSeen,
		n.Position.Lat, n.Position.Lon, n.Type, n.BestLevel, floatArg(n.Accuracy),
		max(n.Observations, 1), max(n.APCount, 1), stringArg(n.Note), intArg(n.NoteTimestamp),
		key,
	)
	if err != nil {
		return rowError(n.BSSID, fmt.Errorf("updating network: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating network: %w", err)
	}

	if affected == 0 {
		return models.ErrNetworkNotFound
	}

	return nil
}

func (t *networkTx) FillNote(ctx context.Context, key, note string, timestamp *int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE network SET note = ?, note_timestamp = ? WHERE bssid = ? AND note IS NULL`,
		note, intArg(timestamp), key)
	if err != nil {
		return false, rowError(key, fmt.Errorf("filling note: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("filling note: %w", err)
	}

	return affected > 0, nil
}

func (t *networkTx) DeleteNetwork(ctx context.Context, key string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM network WHERE bssid = ?`, key); err != nil {
		return fmt.Errorf("deleting network: %w", err)
	}

	return nil
}

func (t *networkTx) LinkAliases(ctx context.Context, primary string, bssids []string) (int, error) {
	self := strings.ToLower(primary)

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM network_alias WHERE bssid = ?`, self); err != nil {
		return 0, fmt.Errorf("promoting alias: %w", err)
	}

	seen := map[string]bool{self: true}

	for _, b := range bssids {
		alias := strings.ToLower(strings.TrimSpace(b))
		if alias == "" || seen[alias] {
			continue
		}

		seen[alias] = true

		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO network_alias (bssid, primary_bssid) VALUES (?, ?)
			 ON CONFLICT (bssid) DO UPDATE SET primary_bssid = excluded.primary_bssid`,
			alias, primary); err != nil {
			return 0, fmt.Errorf("linking alias: %w", err)
		}

		if _, err := t.tx.ExecContext(ctx,
			`UPDATE network_alias SET primary_bssid = ? WHERE lower(primary_bssid) = ?`,
			primary, alias); err != nil {
			return 0, fmt.Errorf("reparenting aliases: %w", err)
		}
	}

	var linked int
	if err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM network_alias WHERE lower(primary_bssid) = ?`, self).Scan(&linked); err != nil {
		return 0, fmt.Errorf("counting aliases: %w", err)
	}

	return linked + 1, nil
}
