package store

import (
	"database/sql"

	"github.com/persistorai/wifimap/internal/models"
)

// networkColumns lists the columns selected for network queries.
const networkColumns = `bssid, ssid, frequency, capabilities, lasttime,
	lastlat, lastlon, type, bestlevel, accuracy, observations, ap_count,
	note, note_timestamp`

// scanNetwork scans a single row into a models.Network.
func scanNetwork(scan func(dest ...any) error) (*models.Network, error) {
	var (
		n        models.Network
		accuracy sql.NullFloat64
		note     sql.NullString
		noteTS   sql.NullInt64
	)

	err := scan(
		&n.BSSID,
		&n.SSID,
		&n.Frequency,
		&n.Capabilities,
		&n.LastSeen,
		&n.Position.Lat,
		&n.Position.Lon,
		&n.Type,
		&n.BestLevel,
		&accuracy,
		&n.Observations,
		&n.APCount,
		&note,
		&noteTS,
	)
	if err != nil {
		return nil, err
	}

	if accuracy.Valid {
		v := accuracy.Float64
		n.Accuracy = &v
	}

	if note.Valid {
		v := note.String
		n.Note = &v
	}

	if noteTS.Valid {
		v := noteTS.Int64
		n.NoteTimestamp = &v
	}

	return &n, nil
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}

func stringArg(v *string) any {
	if v == nil {
		return nil
	}

	return *v
}

func intArg(v *int64) any {
	if v == nil {
		return nil
	}

	return *v
}
