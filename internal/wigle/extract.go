package wigle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/persistorai/wifimap/internal/fusion"
	"github.com/persistorai/wifimap/internal/models"
)

// networkRow is one row of a network table with every column nullable.
type networkRow struct {
	BSSID         sql.NullString
	SSID          sql.NullString
	Frequency     sql.NullInt64
	Capabilities  sql.NullString
	LastTime      sql.NullInt64
	LastLat       sql.NullFloat64
	LastLon       sql.NullFloat64
	Type          sql.NullString
	BestLevel     sql.NullInt64
	Accuracy      sql.NullFloat64
	Observations  sql.NullInt64
	Note          sql.NullString
	NoteTimestamp sql.NullInt64
}

func (r *networkRow) candidate() models.Candidate {
	c := models.Candidate{
		BSSID:        r.BSSID.String,
		SSID:         r.SSID.String,
		Frequency:    r.Frequency.Int64,
		Capabilities: r.Capabilities.String,
		LastSeen:     r.LastTime.Int64,
		Type:         r.Type.String,
		Level:        int(r.BestLevel.Int64),
	}

	if r.LastLat.Valid && r.LastLon.Valid {
		c.Position = &models.Position{Lat: r.LastLat.Float64, Lon: r.LastLon.Float64}
	}

	if r.Accuracy.Valid {
		v := r.Accuracy.Float64
		c.Accuracy = &v
	}

	if r.Observations.Valid {
		c.Observations = int(r.Observations.Int64)
	}

	if r.Note.Valid {
		v := r.Note.String
		c.Note = &v
	}

	if r.NoteTimestamp.Valid {
		v := r.NoteTimestamp.Int64
		c.NoteTimestamp = &v
	}

	return c
}

// readNetworks reads the network table. Snapshot columns that the source
// lacks read back as NULL.
func (s *Source) readNetworks(ctx context.Context) ([]models.Candidate, []error, error) {
	query := `SELECT bssid, ` +
		strings.Join([]string{
			s.column("ssid", "''"),
			s.column("frequency", "0"),
			s.column("capabilities", "''"),
			s.column("lasttime", "0"),
			"lastlat",
			"lastlon",
			s.column("type", "'W'"),
			s.column("bestlevel", "0"),
			s.column("accuracy", "NULL"),
			s.column("observations", "NULL"),
			s.column("note", "NULL"),
			s.column("note_timestamp", "NULL"),
		}, ", ") +
		` FROM network`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query networks: %w", err)
	}
	defer rows.Close()

	var (
		cands   []models.Candidate
		rowErrs []error
	)

	for rows.Next() {
		var r networkRow
		if err := rows.Scan(&r.BSSID, &r.SSID, &r.Frequency, &r.Capabilities, &r.LastTime,
			&r.LastLat, &r.LastLon, &r.Type, &r.BestLevel,
			&r.Accuracy, &r.Observations, &r.Note, &r.NoteTimestamp); err != nil {
			rowErrs = append(rowErrs, &models.RowProcessingError{BSSID: r.BSSID.String, Err: fmt.Errorf("scan network: %w", err)})
			continue
		}

		cands = append(cands, r.candidate())
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating networks: %w", err)
	}

	return cands, rowErrs, nil
}

// snapshotExtractor reads records as they were exported.
type snapshotExtractor struct{}

func (snapshotExtractor) candidates(ctx context.Context, s *Source) ([]models.Candidate, []error, error) {
	return s.readNetworks(ctx)
}

// scanExtractor fuses the per-observation location table into one position
// per BSSID. A network without usable samples keeps its own last position.
type scanExtractor struct {
	withLevel    bool
	withAccuracy bool
}

func (e scanExtractor) candidates(ctx context.Context, s *Source) ([]models.Candidate, []error, error) {
	cands, rowErrs, err := s.readNetworks(ctx)
	if err != nil {
		return nil, nil, err
	}

	samples, sampleErrs, err := e.readSamples(ctx, s)
	if err != nil {
		return nil, nil, err
	}

	rowErrs = append(rowErrs, sampleErrs...)

	for i := range cands {
		c := &cands[i]

		fused, ok := fusion.FuseSamples(samples[strings.ToLower(c.BSSID)])
		if !ok {
			c.Observations = 1
			continue
		}

		pos := fused.Position
		c.Position = &pos
		c.Level = fused.Level
		c.Accuracy = fused.Accuracy
		c.Observations = fused.Observations
	}

	return cands, rowErrs, nil
}

func (e scanExtractor) readSamples(ctx context.Context, s *Source) (map[string][]models.Sample, []error, error) {
	level := "-100 AS level"
	if e.withLevel {
		level = "level"
	}

	accuracy := "NULL AS accuracy"
	if e.withAccuracy {
		accuracy = "accuracy"
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT bssid, lat, lon, `+level+`, `+accuracy+`
		 FROM location
		 WHERE bssid IS NOT NULL AND lat IS NOT NULL AND lon IS NOT NULL`)
	if err != nil {
		return nil, nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	out := map[string][]models.Sample{}

	var rowErrs []error

	for rows.Next() {
		var (
			bssid    string
			sample   models.Sample
			lvl      sql.NullInt64
			accuracy sql.NullFloat64
		)

		if err := rows.Scan(&bssid, &sample.Lat, &sample.Lon, &lvl, &accuracy); err != nil {
			rowErrs = append(rowErrs, &models.RowProcessingError{BSSID: bssid, Err: fmt.Errorf("scan location: %w", err)})
			continue
		}

		sample.Level = int(lvl.Int64)
		if !lvl.Valid {
			sample.Level = -100
		}

		if accuracy.Valid {
			v := accuracy.Float64
			sample.Accuracy = &v
		}

		key := strings.ToLower(strings.TrimSpace(bssid))
		out[key] = append(out[key], sample)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating locations: %w", err)
	}

	return out, rowErrs, nil
}

// LegacyNotes reads the standalone network_notes table, resolving each note's
// SSID through the network table. It returns nil when the table is absent.
func (s *Source) LegacyNotes(ctx context.Context) ([]models.LegacyNote, error) {
	if !s.hasNotes {
		return nil, nil
	}

	ssid := "n.ssid"
	if !s.columns["ssid"] {
		ssid = "NULL"
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT nn.bssid, nn.note, nn.timestamp, `+ssid+`
		 FROM network_notes nn
		 LEFT JOIN network n ON n.bssid = nn.bssid`)
	if err != nil {
		return nil, fmt.Errorf("query network_notes: %w", err)
	}
	defer rows.Close()

	var notes []models.LegacyNote

	for rows.Next() {
		var (
			bssid, note, ssidVal sql.NullString
			ts                   sql.NullInt64
		)

		if err := rows.Scan(&bssid, &note, &ts, &ssidVal); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}

		if !bssid.Valid || !note.Valid {
			continue
		}

		n := models.LegacyNote{BSSID: strings.TrimSpace(bssid.String), SSID: models.NormalizeIdentity(ssidVal.String), Note: note.String}
		if ts.Valid {
			v := ts.Int64
			n.Timestamp = &v
		}

		notes = append(notes, n)
	}

	return notes, rows.Err()
}
