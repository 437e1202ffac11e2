// Package wigle reads and writes the SQLite export layouts the map imports:
// raw WiGLE scan exports and this tool's own snapshot exports.
package wigle

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/persistorai/wifimap/internal/models"
)

// Schema is the detected layout of an export.
type Schema int

// Recognized layouts.
const (
	SchemaUnknown Schema = iota
	SchemaScan
	SchemaSnapshot
)

func (s Schema) String() string {
	switch s {
	case SchemaScan:
		return "scan"
	case SchemaSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// sqliteHeader is the magic string every SQLite database file starts with.
var sqliteHeader = []byte("SQLite format 3\x00")

// Source is an opened export ready for extraction. It must be closed.
type Source struct {
	db       *sql.DB
	path     string
	schema   Schema
	columns  map[string]bool
	hasNotes bool
	ext      extractor
}

// extractor is the typed extraction routine of one layout.
type extractor interface {
	candidates(ctx context.Context, s *Source) ([]models.Candidate, []error, error)
}

// Open copies blob to a temporary file, opens it read-only and detects its
// layout. Anything that is not a recognized export yields a
// *models.MalformedInputError.
func Open(ctx context.Context, blob []byte) (*Source, error) {
	if len(blob) < 100 || !bytes.HasPrefix(blob, sqliteHeader) {
		return nil, &models.MalformedInputError{Reason: "not an SQLite database"}
	}

	f, err := os.CreateTemp("", "wifimap-import-*.sqlite")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	path := f.Name()

	if _, err := f.Write(blob); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Source{db: db, path: path}

	if err := s.detect(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// DetectSchema reports the layout of blob without extracting anything.
func DetectSchema(ctx context.Context, blob []byte) (Schema, error) {
	s, err := Open(ctx, blob)
	if err != nil {
		return SchemaUnknown, err
	}
	defer s.Close()

	return s.schema, nil
}

// Schema returns the detected layout.
func (s *Source) Schema() Schema { return s.schema }

// HasLegacyNotes reports whether the export carries a network_notes table.
func (s *Source) HasLegacyNotes() bool { return s.hasNotes }

// Candidates extracts the incoming records in source order. Rows that could
// not be read are returned as *models.RowProcessingError values in rowErrs;
// err is only set when extraction as a whole failed.
func (s *Source) Candidates(ctx context.Context) (cands []models.Candidate, rowErrs []error, err error) {
	return s.ext.candidates(ctx, s)
}

// Close releases the database handle and removes the temporary copy.
func (s *Source) Close() error {
	err := s.db.Close()
	os.Remove(s.path)

	return err
}

func (s *Source) detect(ctx context.Context) error {
	tables, err := s.tables(ctx)
	if err != nil {
		return &models.MalformedInputError{Reason: "reading table catalog", Err: err}
	}

	if !tables["network"] {
		return &models.MalformedInputError{Reason: "no network table"}
	}

	s.columns, err = s.tableColumns(ctx, "network")
	if err != nil {
		return &models.MalformedInputError{Reason: "reading network columns", Err: err}
	}

	for _, required := range []string{"bssid", "lastlat", "lastlon"} {
		if !s.columns[required] {
			return &models.MalformedInputError{Reason: "network table lacks column " + required}
		}
	}

	s.hasNotes = tables["network_notes"]

	if tables["location"] {
		locCols, err := s.tableColumns(ctx, "location")
		if err != nil {
			return &models.MalformedInputError{Reason: "reading location columns", Err: err}
		}

		if locCols["bssid"] && locCols["lat"] && locCols["lon"] {
			s.schema = SchemaScan
			s.ext = scanExtractor{withLevel: locCols["level"], withAccuracy: locCols["accuracy"]}

			return nil
		}
	}

	s.schema = SchemaSnapshot
	s.ext = snapshotExtractor{}

	return nil
}

func (s *Source) tables(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT lower(name) FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		out[name] = true
	}

	return out, rows.Err()
}

func (s *Source) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	// table is one of a fixed set of identifiers, never user input.
	rows, err := s.db.QueryContext(ctx, `SELECT lower(name) FROM pragma_table_info('`+table+`')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		out[name] = true
	}

	return out, rows.Err()
}

// column returns name when the network table has it, otherwise fallback as a
// literal expression.
func (s *Source) column(name, fallback string) string {
	if s.columns[name] {
		return name
	}

	return fallback + " AS " + name
}
