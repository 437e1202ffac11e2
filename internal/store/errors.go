package store

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/persistorai/wifimap/internal/models"
)

// rowError classifies a failed write. Failures confined to the offending row
// (constraint, type mismatch, oversize value) come back as
// *models.RowProcessingError so the batch can carry on; anything else is a
// store failure and is returned unchanged.
func rowError(bssid string, err error) error {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return err
	}

	switch sqlErr.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_TOOBIG, sqlite3.SQLITE_RANGE:
		return &models.RowProcessingError{BSSID: bssid, Err: err}
	default:
		return err
	}
}
