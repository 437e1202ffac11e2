package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingIdentity = errors.New("identity is required")
	ErrMissingBSSID    = errors.New("bssid is required")
	ErrNoPosition      = errors.New("no resolvable position")
)

// Sentinel errors for entity lookups.
var (
	ErrNetworkNotFound = errors.New("network not found")
	ErrNoteNotFound    = errors.New("note not found")
)

// ErrImportBusy is returned when an import could not enter the exclusive
// import section before its context ended.
var ErrImportBusy = errors.New("another import is in progress")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}

// MalformedInputError reports an import blob that is not a recognized export.
// It is always raised before any write happens.
type MalformedInputError struct {
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return "malformed input: " + e.Reason + ": " + e.Err.Error()
	}

	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// RowProcessingError reports a single candidate that failed extraction or write.
type RowProcessingError struct {
	BSSID string
	Err   error
}

func (e *RowProcessingError) Error() string {
	return fmt.Sprintf("processing row %q: %v", e.BSSID, e.Err)
}

func (e *RowProcessingError) Unwrap() error { return e.Err }

// TransactionError reports a store failure that rolled back a whole batch.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// ValidationError reports a request rejected before any store access.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsMalformedInput reports whether err is or wraps a MalformedInputError.
func IsMalformedInput(err error) bool {
	var target *MalformedInputError
	return errors.As(err, &target)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsTransaction reports whether err is or wraps a TransactionError.
func IsTransaction(err error) bool {
	var target *TransactionError
	return errors.As(err, &target)
}
