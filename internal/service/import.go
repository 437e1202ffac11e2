// Package service implements business logic for the network map.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/persistorai/wifimap/internal/domain"
	"github.com/persistorai/wifimap/internal/metrics"
	"github.com/persistorai/wifimap/internal/models"
	"github.com/persistorai/wifimap/internal/reconcile"
	"github.com/persistorai/wifimap/internal/wigle"
)

// maxReportedErrors bounds the row errors echoed back in an ImportResult.
const maxReportedErrors = 50

// importStore is the minimal store interface consumed by ImportService.
// Defined at the consumer so the store package depends on no service types.
type importStore interface {
	RunInTx(ctx context.Context, fn func(tx domain.NetworkTx) error) error
	Flush(ctx context.Context) error
}

// importRecorder receives one log entry per import run.
type importRecorder interface {
	RecordImport(ctx context.Context, rec *models.ImportRecord) error
}

// Compile-time check: *ImportService must satisfy domain.ImportService.
var _ domain.ImportService = (*ImportService)(nil)

// ImportService runs the import pipeline. Imports are serialized: a second
// call waits until the one in flight has finished.
type ImportService struct {
	store   importStore
	events  EventPublisher
	log     *logrus.Logger
	sem     *semaphore.Weighted
	timeout time.Duration
	history importRecorder
}

// NewImportService creates an ImportService. events may be nil. A zero
// timeout lets imports run to completion.
func NewImportService(store importStore, events EventPublisher, log *logrus.Logger, timeout time.Duration) *ImportService {
	return &ImportService{
		store:   store,
		events:  events,
		log:     log,
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
	}
}

// WithHistory makes the service log every run, committed or not, to h.
func (s *ImportService) WithHistory(h importRecorder) *ImportService {
	s.history = h
	return s
}

// Import reads blob as a foreign export and reconciles every record into the
// master store in one transaction. A blob that is not a recognized export
// fails with *models.MalformedInputError before anything is written. A store
// failure rolls the whole batch back and returns *models.TransactionError.
func (s *ImportService) Import(ctx context.Context, blob []byte, origin string) (*models.ImportResult, error) {
	metrics.ImportsWaiting.Inc()
	err := s.sem.Acquire(ctx, 1)
	metrics.ImportsWaiting.Dec()

	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrImportBusy, err)
	}
	defer s.sem.Release(1)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()

	result, err := s.run(ctx, blob)
	metrics.ImportDuration.Observe(time.Since(start).Seconds())

	schema := wigle.SchemaUnknown.String()
	if result != nil {
		schema = result.Schema
	}

	if err != nil {
		metrics.ImportsTotal.WithLabelValues(schema, outcome(err)).Inc()
		s.log.WithError(err).WithFields(logrus.Fields{
			"origin": origin,
			"schema": schema,
		}).Error("import failed")

		s.record(ctx, failedRecord(origin, result, err))

		return nil, err
	}

	metrics.ImportsTotal.WithLabelValues(schema, "ok").Inc()
	metrics.ImportRowsTotal.WithLabelValues(models.ActionCreated).Add(float64(result.Added))
	metrics.ImportRowsTotal.WithLabelValues(models.ActionUpdated).Add(float64(result.Updated))
	metrics.ImportRowsTotal.WithLabelValues(models.ActionSkipped).Add(float64(result.Skipped))

	if result.Changed() {
		if err := s.store.Flush(ctx); err != nil {
			s.log.WithError(err).Warn("flush after import failed; changes are committed")
		}
	}

	s.log.WithFields(logrus.Fields{
		"import_id": result.ImportID,
		"origin":    origin,
		"schema":    result.Schema,
		"added":     result.Added,
		"updated":   result.Updated,
		"skipped":   result.Skipped,
		"excluded":  result.Excluded,
		"notes":     result.Notes,
		"duration":  time.Since(start),
	}).Info("import completed")

	s.record(ctx, completedRecord(origin, result))

	publishEvent(s.events, s.log, EventImportCompleted, map[string]any{
		"import_id": result.ImportID,
		"added":     result.Added,
		"updated":   result.Updated,
		"notes":     result.Notes,
	})

	return result, nil
}

func (s *ImportService) run(ctx context.Context, blob []byte) (*models.ImportResult, error) {
	src, err := wigle.Open(ctx, blob)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	result := &models.ImportResult{
		ImportID: uuid.NewString(),
		Schema:   src.Schema().String(),
	}

	cands, rowErrs, err := src.Candidates(ctx)
	if err != nil {
		return result, &models.MalformedInputError{Reason: "extracting records", Err: err}
	}

	for _, rowErr := range rowErrs {
		s.skipRow(result, rowErr)
	}

	notes, err := src.LegacyNotes(ctx)
	if err != nil {
		s.log.WithError(err).Warn("ignoring unreadable network_notes table")
		notes = nil
	}

	grouping := reconcile.SelectPrimaries(s.usable(cands, result))

	err = s.store.RunInTx(ctx, func(tx domain.NetworkTx) error {
		// Counts are only reported when the transaction commits.
		batch := *result

		members := grouping.Members()

		for i := range grouping.Primaries {
			c := grouping.Primaries[i]
			if err := s.apply(ctx, tx, c, members[c.BSSID], &batch); err != nil {
				return err
			}
		}

		for i := range notes {
			if err := s.fillNote(ctx, tx, notes[i], grouping.Aliases, &batch); err != nil {
				return err
			}
		}

		*result = batch

		return nil
	})
	if err != nil {
		if models.IsTransaction(err) {
			return result, err
		}

		return result, &models.TransactionError{Op: "apply", Err: err}
	}

	return result, nil
}

// usable normalizes candidates and drops the ones reconciliation must never see.
func (s *ImportService) usable(cands []models.Candidate, result *models.ImportResult) []models.Candidate {
	out := make([]models.Candidate, 0, len(cands))

	for i := range cands {
		c := cands[i]
		reconcile.Normalize(&c)

		switch err := reconcile.Usable(&c); {
		case errors.Is(err, models.ErrNoPosition):
			result.Excluded++
		case err != nil:
			s.skipRow(result, &models.RowProcessingError{BSSID: c.BSSID, Err: err})
		default:
			out = append(out, c)
		}
	}

	return out
}

// apply reconciles one candidate. Row-level failures are recorded and
// swallowed; anything else aborts the batch. members are the BSSIDs the
// candidate's group collapsed in this import.
func (s *ImportService) apply(
	ctx context.Context,
	tx domain.NetworkTx,
	c models.Candidate,
	members []string,
	result *models.ImportResult,
) error {
	existing, err := tx.FindNetwork(ctx, c.BSSID, c.SSID)
	if err != nil {
		return s.rowOrAbort(ctx, result, c.BSSID, err)
	}

	action, next, err := reconcile.Reconcile(existing, c)
	if err != nil {
		s.skipRow(result, &models.RowProcessingError{BSSID: c.BSSID, Err: err})
		return nil
	}

	if action == models.ActionSkipped {
		result.Skipped++
		return nil
	}

	// key is the row rewritten in place; empty means insert.
	key := ""
	if existing != nil {
		key = existing.BSSID
	}

	aliases := append([]string{c.BSSID}, members...)
	if existing != nil {
		aliases = append(aliases, existing.BSSID)
	}

	// A record whose SSID changed may now share it with another stored
	// primary. Only one record per SSID survives.
	rival, err := tx.FindRival(ctx, next.SSID, cmp.Or(key, next.BSSID))
	if err != nil {
		return s.rowOrAbort(ctx, result, c.BSSID, err)
	}

	var drop string

	if rival != nil {
		next = reconcile.Collapse(next, rival)
		aliases = append(aliases, rival.BSSID)
		action = models.ActionUpdated

		if next.BSSID == rival.BSSID {
			drop, key = key, rival.BSSID
		} else {
			drop = rival.BSSID
		}
	}

	if err := s.write(ctx, tx, key, drop, next, aliases); err != nil {
		return s.rowOrAbort(ctx, result, c.BSSID, err)
	}

	if action == models.ActionCreated {
		result.Added++
	} else {
		result.Updated++
	}

	return nil
}

// write persists next under key, or inserts it when key is empty, after
// removing the folded record drop.
func (s *ImportService) write(
	ctx context.Context,
	tx domain.NetworkTx,
	key, drop string,
	next *models.Network,
	aliases []string,
) error {
	if drop != "" {
		if err := tx.DeleteNetwork(ctx, drop); err != nil {
			return err
		}
	}

	aps, err := tx.LinkAliases(ctx, next.BSSID, aliases)
	if err != nil {
		return err
	}

	next.APCount = max(next.APCount, aps)

	if key == "" {
		return tx.InsertNetwork(ctx, next)
	}

	return tx.UpdateNetwork(ctx, key, next)
}

// fillNote applies one legacy note with fill-if-absent semantics. A note for
// a secondary access point lands on its group's primary.
func (s *ImportService) fillNote(
	ctx context.Context,
	tx domain.NetworkTx,
	note models.LegacyNote,
	aliases map[string]string,
	result *models.ImportResult,
) error {
	bssid := note.BSSID
	if primary, ok := aliases[strings.ToLower(bssid)]; ok {
		bssid = primary
	}

	target, err := tx.FindNetwork(ctx, bssid, note.SSID)
	if err != nil {
		return s.rowOrAbort(ctx, result, note.BSSID, err)
	}

	if target == nil || target.HasNote() {
		return nil
	}

	filled, err := tx.FillNote(ctx, target.BSSID, note.Note, note.Timestamp)
	if err != nil {
		return s.rowOrAbort(ctx, result, note.BSSID, err)
	}

	if filled {
		result.Notes++
	}

	return nil
}

func (s *ImportService) rowOrAbort(ctx context.Context, result *models.ImportResult, bssid string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &models.TransactionError{Op: "cancel", Err: ctxErr}
	}

	var rowErr *models.RowProcessingError
	if errors.As(err, &rowErr) {
		s.skipRow(result, rowErr)
		return nil
	}

	return &models.TransactionError{Op: "apply " + bssid, Err: err}
}

func (s *ImportService) skipRow(result *models.ImportResult, err error) {
	result.Skipped++

	if len(result.Errors) < maxReportedErrors {
		result.Errors = append(result.Errors, err.Error())
	}

	var rowErr *models.RowProcessingError
	if errors.As(err, &rowErr) {
		s.log.WithError(rowErr.Err).WithField("bssid", rowErr.BSSID).Warn("skipping import row")
		return
	}

	s.log.WithError(err).Warn("skipping import row")
}

// record is best-effort; a log write failure never fails the import. It runs
// detached from ctx so a timed-out import is still logged.
func (s *ImportService) record(ctx context.Context, rec *models.ImportRecord) {
	if s.history == nil {
		return
	}

	if err := s.history.RecordImport(context.WithoutCancel(ctx), rec); err != nil {
		s.log.WithError(err).WithField("import_id", rec.ID).Warn("recording import")
	}
}

func completedRecord(origin string, result *models.ImportResult) *models.ImportRecord {
	rec := &models.ImportRecord{
		ID:       result.ImportID,
		Origin:   origin,
		Schema:   result.Schema,
		Status:   models.ImportStatusOK,
		Added:    result.Added,
		Updated:  result.Updated,
		Notes:    result.Notes,
		Skipped:  result.Skipped,
		Excluded: result.Excluded,
	}

	if len(result.Errors) > 0 {
		rec.Detail = map[string]any{"errors": result.Errors}
	}

	return rec
}

// failedRecord logs no counts: a failed run committed nothing. result is nil
// when the blob could not be opened at all.
func failedRecord(origin string, result *models.ImportResult, err error) *models.ImportRecord {
	rec := &models.ImportRecord{
		ID:     uuid.NewString(),
		Origin: origin,
		Schema: wigle.SchemaUnknown.String(),
		Status: outcome(err),
		Detail: map[string]any{"error": err.Error()},
	}

	if result != nil {
		rec.ID = result.ImportID
		rec.Schema = result.Schema
	}

	return rec
}

func outcome(err error) string {
	switch {
	case models.IsMalformedInput(err):
		return models.ImportStatusMalformed
	case models.IsTransaction(err):
		return models.ImportStatusRolledBack
	default:
		return models.ImportStatusFailed
	}
}
