package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/persistorai/wifimap/internal/domain"
	"github.com/persistorai/wifimap/internal/metrics"
	"github.com/persistorai/wifimap/internal/models"
)

// networkStore is the minimal store interface consumed by NetworkService.
type networkStore interface {
	ListNetworks(ctx context.Context) ([]models.Network, error)
	GetNetwork(ctx context.Context, identity string) (*models.Network, error)
	Stats(ctx context.Context) (*models.Stats, error)
	SetNote(ctx context.Context, identity, note string, timestamp int64) (*models.Network, error)
	Flush(ctx context.Context) error
}

// Compile-time checks.
var (
	_ domain.NetworkService = (*NetworkService)(nil)
	_ domain.NoteService    = (*NetworkService)(nil)
)

// NetworkService serves the read-side views and the annotation store.
type NetworkService struct {
	store  networkStore
	events EventPublisher
	log    *logrus.Logger
	now    func() time.Time
	stats  singleflight.Group
}

// NewNetworkService creates a NetworkService. events may be nil.
func NewNetworkService(store networkStore, events EventPublisher, log *logrus.Logger) *NetworkService {
	return &NetworkService{store: store, events: events, log: log, now: time.Now}
}

// ListNetworks returns every network with a position, strongest signal first.
// Networks without a note carry an empty note.
func (s *NetworkService) ListNetworks(ctx context.Context) ([]models.NetworkView, error) {
	networks, err := s.store.ListNetworks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing networks: %w", err)
	}

	views := make([]models.NetworkView, 0, len(networks))

	for i := range networks {
		if !networks[i].Position.Valid() {
			continue
		}

		views = append(views, networks[i].View())
	}

	return views, nil
}

// ComputeStats returns aggregate counts. Concurrent callers share one query,
// which outlives any single caller giving up on it.
func (s *NetworkService) ComputeStats(ctx context.Context) (*models.Stats, error) {
	shared := context.WithoutCancel(ctx)

	ch := s.stats.DoChan("stats", func() (any, error) {
		return s.store.Stats(shared)
	})

	var res singleflight.Result

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("computing stats: %w", ctx.Err())
	case res = <-ch:
	}

	if res.Err != nil {
		return nil, fmt.Errorf("computing stats: %w", res.Err)
	}

	stats, _ := res.Val.(*models.Stats) //nolint:errcheck // DoChan only returns what the closure returned.
	metrics.NetworkCount.Set(float64(stats.TotalNetworks))

	return stats, nil
}

// SetNote writes text as the note of the network matching identity, stamped
// with the current time. A nil text stores an empty note.
func (s *NetworkService) SetNote(ctx context.Context, identity string, text *string) (*models.Note, error) {
	identity, err := validateIdentity(identity)
	if err != nil {
		return nil, err
	}

	req := models.SetNoteRequest{Note: text}
	if err := req.Validate(); err != nil {
		return nil, &models.ValidationError{Field: "note", Message: err.Error(), Err: err}
	}

	note := ""
	if text != nil {
		note = *text
	}

	ts := s.now().UnixMilli()

	n, err := s.store.SetNote(ctx, identity, note, ts)
	if err != nil {
		return nil, fmt.Errorf("saving note: %w", err)
	}

	if err := s.store.Flush(ctx); err != nil {
		s.log.WithError(err).Warn("flush after note save failed; note is committed")
	}

	metrics.NotesSavedTotal.Inc()

	s.log.WithFields(logrus.Fields{
		"identity": identity,
		"bssid":    n.BSSID,
	}).Debug("note saved")

	publishEvent(s.events, s.log, EventNoteUpdated, map[string]any{
		"identity":  identity,
		"bssid":     n.BSSID,
		"timestamp": ts,
	})

	return &models.Note{Identity: identity, Note: note, Timestamp: &ts}, nil
}

// GetNote returns the note of the network matching identity, or
// models.ErrNoteNotFound when the network is unknown or has no note.
func (s *NetworkService) GetNote(ctx context.Context, identity string) (*models.Note, error) {
	identity, err := validateIdentity(identity)
	if err != nil {
		return nil, err
	}

	n, err := s.store.GetNetwork(ctx, identity)
	if errors.Is(err, models.ErrNetworkNotFound) {
		return nil, models.ErrNoteNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("getting note: %w", err)
	}

	if !n.HasNote() {
		return nil, models.ErrNoteNotFound
	}

	return &models.Note{Identity: identity, Note: *n.Note, Timestamp: n.NoteTimestamp}, nil
}

func validateIdentity(identity string) (string, error) {
	identity = models.NormalizeIdentity(identity)
	if identity == "" {
		return "", &models.ValidationError{Field: "identity", Message: "is required", Err: models.ErrMissingIdentity}
	}

	return identity, nil
}
