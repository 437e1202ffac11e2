// Package reconcile decides how incoming network candidates merge into the
// persisted record set.
package reconcile

import (
	"strings"

	"github.com/persistorai/wifimap/internal/fusion"
	"github.com/persistorai/wifimap/internal/models"
)

// Normalize trims identity fields and applies defaults in place.
func Normalize(c *models.Candidate) {
	c.BSSID = strings.TrimSpace(c.BSSID)
	c.SSID = models.NormalizeIdentity(c.SSID)
	c.Capabilities = strings.TrimSpace(c.Capabilities)

	c.Type = strings.TrimSpace(c.Type)
	if c.Type == "" {
		c.Type = models.DefaultType
	}
}

// Usable reports whether c may enter reconciliation at all.
func Usable(c *models.Candidate) error {
	if c.BSSID == "" {
		return models.ErrMissingBSSID
	}

	if c.Position == nil || !c.Position.Valid() {
		return models.ErrNoPosition
	}

	return nil
}

// Reconcile returns the action to take for c and, unless skipped, the next
// persisted state. existing is nil when no record matches c.
func Reconcile(existing *models.Network, c models.Candidate) (string, *models.Network, error) {
	if err := Usable(&c); err != nil {
		return "", nil, err
	}

	if existing == nil {
		return models.ActionCreated, insert(c), nil
	}

	if !bringsChange(existing, c) {
		return models.ActionSkipped, nil, nil
	}

	return models.ActionUpdated, merge(existing, c), nil
}

func insert(c models.Candidate) *models.Network {
	n := &models.Network{
		BSSID:         c.BSSID,
		SSID:          c.SSID,
		Frequency:     c.Frequency,
		Capabilities:  c.Capabilities,
		LastSeen:      c.LastSeen,
		Position:      *c.Position,
		Type:          c.Type,
		BestLevel:     c.Level,
		Accuracy:      copyFloat(c.Accuracy),
		Observations:  sampleCount(c),
		APCount:       max(c.APCount, 1),
		Note:          c.Note,
		NoteTimestamp: c.NoteTimestamp,
	}

	if n.Type == "" {
		n.Type = models.DefaultType
	}

	return n
}

func merge(existing *models.Network, c models.Candidate) *models.Network {
	next := *existing

	// A stronger access point for the same SSID becomes the primary.
	if !strings.EqualFold(c.BSSID, existing.BSSID) && c.Level > existing.BestLevel {
		next.BSSID = c.BSSID
	}

	next.Position, next.BestLevel = fusion.MergeObservation(existing.Position, existing.BestLevel, *c.Position, c.Level)
	next.Accuracy = fusion.MinAccuracy(existing.Accuracy, c.Accuracy)
	next.Observations = existing.Observations + sampleCount(c)
	next.LastSeen = max(existing.LastSeen, c.LastSeen)
	next.APCount = max(existing.APCount, c.APCount, 1)

	next.SSID = c.SSID
	next.Frequency = c.Frequency
	next.Capabilities = c.Capabilities
	next.Type = c.Type

	next.Note, next.NoteTimestamp = MergeNote(existing.Note, existing.NoteTimestamp, c.Note, c.NoteTimestamp)

	return &next
}

// Collapse folds two stored records that answer to the same SSID into one.
// The stronger record keeps its BSSID, ties going to fresh, while fresh
// supplies the descriptive fields. Counts add up and a note present on
// either side survives, the survivor's own note first.
func Collapse(fresh, other *models.Network) *models.Network {
	winner, loser := fresh, other
	if other.BestLevel > fresh.BestLevel {
		winner, loser = other, fresh
	}

	next := *fresh
	next.BSSID = winner.BSSID
	next.Position, next.BestLevel = fusion.MergeObservation(winner.Position, winner.BestLevel, loser.Position, loser.BestLevel)
	next.Accuracy = fusion.MinAccuracy(fresh.Accuracy, other.Accuracy)
	next.Observations = max(fresh.Observations, 1) + max(other.Observations, 1)
	next.APCount = max(fresh.APCount, 1) + max(other.APCount, 1)
	next.LastSeen = max(fresh.LastSeen, other.LastSeen)

	next.Note, next.NoteTimestamp = winner.Note, winner.NoteTimestamp
	if next.Note == nil {
		next.Note, next.NoteTimestamp = loser.Note, loser.NoteTimestamp
	}

	return &next
}

// bringsChange reports whether c carries anything existing does not already
// reflect. Re-importing data that is already merged must be a no-op.
func bringsChange(existing *models.Network, c models.Candidate) bool {
	if c.LastSeen > existing.LastSeen || c.Level > existing.BestLevel {
		return true
	}

	if c.Accuracy != nil && (existing.Accuracy == nil || *c.Accuracy < *existing.Accuracy) {
		return true
	}

	if c.APCount > existing.APCount {
		return true
	}

	if c.SSID != existing.SSID || c.Frequency != existing.Frequency ||
		c.Capabilities != existing.Capabilities || c.Type != existing.Type {
		return true
	}

	note, ts := MergeNote(existing.Note, existing.NoteTimestamp, c.Note, c.NoteTimestamp)

	return !sameString(note, existing.Note) || !sameInt(ts, existing.NoteTimestamp)
}

// MergeNote keeps an existing note unless the incoming one is explicitly
// newer. An absent incoming note never erases a present one.
func MergeNote(existing *string, existingTS *int64, incoming *string, incomingTS *int64) (*string, *int64) {
	switch {
	case incoming == nil:
		return existing, existingTS
	case existing == nil:
		return incoming, incomingTS
	case incomingTS != nil && (existingTS == nil || *incomingTS > *existingTS):
		return incoming, incomingTS
	}

	return existing, existingTS
}

func sampleCount(c models.Candidate) int {
	if c.Observations > 0 {
		return c.Observations
	}

	return 1
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}

	out := *v

	return &out
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func sameInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
