package models

// UnknownBucket is the histogram key for a missing type or capability.
const UnknownBucket = "Unknown"

// Stats holds aggregate counts over the stored networks.
type Stats struct {
	TotalNetworks     int            `json:"totalNetworks"`
	NetworksWithNotes int            `json:"networksWithNotes"`
	NetworkTypes      map[string]int `json:"networkTypes"`
	SecurityTypes     map[string]int `json:"securityTypes"`
}

// NewStats returns empty statistics with non-nil histograms.
func NewStats() *Stats {
	return &Stats{
		NetworkTypes:  map[string]int{},
		SecurityTypes: map[string]int{},
	}
}

// Note is a user annotation attached to a network.
type Note struct {
	Identity  string `json:"identity"`
	Note      string `json:"note"`
	Timestamp *int64 `json:"timestamp"`
}

// MaxNoteLength bounds the size of a single note.
const MaxNoteLength = 10000

// SetNoteRequest is the body of a note write.
type SetNoteRequest struct {
	Note *string `json:"note"`
}

// Validate checks the request against field limits.
func (r *SetNoteRequest) Validate() error {
	if r.Note != nil && len(*r.Note) > MaxNoteLength {
		return ErrFieldTooLong("note", MaxNoteLength)
	}

	return nil
}
