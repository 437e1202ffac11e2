// Package models defines data types for the network map.
package models

import (
	"math"
	"strings"
)

// DefaultType is the classifier for WiFi networks.
const DefaultType = "W"

// Position is a WGS84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether p is a usable coordinate. The null island (0,0) is
// what scanners write when no fix was available, so it is treated as absent.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}

	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return false
	}

	return p.Lat != 0 || p.Lon != 0
}

// Network is one persisted network record. Identity is the BSSID; when several
// access points share an SSID only the primary one is stored and APCount
// records how many were collapsed into it.
type Network struct {
	BSSID         string   `json:"bssid"`
	SSID          string   `json:"ssid"`
	Frequency     int64    `json:"frequency"`
	Capabilities  string   `json:"capabilities"`
	LastSeen      int64    `json:"lasttime"`
	Position      Position `json:"position"`
	Type          string   `json:"type"`
	BestLevel     int      `json:"bestlevel"`
	Accuracy      *float64 `json:"accuracy,omitempty"`
	Observations  int      `json:"observations"`
	APCount       int      `json:"ap_count"`
	Note          *string  `json:"note,omitempty"`
	NoteTimestamp *int64   `json:"note_timestamp,omitempty"`
}

// HasNote reports whether a note has been written for the network.
func (n *Network) HasNote() bool {
	return n.Note != nil
}

// NetworkView is the display shape returned by list queries. Note is always
// present and empty when none was written.
type NetworkView struct {
	BSSID         string   `json:"bssid"`
	SSID          string   `json:"ssid"`
	Frequency     int64    `json:"frequency"`
	Capabilities  string   `json:"capabilities"`
	LastSeen      int64    `json:"lasttime"`
	Lat           float64  `json:"lastlat"`
	Lon           float64  `json:"lastlon"`
	Type          string   `json:"type"`
	BestLevel     int      `json:"bestlevel"`
	Accuracy      *float64 `json:"accuracy,omitempty"`
	Observations  int      `json:"observations"`
	APCount       int      `json:"ap_count"`
	Note          string   `json:"note"`
	NoteTimestamp *int64   `json:"note_timestamp,omitempty"`
}

// View converts n into its display shape.
func (n *Network) View() NetworkView {
	v := NetworkView{
		BSSID:         n.BSSID,
		SSID:          n.SSID,
		Frequency:     n.Frequency,
		Capabilities:  n.Capabilities,
		LastSeen:      n.LastSeen,
		Lat:           n.Position.Lat,
		Lon:           n.Position.Lon,
		Type:          n.Type,
		BestLevel:     n.BestLevel,
		Accuracy:      n.Accuracy,
		Observations:  n.Observations,
		APCount:       n.APCount,
		NoteTimestamp: n.NoteTimestamp,
	}

	if n.Note != nil {
		v.Note = *n.Note
	}

	return v
}

// NormalizeIdentity trims an identity so that whitespace never creates a
// second entry for the same logical network.
func NormalizeIdentity(s string) string {
	return strings.TrimSpace(s)
}
