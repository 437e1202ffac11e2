package reconcile

import (
	"slices"
	"strings"

	"github.com/persistorai/wifimap/internal/models"
)

// Grouping is the outcome of collapsing candidates to one primary per SSID.
type Grouping struct {
	Primaries []models.Candidate
	// Aliases maps every lowercased BSSID seen to the BSSID of its group's primary.
	Aliases map[string]string
}

// GroupKey returns the key candidates are collapsed under. Blank SSIDs are
// never merged with each other.
func GroupKey(c *models.Candidate) string {
	if c.SSID == "" {
		return "bssid:" + strings.ToLower(c.BSSID)
	}

	return "ssid:" + c.SSID
}

// SelectPrimaries keeps the strongest candidate of every SSID group, ties going
// to the first encountered, in order of first appearance. The primary's APCount
// becomes the number of access points in its group, and a note carried by a
// secondary is moved onto the primary when the primary has none of its own.
func SelectPrimaries(cands []models.Candidate) Grouping {
	type group struct {
		primary int
		members []int
	}

	groups := map[string]*group{}
	order := []string{}

	for i := range cands {
		key := GroupKey(&cands[i])

		g, ok := groups[key]
		if !ok {
			groups[key] = &group{primary: i, members: []int{i}}
			order = append(order, key)

			continue
		}

		g.members = append(g.members, i)
		if cands[i].Level > cands[g.primary].Level {
			g.primary = i
		}
	}

	out := Grouping{
		Primaries: make([]models.Candidate, 0, len(order)),
		Aliases:   make(map[string]string, len(cands)),
	}

	for _, key := range order {
		g := groups[key]
		p := cands[g.primary]

		apCount := 0
		for _, m := range g.members {
			apCount += max(cands[m].APCount, 1)
			out.Aliases[strings.ToLower(cands[m].BSSID)] = p.BSSID

			if m != g.primary {
				p.Note, p.NoteTimestamp = MergeNote(p.Note, p.NoteTimestamp, cands[m].Note, cands[m].NoteTimestamp)
			}
		}

		p.APCount = apCount
		out.Primaries = append(out.Primaries, p)
	}

	return out
}

// Members maps every primary BSSID to the lowercased BSSIDs grouped under it,
// its own included.
func (g Grouping) Members() map[string][]string {
	out := make(map[string][]string, len(g.Primaries))

	for bssid, primary := range g.Aliases {
		out[primary] = append(out[primary], bssid)
	}

	for _, members := range out {
		slices.Sort(members)
	}

	return out
}
