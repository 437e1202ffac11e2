// Package fusion combines location observations of one network into a
// single position estimate.
package fusion

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/persistorai/wifimap/internal/models"
)

// MaxSelected is how many ranked samples FuseSamples averages.
const MaxSelected = 3

// Fused is the outcome of folding samples into one estimate.
type Fused struct {
	Position     models.Position
	Level        int
	Accuracy     *float64
	Observations int
}

// SignalWeight maps a dBm level onto a positive linear weight. Typical
// -100..0 dBm levels land on 1..1e10.
func SignalWeight(level int) float64 {
	return math.Pow(10, float64(level+100)/10)
}

// FuseSamples ranks samples by ascending accuracy then ascending |level|,
// keeps the best MaxSelected and reduces them to one estimate. Samples with
// unusable coordinates are ignored; ok is false when none remain.
func FuseSamples(samples []models.Sample) (Fused, bool) {
	usable := make([]models.Sample, 0, len(samples))
	for _, s := range samples {
		if s.Position().Valid() {
			usable = append(usable, s)
		}
	}

	if len(usable) == 0 {
		return Fused{}, false
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return rankLess(usable[i], usable[j])
	})

	if len(usable) > MaxSelected {
		usable = usable[:MaxSelected]
	}

	lats := make([]float64, len(usable))
	lons := make([]float64, len(usable))
	weights := make([]float64, len(usable))

	out := Fused{Level: usable[0].Level, Observations: len(usable)}

	for i, s := range usable {
		lats[i], lons[i] = s.Lat, s.Lon
		weights[i] = SignalWeight(s.Level)

		if s.Level > out.Level {
			out.Level = s.Level
		}

		out.Accuracy = MinAccuracy(out.Accuracy, s.Accuracy)
	}

	out.Position = weightedPosition(lats, lons, weights)

	return out, true
}

// MergeObservation folds one incoming observation into an existing estimate,
// weighting each side by its signal level. The resulting level is the
// stronger of the two.
func MergeObservation(existing models.Position, existingLevel int, incoming models.Position, incomingLevel int) (models.Position, int) {
	level := max(existingLevel, incomingLevel)

	switch {
	case !incoming.Valid():
		return existing, level
	case !existing.Valid():
		return incoming, level
	}

	pos := weightedPosition(
		[]float64{existing.Lat, incoming.Lat},
		[]float64{existing.Lon, incoming.Lon},
		[]float64{SignalWeight(existingLevel), SignalWeight(incomingLevel)},
	)

	return pos, level
}

// MinAccuracy returns the smaller of two optional accuracies. Absent values
// never win over present ones.
func MinAccuracy(a, b *float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	}

	v := math.Min(*a, *b)

	return &v
}

func rankLess(a, b models.Sample) bool {
	switch {
	case a.Accuracy == nil && b.Accuracy != nil:
		return false
	case a.Accuracy != nil && b.Accuracy == nil:
		return true
	case a.Accuracy != nil && *a.Accuracy != *b.Accuracy:
		return *a.Accuracy < *b.Accuracy
	}

	return absInt(a.Level) < absInt(b.Level)
}

// weightedPosition falls back to the arithmetic mean when the weights do not
// sum to a positive finite total.
func weightedPosition(lats, lons, weights []float64) models.Position {
	total := 0.0
	for _, w := range weights {
		total += w
	}

	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		weights = nil
	}

	return models.Position{
		Lat: stat.Mean(lats, weights),
		Lon: stat.Mean(lons, weights),
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
