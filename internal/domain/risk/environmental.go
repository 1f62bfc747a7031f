// Package risk holds the pure scoring core: environmental and lifestyle
// normalizers, the vulnerability adjuster, and the aggregator. Nothing in
// this package performs I/O or keeps state; identical inputs always
// produce identical outputs.
package risk

import (
	"math"

	"github.com/voralis/envrisk/internal/domain/reading"
)

// AQI band boundaries on the EPA scale.
const (
	airLowMaxAQI = 75
	airMidMaxAQI = 150
)

// ContaminationScores maps a contamination rating onto the 0-100 risk
// scale. Shared by the soil and water sub-scores.
var ContaminationScores = map[reading.Level]float64{
	reading.LevelLow:    10,
	reading.LevelMedium: 50,
	reading.LevelHigh:   90,
}

// Soil pH comfort band; readings outside it add a fixed penalty.
const (
	SoilPHMin     = 5.5
	SoilPHMax     = 7.5
	soilPHPenalty = 10
)

// Breakdown carries the blended environmental sub-score plus the per-domain
// pieces and the weights used, so factor generation can rank true weighted
// contributions.
type Breakdown struct {
	Environmental float64
	Air           *float64
	Soil          *float64
	Water         *float64
	Weights       map[reading.Domain]float64
}

// AirSubScore maps an already-EPA AQI into the 0-100 risk scale using
// piecewise-linear bands. Providers deliver EPA-scale AQI; this function
// never re-converts provider scales.
func AirSubScore(aqi int) float64 {
	switch {
	case aqi <= airLowMaxAQI:
		return float64(aqi) / 75 * 33
	case aqi <= airMidMaxAQI:
		return 34 + float64(aqi-76)/74*32
	default:
		return math.Min(100, 67+float64(aqi-151)/349*33)
	}
}

// SoilSubScore grades soil contamination with a pH penalty outside the
// comfortable band, clamped to [0,100].
func SoilSubScore(s reading.SoilReading) float64 {
	score := ContaminationScores[s.Contamination]
	if s.PH < SoilPHMin || s.PH > SoilPHMax {
		score += soilPHPenalty
	}
	return clamp(score)
}

// WaterSubScore grades water contamination on the shared mapping.
func WaterSubScore(w reading.WaterReading) float64 {
	return ContaminationScores[w.Contamination]
}

// EnvironmentalScore blends the present environmental domains into one
// 0-100 sub-score. Air is mandatory; weather is context only and never
// contributes. The bundle is validated before any scoring.
func EnvironmentalScore(b reading.Bundle, w DomainWeights) (Breakdown, error) {
	if b.Air == nil {
		return Breakdown{}, &MissingDomainError{Domain: reading.DomainAir}
	}
	if err := b.Validate(); err != nil {
		return Breakdown{}, err
	}

	row := w.Row(b.Soil != nil, b.Water != nil)

	air := AirSubScore(b.Air.AQI)
	bd := Breakdown{Air: &air, Weights: row}
	total := air * row[reading.DomainAir]
	if b.Soil != nil {
		soil := SoilSubScore(*b.Soil)
		bd.Soil = &soil
		total += soil * row[reading.DomainSoil]
	}
	if b.Water != nil {
		water := WaterSubScore(*b.Water)
		bd.Water = &water
		total += water * row[reading.DomainWater]
	}
	bd.Environmental = clamp(total)
	return bd, nil
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
