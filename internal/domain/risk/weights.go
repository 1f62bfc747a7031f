package risk

import (
	"github.com/voralis/envrisk/internal/domain/reading"
)

// DomainWeights selects the blend of environmental sub-scores for each
// combination of present domains. Air is present in every row; each row
// sums to 1.0 (enforced at config load).
type DomainWeights struct {
	AirOnly  map[reading.Domain]float64
	AirSoil  map[reading.Domain]float64
	AirWater map[reading.Domain]float64
	Full     map[reading.Domain]float64
}

// DefaultWeights returns the documented weight table.
func DefaultWeights() DomainWeights {
	return DomainWeights{
		AirOnly: map[reading.Domain]float64{
			reading.DomainAir: 1.0,
		},
		AirSoil: map[reading.Domain]float64{
			reading.DomainAir:  0.7,
			reading.DomainSoil: 0.3,
		},
		AirWater: map[reading.Domain]float64{
			reading.DomainAir:   0.7,
			reading.DomainWater: 0.3,
		},
		Full: map[reading.Domain]float64{
			reading.DomainAir:   0.5,
			reading.DomainWater: 0.3,
			reading.DomainSoil:  0.2,
		},
	}
}

// Row picks the weight row for the given presence combination.
func (w DomainWeights) Row(soil, water bool) map[reading.Domain]float64 {
	switch {
	case soil && water:
		return w.Full
	case soil:
		return w.AirSoil
	case water:
		return w.AirWater
	default:
		return w.AirOnly
	}
}

// WeightRow converts a configuration row keyed by domain name. Unknown
// keys pass through; config validation has already rejected them.
func WeightRow(row map[string]float64) map[reading.Domain]float64 {
	out := make(map[reading.Domain]float64, len(row))
	for k, v := range row {
		out[reading.Domain(k)] = v
	}
	return out
}
