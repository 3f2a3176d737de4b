// Package workload generates patient arrivals for the emergency department:
// synthetic streams drawn from a rate and a case mix, or recorded arrivals
// replayed from a CSV file.
package workload

import (
	"math"
	"math/rand"
)

// ArrivalSampler generates inter-arrival times.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival time in minutes. Always > 0.
	SampleIAT(rng *rand.Rand) float64
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct {
	ratePerMinute float64
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) float64 {
	iat := rng.ExpFloat64() / s.ratePerMinute
	if iat <= 0 {
		return math.SmallestNonzeroFloat64
	}
	return iat
}

// ConstantSampler spaces arrivals evenly (CV=0).
type ConstantSampler struct {
	interval float64
}

func (s *ConstantSampler) SampleIAT(_ *rand.Rand) float64 {
	return s.interval
}

// NeverSampler is used for a zero rate: the first arrival is never reached.
type NeverSampler struct{}

func (NeverSampler) SampleIAT(_ *rand.Rand) float64 {
	return math.Inf(1)
}

// NewArrivalSampler creates an ArrivalSampler for process at ratePerHour.
// process must be "poisson" or "constant"; anything else falls back to Poisson.
func NewArrivalSampler(process string, ratePerHour float64) ArrivalSampler {
	if ratePerHour <= 0 {
		return NeverSampler{}
	}
	ratePerMinute := ratePerHour / 60
	switch process {
	case "constant":
		return &ConstantSampler{interval: 1 / ratePerMinute}
	default:
		return &PoissonSampler{ratePerMinute: ratePerMinute}
	}
}
