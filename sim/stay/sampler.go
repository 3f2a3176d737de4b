// Package stay samples lengths of stay for capacity-limited beds.
//
// Durations follow a log-normal law whose parameters are derived from a target
// mean and standard deviation in days. Default targets are calibrated on French
// hospital statistics (DREES, Panorama des etablissements de sante 2025; fiche 13
// soins critiques 2024): 5.5 days in a specialty unit, 5.2 days in critical care.
//
// This package has no dependencies on sim/ so the kernel can import it.
package stay

import (
	"fmt"
	"math"
	"math/rand"
)

// Category selects which calibrated distribution a stay is drawn from.
type Category string

const (
	Unit         Category = "unit"
	CriticalCare Category = "critical_care"
)

const minutesPerDay = 24 * 60

// Moments is a target mean and standard deviation, in days.
type Moments struct {
	MeanDays float64 `yaml:"mean_days"`
	StdDays  float64 `yaml:"std_days"`
}

// DefaultMoments returns the calibrated targets per category.
func DefaultMoments() map[Category]Moments {
	return map[Category]Moments{
		Unit:         {MeanDays: 5.5, StdDays: 2.0},
		CriticalCare: {MeanDays: 5.2, StdDays: 2.6},
	}
}

// LogNormalParams converts a mean and standard deviation into the (mu, sigma)
// of the underlying normal by moment matching:
//
//	sigma^2 = ln(1 + std^2/mean^2)
//	mu      = ln(mean) - sigma^2/2
func LogNormalParams(mean, std float64) (mu, sigma float64, err error) {
	if mean <= 0 {
		return 0, 0, fmt.Errorf("log-normal mean must be > 0, got %v", mean)
	}
	if std <= 0 {
		return 0, 0, fmt.Errorf("log-normal std must be > 0, got %v", std)
	}
	sigma2 := math.Log(1 + (std*std)/(mean*mean))
	return math.Log(mean) - sigma2/2, math.Sqrt(sigma2), nil
}

type params struct {
	mu, sigma float64
}

// Sampler draws stay durations in ticks.
// Thread-safety: NOT thread-safe; it shares the caller's *rand.Rand.
type Sampler struct {
	rng            *rand.Rand
	minutesPerTick int
	params         map[Category]params
}

// NewSampler builds a sampler for every category in moments.
func NewSampler(rng *rand.Rand, minutesPerTick int, moments map[Category]Moments) (*Sampler, error) {
	if rng == nil {
		return nil, fmt.Errorf("stay sampler requires a random source")
	}
	if minutesPerTick <= 0 {
		return nil, fmt.Errorf("minutes per tick must be > 0, got %d", minutesPerTick)
	}
	s := &Sampler{rng: rng, minutesPerTick: minutesPerTick, params: make(map[Category]params, len(moments))}
	for cat, m := range moments {
		mu, sigma, err := LogNormalParams(m.MeanDays, m.StdDays)
		if err != nil {
			return nil, fmt.Errorf("stay category %q: %w", cat, err)
		}
		s.params[cat] = params{mu: mu, sigma: sigma}
	}
	return s, nil
}

// SampleDays draws one duration in days.
// Panics on a category the sampler was not built with.
func (s *Sampler) SampleDays(cat Category) float64 {
	p, ok := s.params[cat]
	if !ok {
		panic(fmt.Sprintf("stay: unknown category %q", cat))
	}
	return math.Exp(p.mu + p.sigma*s.rng.NormFloat64())
}

// Sample draws one duration in ticks. Always >= 1.
func (s *Sampler) Sample(cat Category) int64 {
	days := s.SampleDays(cat)
	ticks := int64(days * minutesPerDay / float64(s.minutesPerTick))
	if ticks < 1 {
		return 1
	}
	return ticks
}
