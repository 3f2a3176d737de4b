package workload

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ed-sim/ed-sim/sim"
)

// Generator produces synthetic arrivals tick by tick.
// Deterministic given the same config and random sources.
// Thread-safety: NOT thread-safe.
type Generator struct {
	minutesPerTick int
	maxPatients    int

	rng         *rand.Rand // arrival times and case mix
	idRNG       *rand.Rand // patient ids
	arrivals    ArrivalSampler
	severities  *categorical
	specialties *categorical

	next    float64 // minutes since start of the next arrival
	emitted int
}

// NewGenerator builds a generator from a validated arrival config.
// rng drives arrival times and the case mix; idRNG drives patient ids,
// so changing how ids are drawn never shifts the arrival stream.
func NewGenerator(cfg sim.ArrivalConfig, minutesPerTick int, rng, idRNG *rand.Rand) (*Generator, error) {
	if minutesPerTick <= 0 {
		return nil, fmt.Errorf("minutes per tick must be > 0, got %d", minutesPerTick)
	}
	if rng == nil || idRNG == nil {
		return nil, fmt.Errorf("generator requires random sources")
	}
	sev, err := newCategorical(cfg.SeverityMix)
	if err != nil {
		return nil, fmt.Errorf("severity mix: %w", err)
	}
	for _, k := range sev.keys {
		if _, err := sim.ParseSeverity(k); err != nil {
			return nil, fmt.Errorf("severity mix: %w", err)
		}
	}
	spec, err := newCategorical(cfg.SpecialtyMix)
	if err != nil {
		return nil, fmt.Errorf("specialty mix: %w", err)
	}
	for _, k := range spec.keys {
		if k != sim.NoSpecialty && !sim.IsValidSpecialty(k) {
			return nil, fmt.Errorf("specialty mix: unknown specialty %q", k)
		}
	}
	g := &Generator{
		minutesPerTick: minutesPerTick,
		maxPatients:    cfg.MaxPatients,
		rng:            rng,
		idRNG:          idRNG,
		arrivals:       NewArrivalSampler(cfg.Process, cfg.RatePerHour),
		severities:     sev,
		specialties:    spec,
	}
	g.next = g.arrivals.SampleIAT(g.rng)
	return g, nil
}

// ArrivalsAt returns the patients arriving during tick, stamped with the tick's
// instant at. Ticks must be requested in increasing order.
func (g *Generator) ArrivalsAt(tick int64, at time.Time) []*sim.Patient {
	end := float64(tick+1) * float64(g.minutesPerTick)
	var out []*sim.Patient
	for g.next < end && !g.exhausted() {
		out = append(out, g.newPatient(tick, at))
		g.emitted++
		g.next += g.arrivals.SampleIAT(g.rng)
	}
	if len(out) > 0 {
		logrus.Debugf("[tick %07d] %d arrivals", tick, len(out))
	}
	return out
}

// Emitted returns the number of patients generated so far.
func (g *Generator) Emitted() int {
	return g.emitted
}

func (g *Generator) exhausted() bool {
	return g.maxPatients > 0 && g.emitted >= g.maxPatients
}

func (g *Generator) newPatient(tick int64, at time.Time) *sim.Patient {
	// Keys were validated in NewGenerator.
	severity, _ := sim.ParseSeverity(g.severities.sample(g.rng))
	specialty := g.specialties.sample(g.rng)

	p := sim.NewPatient(g.newID(), severity, tick, at)
	if specialty != sim.NoSpecialty {
		p.WithSpecialty(sim.Specialty(specialty))
	}
	return p
}

func (g *Generator) newID() string {
	id, err := uuid.NewRandomFromReader(g.idRNG)
	if err != nil {
		// *rand.Rand reads never fail.
		panic(fmt.Sprintf("generating patient id: %v", err))
	}
	return id.String()
}
