package workload

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ed-sim/ed-sim/sim"
)

func testArrivalConfig() sim.ArrivalConfig {
	return sim.ArrivalConfig{
		Process:      "poisson",
		RatePerHour:  12,
		SeverityMix:  map[string]float64{"VERT": 1, "JAUNE": 1, "ROUGE": 1},
		SpecialtyMix: map[string]float64{sim.NoSpecialty: 1, "cardiology": 1},
	}
}

func newTestGenerator(t *testing.T, cfg sim.ArrivalConfig, seed int64) *Generator {
	t.Helper()
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	g, err := NewGenerator(cfg, 10, rng.ForSubsystem(sim.SubsystemArrivals), rng.ForSubsystem(sim.SubsystemIdentity))
	require.NoError(t, err)
	return g
}

func collect(g *Generator, ticks int64) []*sim.Patient {
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	var all []*sim.Patient
	for tick := int64(0); tick < ticks; tick++ {
		all = append(all, g.ArrivalsAt(tick, start.Add(time.Duration(tick)*10*time.Minute))...)
	}
	return all
}

func TestGenerator_Deterministic(t *testing.T) {
	// GIVEN two generators with the same seed
	a := collect(newTestGenerator(t, testArrivalConfig(), 42), 144)
	b := collect(newTestGenerator(t, testArrivalConfig(), 42), 144)

	// THEN they produce the same patients
	require.Equal(t, len(a), len(b))
	require.NotEmpty(t, a)
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Equal(t, a[i].Severity, b[i].Severity)
		assert.Equal(t, a[i].ArrivalTick, b[i].ArrivalTick)
		assert.Equal(t, a[i].RequiredSpecialty, b[i].RequiredSpecialty)
	}
}

func TestGenerator_RateMatchesConfig(t *testing.T) {
	// GIVEN 12 arrivals per hour over 24 hours (144 ticks of 10 minutes)
	patients := collect(newTestGenerator(t, testArrivalConfig(), 7), 144)

	// THEN about 288 patients arrive (within 15%)
	assert.InDelta(t, 288, len(patients), 288*0.15)
}

func TestGenerator_PatientsStartArrivedAtTick(t *testing.T) {
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	g := newTestGenerator(t, testArrivalConfig(), 3)
	for tick := int64(0); tick < 50; tick++ {
		at := start.Add(time.Duration(tick) * 10 * time.Minute)
		for _, p := range g.ArrivalsAt(tick, at) {
			assert.Equal(t, sim.StateArrived, p.State)
			assert.Equal(t, tick, p.ArrivalTick)
			assert.Equal(t, at, p.ArrivalTime)
			_, err := uuid.Parse(p.ID)
			assert.NoError(t, err, "patient id should be a uuid")
			assert.NotEqual(t, sim.SeverityGris, p.Severity, "GRIS has zero weight in this mix")
		}
	}
}

func TestGenerator_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range collect(newTestGenerator(t, testArrivalConfig(), 11), 300) {
		require.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestGenerator_MaxPatients(t *testing.T) {
	cfg := testArrivalConfig()
	cfg.MaxPatients = 5
	g := newTestGenerator(t, cfg, 1)
	patients := collect(g, 500)
	assert.Len(t, patients, 5)
	assert.Equal(t, 5, g.Emitted())
}

func TestGenerator_ConstantProcess(t *testing.T) {
	// GIVEN one arrival every 20 minutes and 10-minute ticks
	cfg := testArrivalConfig()
	cfg.Process = "constant"
	cfg.RatePerHour = 3
	g := newTestGenerator(t, cfg, 1)

	// THEN arrivals at minutes 20, 40, 60 ... land on ticks 2, 4, 6 ...
	counts := make([]int, 12)
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	for tick := int64(0); tick < 12; tick++ {
		counts[tick] = len(g.ArrivalsAt(tick, start))
	}
	assert.Equal(t, []int{0, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}, counts)
}

func TestNewGenerator_InvalidInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cfg := testArrivalConfig()

	_, err := NewGenerator(cfg, 0, rng, rng)
	assert.Error(t, err)

	_, err = NewGenerator(cfg, 10, nil, rng)
	assert.Error(t, err)

	bad := testArrivalConfig()
	bad.SeverityMix = map[string]float64{"BLEU": 1}
	_, err = NewGenerator(bad, 10, rng, rng)
	assert.Error(t, err)

	bad = testArrivalConfig()
	bad.SpecialtyMix = map[string]float64{"dermatology": 1}
	_, err = NewGenerator(bad, 10, rng, rng)
	assert.Error(t, err)
}
