package stay

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestLogNormalParams_MatchTargetMoments(t *testing.T) {
	tests := []struct {
		name      string
		mean, std float64
	}{
		{"unit", 5.5, 2.0},
		{"critical care", 5.2, 2.6},
		{"narrow", 1.0, 0.01},
		{"wide", 3.0, 9.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mu, sigma, err := LogNormalParams(tt.mean, tt.std)
			require.NoError(t, err)

			// THEN the analytical moments of LogNormal(mu, sigma) are the targets
			d := distuv.LogNormal{Mu: mu, Sigma: sigma}
			assert.InDelta(t, tt.mean, d.Mean(), 1e-9)
			assert.InDelta(t, tt.std, d.StdDev(), 1e-9)
		})
	}
}

func TestLogNormalParams_RejectsNonPositive(t *testing.T) {
	_, _, err := LogNormalParams(0, 1)
	assert.Error(t, err)
	_, _, err = LogNormalParams(5, 0)
	assert.Error(t, err)
	_, _, err = LogNormalParams(-1, 1)
	assert.Error(t, err)
}

func TestSampler_EmpiricalMeanApproximatesTarget(t *testing.T) {
	// GIVEN an hourly tick and the default calibration
	s, err := NewSampler(rand.New(rand.NewSource(42)), 60, DefaultMoments())
	require.NoError(t, err)

	for cat, m := range DefaultMoments() {
		t.Run(string(cat), func(t *testing.T) {
			// WHEN drawing many stays
			const n = 20000
			draws := make([]float64, n)
			for i := range draws {
				v := s.Sample(cat)
				// THEN every draw is a strictly positive tick count
				require.GreaterOrEqual(t, v, int64(1))
				draws[i] = float64(v)
			}

			// AND the empirical mean is within 3% of the target (ticks truncate, so allow half a tick)
			want := m.MeanDays * 24
			got := stat.Mean(draws, nil)
			assert.InEpsilon(t, want, got+0.5, 0.03, "mean stay for %s", cat)
		})
	}
}

func TestSampler_SameSeedSameDraws(t *testing.T) {
	a, err := NewSampler(rand.New(rand.NewSource(7)), 30, DefaultMoments())
	require.NoError(t, err)
	b, err := NewSampler(rand.New(rand.NewSource(7)), 30, DefaultMoments())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Sample(Unit), b.Sample(Unit))
		assert.Equal(t, a.Sample(CriticalCare), b.Sample(CriticalCare))
	}
}

func TestSampler_ShortTickNeverReturnsZero(t *testing.T) {
	// GIVEN a distribution concentrated far below one tick
	s, err := NewSampler(rand.New(rand.NewSource(1)), 60*24*365, map[Category]Moments{Unit: {MeanDays: 0.01, StdDays: 0.001}})
	require.NoError(t, err)

	// THEN the duration is clamped to one tick
	for i := 0; i < 100; i++ {
		assert.Equal(t, int64(1), s.Sample(Unit))
	}
}

func TestSampler_UnknownCategory_Panics(t *testing.T) {
	s, err := NewSampler(rand.New(rand.NewSource(1)), 60, map[Category]Moments{Unit: {MeanDays: 5, StdDays: 1}})
	require.NoError(t, err)
	assert.PanicsWithValue(t, `stay: unknown category "critical_care"`, func() {
		s.Sample(CriticalCare)
	})
}

func TestNewSampler_InvalidInputs(t *testing.T) {
	_, err := NewSampler(nil, 60, DefaultMoments())
	assert.Error(t, err)
	_, err = NewSampler(rand.New(rand.NewSource(1)), 0, DefaultMoments())
	assert.Error(t, err)
	_, err = NewSampler(rand.New(rand.NewSource(1)), 60, map[Category]Moments{Unit: {MeanDays: 5, StdDays: -1}})
	assert.Error(t, err)
}
