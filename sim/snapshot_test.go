package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_ReflectsDepartment(t *testing.T) {
	// GIVEN a small department with a few placed patients
	env := newTestEnv(t, SchedulerConfig{}, func(pool *ResourcePool) {
		pool.AddStaff("N1", RoleNurse)
		pool.AddWaitingRoom("SA1", 4)
		supervisedRoom(t, pool, "C1", "D1", 1)
		pool.AddUnit(SpecialtyGeneral, 2)
		pool.SetCriticalCareBeds(2)
	})
	env.waiting(t, "w1", SeverityVert, "SA1")
	env.waiting(t, "w2", SeverityJaune, "SA1")
	env.consulting(t, "c1", SeverityJaune, "C1")
	env.awaiting(t, "a1", SeverityRouge, true)
	require.NoError(t, env.pool.AdmitToCriticalCare())
	env.arrive(t, "n1", SeverityVert)

	// WHEN a snapshot is taken
	snap := env.dept.Snapshot()

	// THEN indices and counts match
	want := map[string]float64{
		"saturation_waiting":         0.5,       // 2 / 4
		"saturation_absorption":      4.0 / 5.0, // arrived + waiting + awaiting over 4 + 1
		"saturation_transfer":        0.5,       // 1 awaiting over 2 beds
		"saturation_index":           0.75,      // (2 + 1) / 4
		"count_arrived":              1,
		"count_waiting":              2,
		"count_in_consultation":      1,
		"count_awaiting_transfer":    1,
		"count_discharged":           0,
		"waiting_SA1_occupancy":      2,
		"waiting_SA1_staffed":        0,
		"consultation_C1_occupancy":  1,
		"consultation_C1_supervised": 1,
		"unit_general_occupancy":     0,
		"critical_care_occupancy":    1,
		"staff_doctor_available":     0,
		"staff_nurse_available":      1,
		"staff_assistant_available":  0,
		"staffing_sufficient":        1,
		"noncompliant_waiting_rooms": 0,
	}
	for name, v := range want {
		got, ok := snap.Value(name)
		require.True(t, ok, "missing field %s", name)
		assert.InDelta(t, v, got, 1e-9, name)
	}
	assert.Equal(t, env.dept.Tick(), snap.Tick)
	assert.Equal(t, env.dept.Now(), snap.Time)
}

func TestSnapshot_HeaderIsStable(t *testing.T) {
	env := newTestEnv(t, SchedulerConfig{}, func(pool *ResourcePool) {
		pool.AddWaitingRoom("SA1", 4)
		pool.AddUnit(SpecialtyGeneral, 2)
	})
	first := env.dept.Snapshot()
	env.arrive(t, "v1", SeverityVert)
	env.step(t)
	env.dept.Advance()
	second := env.dept.Snapshot()

	assert.Equal(t, first.Header(), second.Header())
	assert.Equal(t, []string{"tick", "time"}, first.Header()[:2])
	assert.Len(t, first.Header(), len(first.Fields)+2)
}

func TestSnapshot_EmptyDepartment_NoDivisionByZero(t *testing.T) {
	d := NewDepartment(testStart, testMinutesPerTick, NewResourcePool())
	snap := d.Snapshot()
	for _, f := range snap.Fields {
		assert.False(t, math.IsNaN(f.Value), "%s is NaN", f.Name)
	}
	v, ok := snap.Value("staffing_sufficient")
	require.True(t, ok)
	assert.Zero(t, v)
	_, ok = snap.Value("does_not_exist")
	assert.False(t, ok)
}
