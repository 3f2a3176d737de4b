package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ed-sim/ed-sim/sim/stay"
	"github.com/ed-sim/ed-sim/sim/trace"
)

var testStart = time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)

const testMinutesPerTick = 10

// fixedStay returns the same stay for every category.
type fixedStay int64

func (f fixedStay) Sample(stay.Category) int64 { return int64(f) }

// testEnv bundles a department and its scheduler for scenario tests.
type testEnv struct {
	dept  *Department
	pool  *ResourcePool
	sched *Scheduler
	log   *trace.DecisionLog
}

// newTestEnv builds the pool with build, then opens the department so that
// waiting rooms start with fresh staff presence.
func newTestEnv(t *testing.T, cfg SchedulerConfig, build func(pool *ResourcePool)) *testEnv {
	t.Helper()
	pool := NewResourcePool()
	build(pool)
	dept := NewDepartment(testStart, testMinutesPerTick, pool)
	log := trace.NewDecisionLog(trace.LevelViolations)
	return &testEnv{
		dept:  dept,
		pool:  pool,
		sched: NewScheduler(dept, fixedStay(3), cfg, SpecialtyGeneral, log),
		log:   log,
	}
}

// supervisedRoom adds a consultation room with its own doctor in charge.
func supervisedRoom(t *testing.T, pool *ResourcePool, roomID, doctorID string, capacity int) {
	t.Helper()
	pool.AddStaff(doctorID, RoleDoctor)
	pool.AddConsultationRoom(roomID, capacity)
	_, err := pool.AssignSupervisor(roomID)
	require.NoError(t, err)
}

func (e *testEnv) arrive(t *testing.T, id string, sev Severity) *Patient {
	t.Helper()
	p := NewPatient(id, sev, e.dept.Tick(), e.dept.Now())
	require.NoError(t, e.dept.AddPatient(p))
	return p
}

// waiting registers a patient already seated in a waiting room.
func (e *testEnv) waiting(t *testing.T, id string, sev Severity, room string) *Patient {
	t.Helper()
	p := e.arrive(t, id, sev)
	require.NoError(t, e.pool.AdmitToRoom(room))
	p.TransitionTo(StateWaiting, InWaitingRoom(room), e.dept.Now(), "test setup")
	return p
}

// consulting registers a patient already in a supervised consultation room.
func (e *testEnv) consulting(t *testing.T, id string, sev Severity, room string) *Patient {
	t.Helper()
	p := e.arrive(t, id, sev)
	require.NoError(t, e.pool.AdmitToConsultation(room))
	p.TransitionTo(StateInConsultation, InConsultationRoom(room), e.dept.Now(), "test setup")
	return p
}

// awaiting registers a patient in the transfer queue. When consulted is true
// the history shows a finished consultation.
func (e *testEnv) awaiting(t *testing.T, id string, sev Severity, consulted bool) *Patient {
	t.Helper()
	p := e.arrive(t, id, sev)
	if consulted {
		p.TransitionTo(StateInConsultation, InConsultationRoom("C-past"), e.dept.Now(), "test setup")
	}
	p.TransitionTo(StateAwaitingTransfer, InTransferQueue(), e.dept.Now(), "test setup")
	return p
}

func (e *testEnv) step(t *testing.T) {
	t.Helper()
	require.NoError(t, e.sched.Step())
	requireInvariants(t, e.dept)
}

func (e *testEnv) violations(rule string) int {
	n := 0
	for _, v := range e.log.Violations {
		if v.Rule == rule {
			n++
		}
	}
	return n
}

// requireInvariants checks the structural guarantees that hold at the end of every tick.
func requireInvariants(t *testing.T, d *Department) {
	t.Helper()
	pool := d.Resources
	for _, r := range pool.WaitingRooms() {
		require.GreaterOrEqual(t, r.Occupancy, 0, "waiting room %s", r.ID)
		require.LessOrEqual(t, r.Occupancy, r.Capacity, "waiting room %s", r.ID)
		require.Equal(t, r.Admits-r.Releases, r.Occupancy, "waiting room %s balance", r.ID)
	}
	for _, r := range pool.ConsultationRooms() {
		require.GreaterOrEqual(t, r.Occupancy, 0, "consultation room %s", r.ID)
		require.LessOrEqual(t, r.Occupancy, r.Capacity, "consultation room %s", r.ID)
		require.Equal(t, r.Admits-r.Releases, r.Occupancy, "consultation room %s balance", r.ID)
	}
	units := append(pool.Units(), pool.CriticalCare())
	for _, u := range units {
		require.GreaterOrEqual(t, u.Occupancy, 0, "unit %s", u.Specialty)
		require.LessOrEqual(t, u.Occupancy, u.Capacity, "unit %s", u.Specialty)
		require.Equal(t, u.Admits-u.Releases, u.Occupancy, "unit %s balance", u.Specialty)
	}
	for _, p := range d.Patients() {
		h := p.History()
		require.NotEmpty(t, h, "patient %s history", p.ID)
		require.Equal(t, p.State, h[len(h)-1].To, "patient %s last transition", p.ID)
		for i := 1; i < len(h); i++ {
			require.False(t, h[i].At.Before(h[i-1].At), "patient %s history goes back in time at %d", p.ID, i)
		}
	}
}

// requireOccupancyMatchesPatients checks that every occupied place is held by
// exactly one patient. Valid only when all placements went through the scheduler.
func requireOccupancyMatchesPatients(t *testing.T, d *Department) {
	t.Helper()
	waiting := map[string]int{}
	consult := map[string]int{}
	units := map[Specialty]int{}
	cc := 0
	for _, p := range d.ActivePatients() {
		if p.HeldWaitingRoom != "" {
			waiting[p.HeldWaitingRoom]++
		}
		switch p.Location.Area {
		case AreaWaitingRoom:
			waiting[p.Location.ID]++
		case AreaConsultationRoom:
			consult[p.Location.ID]++
		case AreaHospitalUnit:
			units[Specialty(p.Location.ID)]++
		case AreaCriticalCare:
			cc++
		}
	}
	for _, r := range d.Resources.WaitingRooms() {
		require.Equal(t, r.Occupancy, waiting[r.ID], "waiting room %s occupants", r.ID)
	}
	for _, r := range d.Resources.ConsultationRooms() {
		require.Equal(t, r.Occupancy, consult[r.ID], "consultation room %s occupants", r.ID)
	}
	for _, u := range d.Resources.Units() {
		require.Equal(t, u.Occupancy, units[u.Specialty], "unit %s occupants", u.Specialty)
	}
	require.Equal(t, d.Resources.CriticalCare().Occupancy, cc, "critical care occupants")
}
