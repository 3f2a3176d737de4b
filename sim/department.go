package sim

import (
	"fmt"
	"time"
)

// Department is the aggregate root of one simulation: the patient registry,
// the resource pool and the logical clock. Every component reaches state
// through the Department it is handed; there is no package-level instance.
type Department struct {
	Resources *ResourcePool

	patients map[string]*Patient
	order    []string // insertion order, for deterministic iteration

	tick           int64
	start          time.Time
	minutesPerTick int
}

// NewDepartment opens a department at tick 0.
// Panics if minutesPerTick <= 0 or pool is nil.
func NewDepartment(start time.Time, minutesPerTick int, pool *ResourcePool) *Department {
	if minutesPerTick <= 0 {
		panic(fmt.Sprintf("NewDepartment: minutesPerTick must be > 0, got %d", minutesPerTick))
	}
	if pool == nil {
		panic("NewDepartment: pool must not be nil")
	}
	pool.ResetPresence(start)
	return &Department{
		Resources:      pool,
		patients:       make(map[string]*Patient),
		start:          start,
		minutesPerTick: minutesPerTick,
	}
}

// AddPatient registers a patient. Patients are never removed: terminal
// states mark them inactive and keep them available for audit.
func (d *Department) AddPatient(p *Patient) error {
	if p == nil {
		return invariant("add_patient", "", ErrUnknownPatient)
	}
	if _, ok := d.patients[p.ID]; ok {
		return invariant("add_patient", p.ID, ErrDuplicatePatient)
	}
	d.patients[p.ID] = p
	d.order = append(d.order, p.ID)
	return nil
}

// Patient looks up a patient by id.
func (d *Department) Patient(id string) (*Patient, error) {
	p, ok := d.patients[id]
	if !ok {
		return nil, invariant("patient", id, ErrUnknownPatient)
	}
	return p, nil
}

// Patients returns every registered patient in insertion order.
func (d *Department) Patients() []*Patient {
	out := make([]*Patient, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.patients[id])
	}
	return out
}

// ActivePatients returns patients not yet discharged or gone, in insertion order.
func (d *Department) ActivePatients() []*Patient {
	out := make([]*Patient, 0, len(d.order))
	for _, id := range d.order {
		if p := d.patients[id]; p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

// PatientsIn returns active patients in any of the given states, in insertion order.
func (d *Department) PatientsIn(states ...PatientState) []*Patient {
	want := make(map[PatientState]bool, len(states))
	for _, s := range states {
		want[s] = true
	}
	var out []*Patient
	for _, id := range d.order {
		if p := d.patients[id]; want[p.State] {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of registered patients.
func (d *Department) Len() int {
	return len(d.order)
}

// Tick returns the current logical tick.
func (d *Department) Tick() int64 {
	return d.tick
}

// MinutesPerTick returns the simulated minutes per tick.
func (d *Department) MinutesPerTick() int {
	return d.minutesPerTick
}

// Now returns the simulated instant of the current tick.
func (d *Department) Now() time.Time {
	return d.TimeAt(d.tick)
}

// TimeAt converts a tick into a simulated instant.
func (d *Department) TimeAt(tick int64) time.Time {
	return d.start.Add(time.Duration(tick) * time.Duration(d.minutesPerTick) * time.Minute)
}

// Advance moves the clock one tick forward.
func (d *Department) Advance() {
	d.tick++
}

// AdvanceTo moves the clock to tick. Moving backward is an invariant violation;
// staying on the current tick is allowed.
func (d *Department) AdvanceTo(tick int64) error {
	if tick < d.tick {
		return invariant("advance_to", fmt.Sprintf("%d->%d", d.tick, tick), ErrClockBackward)
	}
	d.tick = tick
	return nil
}
