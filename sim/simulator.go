// sim/simulator.go
package sim

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ed-sim/ed-sim/sim/stay"
	"github.com/ed-sim/ed-sim/sim/trace"
)

// ArrivalSource supplies the patients arriving during a tick.
type ArrivalSource interface {
	ArrivalsAt(tick int64, at time.Time) []*Patient
}

// Simulator holds the department, its scheduler and the per-tick dataset.
type Simulator struct {
	Dept      *Department
	Scheduler *Scheduler
	Arrivals  ArrivalSource
	Trace     *trace.DecisionLog
	// Snapshots has one row per simulated tick, in tick order.
	Snapshots []Snapshot
	Metrics   *Metrics
}

// NewSimulator builds a simulator from a validated config.
// Stay durations draw from rng's stay subsystem. arrivals may be nil for a
// closed department fed by InjectArrival; log may be nil.
func NewSimulator(cfg *Config, rng *PartitionedRNG, arrivals ArrivalSource, log *trace.DecisionLog) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	sampler, err := stay.NewSampler(rng.ForSubsystem(SubsystemStay), cfg.MinutesPerTick, cfg.Stay.Moments())
	if err != nil {
		return nil, fmt.Errorf("stay sampler: %w", err)
	}
	dept := NewDepartmentFromConfig(cfg)
	if v := StaffingSufficiency(cfg.Staff.Doctors, cfg.Staff.Nurses, cfg.Staff.Assistants); v != nil {
		logrus.Warnf("staffing: %s", v)
	}
	return &Simulator{
		Dept:      dept,
		Scheduler: NewScheduler(dept, sampler, cfg.Scheduler, Specialty(cfg.DefaultSpecialty), log),
		Arrivals:  arrivals,
		Trace:     log,
		Metrics:   NewMetrics(),
	}, nil
}

// InjectArrival registers a patient arriving at the current tick.
func (sim *Simulator) InjectArrival(p *Patient) error {
	if err := sim.Dept.AddPatient(p); err != nil {
		return err
	}
	sim.Trace.RecordTransition(trace.TransitionRecord{
		Tick:      sim.Dept.Tick(),
		At:        p.ArrivalTime,
		PatientID: p.ID,
		To:        string(p.State),
		Reason:    "arrival (" + p.Severity.String() + ")",
	})
	sim.Metrics.Arrivals[p.Severity]++
	return nil
}

// RunTick injects the tick's arrivals, steps the scheduler and records a snapshot.
// The clock is not advanced.
func (sim *Simulator) RunTick() error {
	tick := sim.Dept.Tick()
	if sim.Arrivals != nil {
		for _, p := range sim.Arrivals.ArrivalsAt(tick, sim.Dept.Now()) {
			if err := sim.InjectArrival(p); err != nil {
				return err
			}
		}
	}
	if err := sim.Scheduler.Step(); err != nil {
		return fmt.Errorf("tick %d: %w", tick, err)
	}
	snap := sim.Dept.Snapshot()
	sim.Snapshots = append(sim.Snapshots, snap)
	sim.Metrics.ObserveSnapshot(snap)
	return nil
}

// Run simulates ticks until the clock reaches horizon.
// It stops at the first invariant error and returns it. Snapshots and
// patient metrics recorded up to that point are kept.
func (sim *Simulator) Run(horizon int64) error {
	defer sim.Metrics.ObservePatients(sim.Dept)
	for sim.Dept.Tick() < horizon {
		if err := sim.RunTick(); err != nil {
			return err
		}
		if sim.Dept.Tick()%144 == 0 {
			logrus.Infof("[tick %07d] %s: %d patients registered, %d active",
				sim.Dept.Tick(), sim.Dept.Now().Format(time.RFC3339), sim.Dept.Len(), len(sim.Dept.ActivePatients()))
		}
		sim.Dept.Advance()
	}
	return nil
}
