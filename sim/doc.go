// Package sim provides the tick-driven patient-flow engine of the emergency
// department simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - patient.go: Patient lifecycle (ARRIVED → … → DISCHARGED/LEFT) and its audit history
//   - scheduler.go: The five per-tick phases and the end-of-tick staff rounds
//   - simulator.go: The tick loop, arrival injection and snapshot capture
//
// # Architecture
//
// The sim package owns the domain types and the scheduler; supporting code
// lives in sub-packages:
//   - sim/stay/: Log-normal length-of-stay sampling for units and critical care
//   - sim/workload/: Arrival generation (Poisson, constant) and CSV replay
//   - sim/trace/: Transition and blocked-attempt recording
//   - sim/dataset/: Per-tick snapshot export (CSV, XLSX)
//
// Resources (rooms, units, critical care, staff) live in a ResourcePool owned
// by the Department. Business rules are pure predicates in constraints.go that
// return a *Violation when a move is refused; the Scheduler consults them
// before mutating anything. A refused move is never an error. Broken
// bookkeeping is: it surfaces as an *InvariantError and stops the run.
//
// # Key Interfaces
//
//   - ArrivalSource: supplies the patients arriving during a tick
//   - StaySampler: draws a length of stay, in ticks, for a bed category
package sim
