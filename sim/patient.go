// Defines the Patient entity: identity, severity, placement and an append-only
// transition history. Legality of transitions is decided elsewhere (constraints.go,
// scheduler.go); the entity only records them.

package sim

import (
	"time"
)

// priorityWeight separates severity bands in PriorityScore. One severity rank
// outweighs roughly two years of waiting.
const priorityWeight = 1_000_000.0

// Transition is one entry of a patient's history.
type Transition struct {
	At     time.Time
	From   PatientState // empty for the arrival record
	To     PatientState
	Reason string
}

// Patient models a single patient's journey through the department.
type Patient struct {
	ID          string
	Severity    Severity
	ArrivalTick int64
	ArrivalTime time.Time

	// RequiredSpecialty is the downstream unit the patient needs.
	// Nil means no specialty unit: the department's default unit receives them.
	RequiredSpecialty *Specialty

	State    PatientState
	Location Location

	// HeldWaitingRoom is the waiting room whose slot the patient still occupies
	// while awaiting transfer; empty otherwise.
	HeldWaitingRoom string

	admitted      bool
	admissionTick int64
	stayTicks     int64
	history       []Transition
}

// NewPatient creates a patient in ARRIVED state at triage.
// The arrival is recorded as the first history entry.
func NewPatient(id string, severity Severity, arrivalTick int64, arrivalTime time.Time) *Patient {
	p := &Patient{
		ID:          id,
		Severity:    severity,
		ArrivalTick: arrivalTick,
		ArrivalTime: arrivalTime,
		State:       StateArrived,
		Location:    AtTriage(),
	}
	p.history = append(p.history, Transition{At: arrivalTime, To: StateArrived, Reason: "arrival"})
	return p
}

// WithSpecialty sets the required downstream specialty and returns p.
func (p *Patient) WithSpecialty(s Specialty) *Patient {
	p.RequiredSpecialty = &s
	return p
}

// TransitionTo moves the patient and records why. It performs no legality check.
func (p *Patient) TransitionTo(state PatientState, loc Location, now time.Time, reason string) {
	old := p.State
	p.State = state
	p.Location = loc
	p.history = append(p.history, Transition{At: now, From: old, To: state, Reason: reason})
}

// History returns a copy of the transition history.
func (p *Patient) History() []Transition {
	out := make([]Transition, len(p.history))
	copy(out, p.history)
	return out
}

// HasConsulted reports whether the patient has ever entered consultation.
func (p *Patient) HasConsulted() bool {
	for _, t := range p.history {
		if t.To == StateInConsultation {
			return true
		}
	}
	return false
}

// IsActive is false once the patient has been discharged or has left.
func (p *Patient) IsActive() bool {
	return !p.State.IsTerminal()
}

// WaitingTimeMinutes returns minutes elapsed since arrival.
func (p *Patient) WaitingTimeMinutes(now time.Time) float64 {
	d := now.Sub(p.ArrivalTime).Minutes()
	if d < 0 {
		return 0
	}
	return d
}

// PriorityScore orders patients by severity first, then waiting time.
// Only meaningful for comparisons within a single run.
func (p *Patient) PriorityScore(now time.Time) float64 {
	return float64(p.Severity.Rank())*priorityWeight + p.WaitingTimeMinutes(now)
}

// RecordAdmission stores the admission tick and sampled stay duration.
// A patient's stay is recorded exactly once.
func (p *Patient) RecordAdmission(tick, stayTicks int64) error {
	if p.admitted {
		return invariant("record_admission", p.ID, ErrAlreadyAdmitted)
	}
	p.admitted = true
	p.admissionTick = tick
	p.stayTicks = stayTicks
	return nil
}

// Stay returns the admission tick and stay duration, and whether they are set.
func (p *Patient) Stay() (admissionTick, stayTicks int64, ok bool) {
	return p.admissionTick, p.stayTicks, p.admitted
}

// StayElapsed reports whether the recorded stay is over at tick.
func (p *Patient) StayElapsed(tick int64) bool {
	return p.admitted && tick-p.admissionTick >= p.stayTicks
}
