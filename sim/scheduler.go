package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ed-sim/ed-sim/sim/stay"
	"github.com/ed-sim/ed-sim/sim/trace"
)

// ProgressionPolicy decides how many patients phase 3 advances per tick.
type ProgressionPolicy string

const (
	// ProgressSingle advances exactly one patient: the highest-ranked one that can move.
	ProgressSingle ProgressionPolicy = "single"
	// ProgressAll gives every eligible patient one advance attempt, in priority order.
	ProgressAll ProgressionPolicy = "all"
)

// ComplianceMode decides whether waiting-room staffing compliance gates admission.
type ComplianceMode string

const (
	// ComplianceAdvisory only reports non-compliant rooms.
	ComplianceAdvisory ComplianceMode = "advisory"
	// ComplianceStrict refuses new patients in a non-compliant waiting room.
	ComplianceStrict ComplianceMode = "strict"
)

// DecisionMode decides who chooses between transfer and discharge after consultation.
type DecisionMode string

const (
	// DecideBySeverity applies the baseline rule: ROUGE and JAUNE await transfer, VERT leaves.
	DecideBySeverity DecisionMode = "severity"
	// DecideExternally leaves consulted patients in place until DecideAfterConsultation is called.
	DecideExternally DecisionMode = "external"
)

var (
	validProgressionPolicies = map[ProgressionPolicy]bool{"": true, ProgressSingle: true, ProgressAll: true}
	validComplianceModes     = map[ComplianceMode]bool{"": true, ComplianceAdvisory: true, ComplianceStrict: true}
	validDecisionModes       = map[DecisionMode]bool{"": true, DecideBySeverity: true, DecideExternally: true}
)

// SchedulerConfig selects the scheduler's policies. Empty strings select defaults.
type SchedulerConfig struct {
	Progression ProgressionPolicy `yaml:"progression"`
	Compliance  ComplianceMode    `yaml:"compliance"`
	Decisions   DecisionMode      `yaml:"decisions"`
}

// Validate rejects unknown policy names.
func (c SchedulerConfig) Validate() error {
	if !validProgressionPolicies[c.Progression] {
		return fmt.Errorf("unknown progression policy %q", c.Progression)
	}
	if !validComplianceModes[c.Compliance] {
		return fmt.Errorf("unknown compliance mode %q", c.Compliance)
	}
	if !validDecisionModes[c.Decisions] {
		return fmt.Errorf("unknown decision mode %q", c.Decisions)
	}
	return nil
}

// StaySampler draws a length of stay, in ticks, for a bed category.
type StaySampler interface {
	Sample(cat stay.Category) int64
}

// Scheduler drives the patient state machine, one tick per Step.
// It is the only component that decides transitions; it asks the constraint
// predicates first and then mutates the resource pool and the patient.
type Scheduler struct {
	dept  *Department
	stays StaySampler
	log   *trace.DecisionLog

	progression      ProgressionPolicy
	compliance       ComplianceMode
	decisions        DecisionMode
	defaultSpecialty Specialty

	breached map[string]bool // waiting rooms currently out of compliance
}

// NewScheduler creates a scheduler bound to dept.
// defaultSpecialty receives patients without a required specialty.
// log may be nil. Panics on unknown policy names.
func NewScheduler(dept *Department, stays StaySampler, cfg SchedulerConfig, defaultSpecialty Specialty, log *trace.DecisionLog) *Scheduler {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewScheduler: %v", err))
	}
	if dept == nil || stays == nil {
		panic("NewScheduler: department and stay sampler must not be nil")
	}
	s := &Scheduler{
		dept:             dept,
		stays:            stays,
		log:              log,
		progression:      cfg.Progression,
		compliance:       cfg.Compliance,
		decisions:        cfg.Decisions,
		defaultSpecialty: defaultSpecialty,
		breached:         make(map[string]bool),
	}
	if s.progression == "" {
		s.progression = ProgressSingle
	}
	if s.compliance == "" {
		s.compliance = ComplianceAdvisory
	}
	if s.decisions == "" {
		s.decisions = DecideBySeverity
	}
	return s
}

// Step runs one tick. Phases run in a fixed order and later phases see the
// effects of earlier ones:
//  1. GRIS redirection
//  2. arrival triage
//  3. priority-ordered progression
//  4. transfer resolution
//  5. discharge sweep
//
// followed by staff rounds in the waiting rooms.
//
// Blocked transitions are not errors. A returned error is always an
// InvariantError and means the department state can no longer be trusted.
func (s *Scheduler) Step() error {
	if err := s.redirectGris(); err != nil {
		return err
	}
	if err := s.triageArrivals(); err != nil {
		return err
	}
	if err := s.progress(); err != nil {
		return err
	}
	if err := s.resolveTransfers(); err != nil {
		return err
	}
	if err := s.dischargeSweep(); err != nil {
		return err
	}
	return s.staffRounds()
}

// DecideAfterConsultation applies an external post-consultation decision.
// It returns a Violation if the patient is not in consultation.
func (s *Scheduler) DecideAfterConsultation(patientID string, requiresHospitalization bool) (*Violation, error) {
	p, err := s.dept.Patient(patientID)
	if err != nil {
		return nil, err
	}
	if p.State != StateInConsultation {
		return &Violation{
			Rule:    "post_consultation_decision",
			Message: fmt.Sprintf("patient %s is %s, not in consultation", p.ID, p.State),
		}, nil
	}
	reason := "external decision: discharge"
	if requiresHospitalization {
		reason = "external decision: hospitalization required"
	}
	return nil, s.endConsultation(p, requiresHospitalization, reason)
}

// === Phase 1 ===

func (s *Scheduler) redirectGris() error {
	for _, p := range s.dept.ActivePatients() {
		if !GrisMustExit(p) {
			continue
		}
		if err := s.vacate(p); err != nil {
			return err
		}
		s.move(p, StateLeft, AtExit(), "GRIS severity: redirected outside emergency department")
	}
	return nil
}

// === Phase 2 ===

func (s *Scheduler) triageArrivals() error {
	pool := s.dept.Resources
	for _, p := range s.prioritized(s.dept.PatientsIn(StateArrived)) {
		if p.Severity == SeverityGris {
			continue
		}

		if p.Severity == SeverityRouge {
			v := RougeDirectCriticalCare(p, pool.CriticalCare())
			if v == nil {
				if err := s.admitCriticalCare(p); err != nil {
					return err
				}
				continue
			}
			s.blocked(p.ID, v)
		}

		roomID, v, err := s.acquireConsultationRoom()
		if err != nil {
			return err
		}
		if v == nil {
			if err := pool.AdmitToConsultation(roomID); err != nil {
				return err
			}
			s.move(p, StateInConsultation, InConsultationRoom(roomID), "direct consultation in room "+roomID)
			continue
		}
		s.blocked(p.ID, v)

		waitID, v := s.selectWaitingRoom()
		if v == nil {
			if err := pool.AdmitToRoom(waitID); err != nil {
				return err
			}
			s.move(p, StateWaiting, InWaitingRoom(waitID), "placed in waiting room "+waitID)
			continue
		}
		s.blocked(p.ID, v)
		s.move(p, StateAwaitingTransfer, InOverflow(), "no waiting-room capacity: external overflow")
	}
	return nil
}

func (s *Scheduler) admitCriticalCare(p *Patient) error {
	if err := s.dept.Resources.AdmitToCriticalCare(); err != nil {
		return err
	}
	ticks := s.stays.Sample(stay.CriticalCare)
	if err := p.RecordAdmission(s.dept.Tick(), ticks); err != nil {
		return err
	}
	s.move(p, StateInCriticalCare, AtCriticalCare(),
		fmt.Sprintf("ROUGE: direct admission to critical care (stay %d ticks)", ticks))
	return nil
}

// === Phase 3 ===

func (s *Scheduler) progress() error {
	candidates := s.dept.PatientsIn(StateWaiting, StateInConsultation, StateAwaitingTransfer)
	for _, p := range s.prioritized(candidates) {
		if p.Severity == SeverityGris {
			continue
		}
		advanced, err := s.advance(p)
		if err != nil {
			return err
		}
		if advanced && s.progression == ProgressSingle {
			return nil
		}
	}
	return nil
}

// advance attempts one forward transition for p.
func (s *Scheduler) advance(p *Patient) (bool, error) {
	switch p.State {
	case StateWaiting:
		return s.tryConsultation(p)
	case StateInConsultation:
		if s.decisions == DecideExternally {
			return false, nil
		}
		requires := p.Severity == SeverityRouge || p.Severity == SeverityJaune
		reason := "post-consultation: discharged (" + p.Severity.String() + ")"
		if requires {
			reason = "post-consultation: transfer required (" + p.Severity.String() + ")"
		}
		return true, s.endConsultation(p, requires, reason)
	case StateAwaitingTransfer:
		if p.Location.Area == AreaOverflow && !p.HasConsulted() {
			return s.tryLeaveOverflow(p)
		}
		return s.tryTransfer(p)
	}
	return false, nil
}

func (s *Scheduler) tryConsultation(p *Patient) (bool, error) {
	pool := s.dept.Resources
	roomID, v, err := s.acquireConsultationRoom()
	if err != nil {
		return false, err
	}
	if v != nil {
		s.blocked(p.ID, v)
		return false, nil
	}
	if err := s.vacate(p); err != nil {
		return false, err
	}
	if err := pool.AdmitToConsultation(roomID); err != nil {
		return false, err
	}
	s.move(p, StateInConsultation, InConsultationRoom(roomID), "assigned to consultation room "+roomID)
	return true, nil
}

// endConsultation frees the consultation room and branches to transfer or discharge.
// A patient awaiting transfer goes back to a waiting-room place when one is free.
func (s *Scheduler) endConsultation(p *Patient, requiresHospitalization bool, reason string) error {
	if err := s.vacate(p); err != nil {
		return err
	}
	if !requiresHospitalization {
		s.move(p, StateDischarged, AtExit(), reason)
		return nil
	}
	if roomID, v := s.selectWaitingRoom(); v == nil {
		if err := s.dept.Resources.AdmitToRoom(roomID); err != nil {
			return err
		}
		p.HeldWaitingRoom = roomID
		reason += ", boarding in waiting room " + roomID
	}
	s.move(p, StateAwaitingTransfer, InTransferQueue(), reason)
	return nil
}

func (s *Scheduler) tryLeaveOverflow(p *Patient) (bool, error) {
	roomID, v := s.selectWaitingRoom()
	if v != nil {
		s.blocked(p.ID, v)
		return false, nil
	}
	if err := s.dept.Resources.AdmitToRoom(roomID); err != nil {
		return false, err
	}
	s.move(p, StateWaiting, InWaitingRoom(roomID), "overflow: placed in waiting room "+roomID)
	return true, nil
}

// === Phase 4 ===

func (s *Scheduler) resolveTransfers() error {
	for _, p := range s.prioritized(s.dept.PatientsIn(StateAwaitingTransfer)) {
		if p.Severity == SeverityGris {
			continue
		}
		if _, err := s.tryTransfer(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) tryTransfer(p *Patient) (bool, error) {
	if v := MustSeeDoctorBeforeTransfer(p); v != nil {
		s.blocked(p.ID, v)
		return false, nil
	}
	pool := s.dept.Resources
	spec := s.targetSpecialty(p)
	unit, ok := pool.Unit(spec)
	if !ok {
		s.blocked(p.ID, &Violation{Rule: RuleUnitHasCapacity, Message: fmt.Sprintf("no %s unit in this hospital", spec)})
		return false, nil
	}
	if v := UnitHasCapacity(unit); v != nil {
		s.blocked(p.ID, v)
		return false, nil
	}
	if err := s.vacate(p); err != nil {
		return false, err
	}
	if err := pool.AdmitToUnit(spec); err != nil {
		return false, err
	}
	ticks := s.stays.Sample(stay.Unit)
	if err := p.RecordAdmission(s.dept.Tick(), ticks); err != nil {
		return false, err
	}
	s.move(p, StateInUnit, InUnit(spec), fmt.Sprintf("transferred to %s unit (stay %d ticks)", spec, ticks))
	return true, nil
}

func (s *Scheduler) targetSpecialty(p *Patient) Specialty {
	if p.RequiredSpecialty != nil {
		return *p.RequiredSpecialty
	}
	return s.defaultSpecialty
}

// === Phase 5 ===

func (s *Scheduler) dischargeSweep() error {
	tick := s.dept.Tick()
	for _, p := range s.dept.PatientsIn(StateInUnit, StateInCriticalCare) {
		if !p.StayElapsed(tick) {
			continue
		}
		_, stayTicks, _ := p.Stay()
		if err := s.vacate(p); err != nil {
			return err
		}
		s.move(p, StateDischarged, AtExit(), fmt.Sprintf("stay of %d ticks elapsed", stayTicks))
	}
	return nil
}

// === Staff rounds ===

// staffRounds sends free support staff to occupied, unstaffed waiting rooms and
// recalls staff from empty ones, then audits compliance.
func (s *Scheduler) staffRounds() error {
	pool := s.dept.Resources
	now := s.dept.Now()
	for _, r := range pool.WaitingRooms() {
		switch {
		case r.Occupancy > 0 && !r.StaffPresent() && pool.HasSupportStaffAvailable():
			if _, err := pool.StaffWaitingRoom(r.ID, now); err != nil {
				return err
			}
		case r.Occupancy == 0 && r.StaffPresent():
			if err := pool.UnstaffWaitingRoom(r.ID, now); err != nil {
				return err
			}
		}
	}
	pool.RefreshPresence(now)

	for _, r := range pool.WaitingRooms() {
		v := WaitingRoomCompliance(r, now)
		if v == nil {
			delete(s.breached, r.ID)
			continue
		}
		if !s.breached[r.ID] {
			s.breached[r.ID] = true
			logrus.Warnf("[tick %07d] waiting room %s out of compliance: %s", s.dept.Tick(), r.ID, v.Message)
		}
		s.log.RecordViolation(trace.ViolationRecord{
			Tick: s.dept.Tick(), At: now, Subject: r.ID, Rule: v.Rule, Message: v.Message, Advisory: true,
		})
	}
	return nil
}

// === Shared helpers ===

// prioritized sorts patients in place by severity (desc), waiting time (desc),
// then arrival tick and id for determinism.
func (s *Scheduler) prioritized(ps []*Patient) []*Patient {
	now := s.dept.Now()
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		wa, wb := a.WaitingTimeMinutes(now), b.WaitingTimeMinutes(now)
		if wa != wb {
			return wa > wb
		}
		if a.ArrivalTick != b.ArrivalTick {
			return a.ArrivalTick < b.ArrivalTick
		}
		return a.ID < b.ID
	})
	return ps
}

// acquireConsultationRoom returns a supervised consultation room with a free place.
// When none exists it calls a free doctor in to an unsupervised room; the
// doctor stays on call until that room empties.
func (s *Scheduler) acquireConsultationRoom() (string, *Violation, error) {
	pool := s.dept.Resources
	rooms := pool.ConsultationRooms()
	var last *Violation
	for _, r := range rooms {
		if v := ConsultationRoomHasCapacity(r); v != nil {
			last = v
			continue
		}
		if v := RoomRequiresSupervisingDoctor(r); v != nil {
			last = v
			continue
		}
		return r.ID, nil, nil
	}
	if !pool.HasStaffAvailable(RoleDoctor) {
		if last == nil {
			last = &Violation{Rule: RuleRoomRequiresSupervisingDoctor, Message: "no consultation room configured"}
		}
		return "", last, nil
	}
	for _, r := range rooms {
		if r.SupervisorID == "" && ConsultationRoomHasCapacity(r) == nil {
			doc, err := pool.AssignOnCallSupervisor(r.ID)
			if err != nil {
				return "", nil, err
			}
			logrus.Infof("[tick %07d] doctor %s now supervises consultation room %s", s.dept.Tick(), doc.ID, r.ID)
			return r.ID, nil, nil
		}
	}
	return "", last, nil
}

// selectWaitingRoom returns the first waiting room, in fallback order, that can take a patient.
func (s *Scheduler) selectWaitingRoom() (string, *Violation) {
	now := s.dept.Now()
	var last *Violation
	for _, r := range s.dept.Resources.WaitingRooms() {
		if v := RoomHasCapacity(r); v != nil {
			last = v
			continue
		}
		if s.compliance == ComplianceStrict {
			if v := WaitingRoomCompliance(r, now); v != nil {
				last = v
				continue
			}
		}
		return r.ID, nil
	}
	if last == nil {
		last = &Violation{Rule: RuleRoomHasCapacity, Message: "no waiting room configured"}
	}
	return "", last
}

// vacate releases every resource p currently holds.
func (s *Scheduler) vacate(p *Patient) error {
	pool := s.dept.Resources
	if p.HeldWaitingRoom != "" {
		if err := pool.ReleaseFromRoom(p.HeldWaitingRoom); err != nil {
			return err
		}
		p.HeldWaitingRoom = ""
	}
	loc := p.Location
	switch loc.Area {
	case AreaWaitingRoom:
		if loc.ID != "" {
			return pool.ReleaseFromRoom(loc.ID)
		}
	case AreaConsultationRoom:
		if loc.ID != "" {
			return pool.ReleaseFromConsultation(loc.ID)
		}
	case AreaHospitalUnit:
		if loc.ID != "" {
			return pool.ReleaseFromUnit(Specialty(loc.ID))
		}
	case AreaCriticalCare:
		return pool.ReleaseFromCriticalCare()
	}
	return nil
}

// move applies a transition and records it.
func (s *Scheduler) move(p *Patient, state PatientState, loc Location, reason string) {
	now := s.dept.Now()
	from := p.State
	p.TransitionTo(state, loc, now, reason)
	logrus.Infof("[tick %07d] %s (%s): %s -> %s at %s | %s", s.dept.Tick(), p.ID, p.Severity, from, state, loc, reason)
	s.log.RecordTransition(trace.TransitionRecord{
		Tick:      s.dept.Tick(),
		At:        now,
		PatientID: p.ID,
		From:      string(from),
		To:        string(state),
		Reason:    reason,
	})
}

// blocked records a transition attempt refused by a business rule.
func (s *Scheduler) blocked(subject string, v *Violation) {
	logrus.Debugf("[tick %07d] %s blocked by %s", s.dept.Tick(), subject, v)
	s.log.RecordViolation(trace.ViolationRecord{
		Tick:    s.dept.Tick(),
		At:      s.dept.Now(),
		Subject: subject,
		Rule:    v.Rule,
		Message: v.Message,
	})
}
