package sim

import (
	"fmt"
	"time"
)

// ComplianceGrace is how long an occupied waiting room may stay without staff.
const ComplianceGrace = 15 * time.Minute

// Rule names as they appear in violation records and the decision log.
const (
	RuleMustSeeDoctorBeforeTransfer   = "must_see_doctor_before_transfer"
	RuleRoomHasCapacity               = "room_has_capacity"
	RuleRoomRequiresSupervisingDoctor = "room_requires_supervising_doctor"
	RuleUnitHasCapacity               = "unit_has_capacity"
	RuleRougeDirectCriticalCare       = "rouge_direct_critical_care"
	RuleStaffingSufficiency           = "staffing_sufficiency"
	RuleWaitingRoomCompliance         = "waiting_room_compliance"
)

// The functions below are pure: they read their arguments and never mutate.
// A nil *Violation means the rule holds.

// MustSeeDoctorBeforeTransfer blocks transfer for patients never seen in consultation.
func MustSeeDoctorBeforeTransfer(p *Patient) *Violation {
	if p.State == StateInConsultation || p.HasConsulted() {
		return nil
	}
	return &Violation{
		Rule:    RuleMustSeeDoctorBeforeTransfer,
		Message: fmt.Sprintf("patient %s cannot be transferred without prior consultation", p.ID),
	}
}

// RoomHasCapacity requires occupancy strictly below capacity.
func RoomHasCapacity(r WaitingRoom) *Violation {
	if r.Occupancy < r.Capacity {
		return nil
	}
	return &Violation{
		Rule:    RuleRoomHasCapacity,
		Message: fmt.Sprintf("waiting room %s is full (%d/%d)", r.ID, r.Occupancy, r.Capacity),
	}
}

// ConsultationRoomHasCapacity applies the room capacity rule to a consultation room.
func ConsultationRoomHasCapacity(r ConsultationRoom) *Violation {
	if r.Occupancy < r.Capacity {
		return nil
	}
	return &Violation{
		Rule:    RuleRoomHasCapacity,
		Message: fmt.Sprintf("consultation room %s is full (%d/%d)", r.ID, r.Occupancy, r.Capacity),
	}
}

// RoomRequiresSupervisingDoctor requires a doctor assigned to the consultation room.
// Independent from capacity: both gates must pass.
func RoomRequiresSupervisingDoctor(r ConsultationRoom) *Violation {
	if r.SupervisorID != "" {
		return nil
	}
	return &Violation{
		Rule:    RuleRoomRequiresSupervisingDoctor,
		Message: fmt.Sprintf("consultation room %s has no supervising doctor", r.ID),
	}
}

// UnitHasCapacity requires a free bed, per specialty.
func UnitHasCapacity(u HospitalUnit) *Violation {
	if u.Occupancy < u.Capacity {
		return nil
	}
	return &Violation{
		Rule:    RuleUnitHasCapacity,
		Message: fmt.Sprintf("unit %s has no free bed (%d/%d)", u.Specialty, u.Occupancy, u.Capacity),
	}
}

// GrisMustExit reports whether the patient must be redirected outside.
// It overrides every other rule and is evaluated first on each tick.
func GrisMustExit(p *Patient) bool {
	return p.Severity == SeverityGris && p.IsActive()
}

// RougeDirectCriticalCare allows a ROUGE patient still at arrival to enter
// critical care without waiting or consultation, bed permitting.
func RougeDirectCriticalCare(p *Patient, cc HospitalUnit) *Violation {
	if p.Severity != SeverityRouge || p.State != StateArrived {
		return &Violation{
			Rule:    RuleRougeDirectCriticalCare,
			Message: fmt.Sprintf("patient %s (%s, %s) is not eligible for direct critical care", p.ID, p.Severity, p.State),
		}
	}
	if v := UnitHasCapacity(cc); v != nil {
		return v
	}
	return nil
}

// StaffingSufficiency checks the organizational staffing rule for consultation:
// a doctor is mandatory, and a nurse or an assistant is sufficient support.
func StaffingSufficiency(doctors, nurses, assistants int) *Violation {
	if doctors < 1 {
		return &Violation{Rule: RuleStaffingSufficiency, Message: "no doctor available"}
	}
	if nurses+assistants < 1 {
		return &Violation{Rule: RuleStaffingSufficiency, Message: "no nurse or assistant available"}
	}
	return nil
}

// WaitingRoomCompliance is an audit rule: an empty room, a staffed room, or a
// room unstaffed for less than ComplianceGrace is compliant.
func WaitingRoomCompliance(r WaitingRoom, now time.Time) *Violation {
	if r.Occupancy == 0 || r.StaffPresent() {
		return nil
	}
	absence := now.Sub(r.LastStaffPresence)
	if absence < ComplianceGrace {
		return nil
	}
	return &Violation{
		Rule:    RuleWaitingRoomCompliance,
		Message: fmt.Sprintf("waiting room %s unstaffed for %s with %d patients", r.ID, absence, r.Occupancy),
	}
}
