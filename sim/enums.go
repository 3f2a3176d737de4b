package sim

import (
	"fmt"
	"strings"
)

// Severity is the triage level assigned at arrival.
// Values are ordered: GRIS < VERT < JAUNE < ROUGE.
type Severity int

const (
	// SeverityGris marks patients that do not belong in the emergency department.
	// They are redirected outside on the first step after arrival.
	SeverityGris Severity = iota
	SeverityVert
	SeverityJaune
	// SeverityRouge is life-threatening and may bypass waiting and consultation.
	SeverityRouge
)

// Severities lists every severity from lowest to highest.
var Severities = []Severity{SeverityGris, SeverityVert, SeverityJaune, SeverityRouge}

func (s Severity) String() string {
	switch s {
	case SeverityGris:
		return "GRIS"
	case SeverityVert:
		return "VERT"
	case SeverityJaune:
		return "JAUNE"
	case SeverityRouge:
		return "ROUGE"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Rank returns the ordinal weight used in priority comparisons.
func (s Severity) Rank() int {
	return int(s)
}

// ParseSeverity parses a severity name (case-insensitive).
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "GRIS":
		return SeverityGris, nil
	case "VERT":
		return SeverityVert, nil
	case "JAUNE":
		return SeverityJaune, nil
	case "ROUGE":
		return SeverityRouge, nil
	default:
		return SeverityGris, fmt.Errorf("invalid severity %q (valid: GRIS, VERT, JAUNE, ROUGE)", name)
	}
}

// PatientState is the lifecycle state of a patient.
type PatientState string

const (
	StateArrived          PatientState = "ARRIVED"
	StateWaiting          PatientState = "WAITING"
	StateInConsultation   PatientState = "IN_CONSULTATION"
	StateInCriticalCare   PatientState = "IN_CRITICAL_CARE"
	StateAwaitingTransfer PatientState = "AWAITING_TRANSFER"
	StateInUnit           PatientState = "IN_UNIT"
	StateDischarged       PatientState = "DISCHARGED"
	StateLeft             PatientState = "LEFT"
)

// PatientStates lists every state in lifecycle order. Snapshot columns follow this order.
var PatientStates = []PatientState{
	StateArrived,
	StateWaiting,
	StateInConsultation,
	StateInCriticalCare,
	StateAwaitingTransfer,
	StateInUnit,
	StateDischarged,
	StateLeft,
}

// IsTerminal reports whether no further transition can leave this state.
func (s PatientState) IsTerminal() bool {
	return s == StateDischarged || s == StateLeft
}

// Area is the kind of physical or logical placement a patient occupies.
type Area string

const (
	AreaTriage           Area = "triage"
	AreaWaitingRoom      Area = "waiting_room"
	AreaConsultationRoom Area = "consultation_room"
	AreaCriticalCare     Area = "critical_care"
	AreaTransferQueue    Area = "transfer_queue"
	AreaOverflow         Area = "overflow"
	AreaHospitalUnit     Area = "hospital_unit"
	AreaExit             Area = "exit"
)

// Location pins a patient to an area and, for areas made of several
// resources, to the specific room or unit inside it.
type Location struct {
	Area Area
	ID   string // waiting-room id, consultation-room id or unit specialty; empty otherwise
}

func (l Location) String() string {
	if l.ID == "" {
		return string(l.Area)
	}
	return string(l.Area) + "/" + l.ID
}

// AtTriage is where every patient arrives.
func AtTriage() Location { return Location{Area: AreaTriage} }
// InWaitingRoom places a patient in the waiting room with the given id.
func InWaitingRoom(id string) Location { return Location{Area: AreaWaitingRoom, ID: id} }
// InConsultationRoom places a patient in the given consultation room.
func InConsultationRoom(id string) Location { return Location{Area: AreaConsultationRoom, ID: id} }
// AtCriticalCare is the ROUGE bay.
func AtCriticalCare() Location { return Location{Area: AreaCriticalCare} }
// InTransferQueue holds patients waiting for a unit bed.
func InTransferQueue() Location { return Location{Area: AreaTransferQueue} }
// InOverflow holds patients no waiting room could take.
func InOverflow() Location { return Location{Area: AreaOverflow} }
// InUnit places a patient in the hospital unit of specialty s.
func InUnit(s Specialty) Location { return Location{Area: AreaHospitalUnit, ID: string(s)} }
// AtExit marks a discharged or departed patient.
func AtExit() Location { return Location{Area: AreaExit} }

// Role is a staff member's job.
type Role string

const (
	RoleDoctor    Role = "doctor"
	RoleNurse     Role = "nurse"
	RoleAssistant Role = "assistant"
)

// Roles lists every role. Snapshot staff flags follow this order.
var Roles = []Role{RoleDoctor, RoleNurse, RoleAssistant}

// Specialty tags a downstream hospital unit.
type Specialty string

const (
	SpecialtyGeneral     Specialty = "general"
	SpecialtyCardiology  Specialty = "cardiology"
	SpecialtyNeurology   Specialty = "neurology"
	SpecialtyOrthopedics Specialty = "orthopedics"
	SpecialtyPediatrics  Specialty = "pediatrics"
	SpecialtyPneumology  Specialty = "pneumology"
)

// validSpecialties is the closed set of unit specialties accepted in configuration.
var validSpecialties = map[Specialty]bool{
	SpecialtyGeneral:     true,
	SpecialtyCardiology:  true,
	SpecialtyNeurology:   true,
	SpecialtyOrthopedics: true,
	SpecialtyPediatrics:  true,
	SpecialtyPneumology:  true,
}

// IsValidSpecialty returns true if name is a recognized unit specialty.
func IsValidSpecialty(name string) bool {
	return validSpecialties[Specialty(name)]
}
