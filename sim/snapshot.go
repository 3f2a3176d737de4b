package sim

import (
	"strings"
	"time"
)

// Field is one named numeric column of a snapshot row.
type Field struct {
	Name  string
	Value float64
}

// Snapshot is a read-only, ordered view of the department at one tick.
// Column order is stable for a given configuration, so consecutive
// snapshots form a rectangular dataset.
type Snapshot struct {
	Tick   int64
	Time   time.Time
	Fields []Field
}

// Header returns the column names, starting with tick and time.
func (s Snapshot) Header() []string {
	out := make([]string, 0, len(s.Fields)+2)
	out = append(out, "tick", "time")
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Value returns the named field, and whether it exists.
func (s Snapshot) Value(name string) (float64, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Snapshot captures the current tick. It does not mutate the department.
//
// Saturation indices:
//   - saturation_waiting: waiting-room occupancy over waiting-room capacity
//   - saturation_absorption: patients not yet placed downstream (arrived, waiting,
//     awaiting transfer) over waiting plus consultation capacity
//   - saturation_transfer: patients awaiting transfer over downstream unit beds
//   - saturation_index: waiting-room plus critical-care occupancy over waiting-room capacity
func (d *Department) Snapshot() Snapshot {
	pool := d.Resources
	now := d.Now()

	counts := make(map[PatientState]int, len(PatientStates))
	for _, p := range d.Patients() {
		counts[p.State]++
	}

	var waitOcc, waitCap, nonCompliant int
	rooms := pool.WaitingRooms()
	for _, r := range rooms {
		waitOcc += r.Occupancy
		waitCap += r.Capacity
		if WaitingRoomCompliance(r, now) != nil {
			nonCompliant++
		}
	}
	var consultCap int
	consults := pool.ConsultationRooms()
	for _, r := range consults {
		consultCap += r.Capacity
	}
	var unitBeds int
	units := pool.Units()
	for _, u := range units {
		unitBeds += u.Capacity
	}
	cc := pool.CriticalCare()

	backlog := counts[StateArrived] + counts[StateWaiting] + counts[StateAwaitingTransfer]

	fields := []Field{
		{"saturation_waiting", ratio(waitOcc, waitCap)},
		{"saturation_absorption", ratio(backlog, waitCap+consultCap)},
		{"saturation_transfer", ratio(counts[StateAwaitingTransfer], unitBeds)},
		{"saturation_index", ratio(waitOcc+cc.Occupancy, waitCap)},
	}
	for _, st := range PatientStates {
		fields = append(fields, Field{"count_" + strings.ToLower(string(st)), float64(counts[st])})
	}
	for _, r := range rooms {
		fields = append(fields,
			Field{"waiting_" + r.ID + "_occupancy", float64(r.Occupancy)},
			Field{"waiting_" + r.ID + "_staffed", boolValue(r.StaffPresent())},
		)
	}
	for _, r := range consults {
		fields = append(fields,
			Field{"consultation_" + r.ID + "_occupancy", float64(r.Occupancy)},
			Field{"consultation_" + r.ID + "_supervised", boolValue(r.SupervisorID != "")},
		)
	}
	for _, u := range units {
		fields = append(fields, Field{"unit_" + string(u.Specialty) + "_occupancy", float64(u.Occupancy)})
	}
	fields = append(fields, Field{"critical_care_occupancy", float64(cc.Occupancy)})

	onDuty := make(map[Role]int, len(Roles))
	for _, m := range pool.Staff() {
		onDuty[m.Role]++
	}
	for _, role := range Roles {
		fields = append(fields, Field{"staff_" + string(role) + "_available", boolValue(pool.HasStaffAvailable(role))})
	}
	fields = append(fields,
		Field{"staffing_sufficient", boolValue(StaffingSufficiency(onDuty[RoleDoctor], onDuty[RoleNurse], onDuty[RoleAssistant]) == nil)},
		Field{"noncompliant_waiting_rooms", float64(nonCompliant)},
	)

	return Snapshot{Tick: d.tick, Time: now, Fields: fields}
}

func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
