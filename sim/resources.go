// Implements the ResourcePool: staff, waiting rooms, consultation rooms,
// downstream hospital units and the critical-care block.
// Occupancy and assignment change only through the pool's own methods;
// accessors hand out copies.

package sim

import (
	"fmt"
	"sort"
	"time"
)

// SpecialtyCriticalCare tags the critical-care block. It is not a transfer target.
const SpecialtyCriticalCare Specialty = "critical_care"

// StaffMember is a doctor, nurse or assistant. A member serves one target at a time.
type StaffMember struct {
	ID         string
	Role       Role
	Available  bool
	AssignedTo string // room id or task id; empty when available
}

// WaitingRoom is a waiting area with a strict number of places.
type WaitingRoom struct {
	ID        string
	Capacity  int
	Occupancy int

	StaffID           string    // support staff currently present, empty if none
	LastStaffPresence time.Time // last instant staff was present

	Admits   int
	Releases int
}

// StaffPresent reports whether support staff is in the room.
func (r WaitingRoom) StaffPresent() bool { return r.StaffID != "" }

// ConsultationRoom holds patients being seen. It is usable only with a supervising doctor.
type ConsultationRoom struct {
	ID           string
	Capacity     int
	Occupancy    int
	SupervisorID string
	OnCall       bool // supervisor leaves when the room empties

	Admits   int
	Releases int
}

// HospitalUnit is a downstream unit (or the critical-care block) with fixed beds.
type HospitalUnit struct {
	Specialty Specialty
	Capacity  int
	Occupancy int

	Admits   int
	Releases int
}

// ResourcePool owns every shared resource of the department.
// Thread-safety: NOT thread-safe. A pool belongs to one simulation.
type ResourcePool struct {
	staff      map[string]*StaffMember
	staffOrder []string

	waitingRooms map[string]*WaitingRoom
	waitingOrder []string // placement fallback order

	consultRooms map[string]*ConsultationRoom
	consultOrder []string

	units     map[Specialty]*HospitalUnit
	unitOrder []Specialty

	criticalCare *HospitalUnit
}

// NewResourcePool returns an empty pool. Populate it with the Add* methods.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{
		staff:        make(map[string]*StaffMember),
		waitingRooms: make(map[string]*WaitingRoom),
		consultRooms: make(map[string]*ConsultationRoom),
		units:        make(map[Specialty]*HospitalUnit),
		criticalCare: &HospitalUnit{Specialty: SpecialtyCriticalCare},
	}
}

// === Setup ===
// Setup methods panic on malformed input: they run once, from validated configuration.

// AddStaff registers an available staff member.
func (rp *ResourcePool) AddStaff(id string, role Role) {
	if _, ok := rp.staff[id]; ok {
		panic(fmt.Sprintf("AddStaff: duplicate staff id %q", id))
	}
	rp.staff[id] = &StaffMember{ID: id, Role: role, Available: true}
	rp.staffOrder = append(rp.staffOrder, id)
}

// AddWaitingRoom registers a waiting room at the end of the fallback order.
func (rp *ResourcePool) AddWaitingRoom(id string, capacity int) {
	if capacity <= 0 {
		panic(fmt.Sprintf("AddWaitingRoom: capacity must be > 0, got %d", capacity))
	}
	if _, ok := rp.waitingRooms[id]; ok {
		panic(fmt.Sprintf("AddWaitingRoom: duplicate room id %q", id))
	}
	rp.waitingRooms[id] = &WaitingRoom{ID: id, Capacity: capacity}
	rp.waitingOrder = append(rp.waitingOrder, id)
}

// SetWaitingOrder replaces the placement fallback order. It must be a
// permutation of the registered waiting rooms.
func (rp *ResourcePool) SetWaitingOrder(order []string) {
	if len(order) != len(rp.waitingRooms) {
		panic(fmt.Sprintf("SetWaitingOrder: got %d rooms, want %d", len(order), len(rp.waitingRooms)))
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if _, ok := rp.waitingRooms[id]; !ok || seen[id] {
			panic(fmt.Sprintf("SetWaitingOrder: invalid or repeated room %q", id))
		}
		seen[id] = true
	}
	rp.waitingOrder = append([]string(nil), order...)
}

// SortWaitingOrderByCapacity orders waiting rooms smallest first, ties by id.
func (rp *ResourcePool) SortWaitingOrderByCapacity() {
	sort.SliceStable(rp.waitingOrder, func(i, j int) bool {
		ci := rp.waitingRooms[rp.waitingOrder[i]].Capacity
		cj := rp.waitingRooms[rp.waitingOrder[j]].Capacity
		if ci != cj {
			return ci < cj
		}
		return rp.waitingOrder[i] < rp.waitingOrder[j]
	})
}

// AddConsultationRoom registers an unsupervised consultation room.
func (rp *ResourcePool) AddConsultationRoom(id string, capacity int) {
	if capacity <= 0 {
		panic(fmt.Sprintf("AddConsultationRoom: capacity must be > 0, got %d", capacity))
	}
	if _, ok := rp.consultRooms[id]; ok {
		panic(fmt.Sprintf("AddConsultationRoom: duplicate room id %q", id))
	}
	rp.consultRooms[id] = &ConsultationRoom{ID: id, Capacity: capacity}
	rp.consultOrder = append(rp.consultOrder, id)
}

// AddUnit registers a downstream hospital unit.
func (rp *ResourcePool) AddUnit(s Specialty, beds int) {
	if s == SpecialtyCriticalCare {
		panic("AddUnit: critical care is configured with SetCriticalCareBeds")
	}
	if beds <= 0 {
		panic(fmt.Sprintf("AddUnit: beds must be > 0, got %d", beds))
	}
	if _, ok := rp.units[s]; ok {
		panic(fmt.Sprintf("AddUnit: duplicate specialty %q", s))
	}
	rp.units[s] = &HospitalUnit{Specialty: s, Capacity: beds}
	rp.unitOrder = append(rp.unitOrder, s)
}

// SetCriticalCareBeds sets the critical-care capacity. Zero disables direct admission.
func (rp *ResourcePool) SetCriticalCareBeds(beds int) {
	if beds < 0 {
		panic(fmt.Sprintf("SetCriticalCareBeds: beds must be >= 0, got %d", beds))
	}
	if rp.criticalCare.Occupancy > beds {
		panic(fmt.Sprintf("SetCriticalCareBeds: %d beds below occupancy %d", beds, rp.criticalCare.Occupancy))
	}
	rp.criticalCare.Capacity = beds
}

// ResetPresence marks every waiting room as last staffed at t.
// Called once when the department opens so the compliance grace window starts there.
func (rp *ResourcePool) ResetPresence(t time.Time) {
	for _, r := range rp.waitingRooms {
		r.LastStaffPresence = t
	}
}

// === Staff ===

// HasStaffAvailable reports whether any member of role is free.
func (rp *ResourcePool) HasStaffAvailable(role Role) bool {
	return rp.firstAvailable(role) != nil
}

func (rp *ResourcePool) firstAvailable(role Role) *StaffMember {
	for _, id := range rp.staffOrder {
		s := rp.staff[id]
		if s.Role == role && s.Available {
			return s
		}
	}
	return nil
}

// AssignStaff assigns the first free member of role to target.
func (rp *ResourcePool) AssignStaff(role Role, target string) (StaffMember, error) {
	s := rp.firstAvailable(role)
	if s == nil {
		return StaffMember{}, invariant("assign_staff", string(role), ErrNoStaffAvailable)
	}
	s.Available = false
	s.AssignedTo = target
	return *s, nil
}

// AssignSupportStaff assigns a nurse to target, or an assistant when no nurse is free.
// Assistants are an accepted substitute, never the first choice.
func (rp *ResourcePool) AssignSupportStaff(target string) (StaffMember, error) {
	if rp.HasStaffAvailable(RoleNurse) {
		return rp.AssignStaff(RoleNurse, target)
	}
	if rp.HasStaffAvailable(RoleAssistant) {
		return rp.AssignStaff(RoleAssistant, target)
	}
	return StaffMember{}, invariant("assign_support_staff", target, ErrNoStaffAvailable)
}

// HasSupportStaffAvailable reports whether a nurse or an assistant is free.
func (rp *ResourcePool) HasSupportStaffAvailable() bool {
	return rp.HasStaffAvailable(RoleNurse) || rp.HasStaffAvailable(RoleAssistant)
}

// ReleaseStaff frees an assigned member.
// Room staff must leave through ReleaseSupervisor or UnstaffWaitingRoom so the
// room does not keep pointing at a member who serves elsewhere.
func (rp *ResourcePool) ReleaseStaff(id string) error {
	s, ok := rp.staff[id]
	if !ok {
		return invariant("release_staff", id, ErrUnknownStaff)
	}
	if r, ok := rp.consultRooms[s.AssignedTo]; ok && r.SupervisorID == id {
		return invariant("release_staff", id, ErrStaffAlreadyAssigned)
	}
	if r, ok := rp.waitingRooms[s.AssignedTo]; ok && r.StaffID == id {
		return invariant("release_staff", id, ErrStaffAlreadyAssigned)
	}
	return rp.releaseStaff(id)
}

func (rp *ResourcePool) releaseStaff(id string) error {
	s, ok := rp.staff[id]
	if !ok {
		return invariant("release_staff", id, ErrUnknownStaff)
	}
	if s.Available {
		return invariant("release_staff", id, ErrStaffNotAssigned)
	}
	s.Available = true
	s.AssignedTo = ""
	return nil
}

// Staff returns copies of all staff members in registration order.
func (rp *ResourcePool) Staff() []StaffMember {
	out := make([]StaffMember, 0, len(rp.staffOrder))
	for _, id := range rp.staffOrder {
		out = append(out, *rp.staff[id])
	}
	return out
}

// === Waiting rooms ===

// RoomAvailable reports whether the waiting room has a free place.
// Unknown rooms are never available.
func (rp *ResourcePool) RoomAvailable(id string) bool {
	r, ok := rp.waitingRooms[id]
	return ok && RoomHasCapacity(*r) == nil
}

// AdmitToRoom takes one place in a waiting room.
func (rp *ResourcePool) AdmitToRoom(id string) error {
	r, ok := rp.waitingRooms[id]
	if !ok {
		return invariant("admit_to_room", id, ErrUnknownRoom)
	}
	if r.Occupancy >= r.Capacity {
		return invariant("admit_to_room", id, ErrRoomSaturated)
	}
	r.Occupancy++
	r.Admits++
	return nil
}

// ReleaseFromRoom frees one place in a waiting room.
func (rp *ResourcePool) ReleaseFromRoom(id string) error {
	r, ok := rp.waitingRooms[id]
	if !ok {
		return invariant("release_from_room", id, ErrUnknownRoom)
	}
	if r.Occupancy <= 0 {
		return invariant("release_from_room", id, ErrReleaseEmpty)
	}
	r.Occupancy--
	r.Releases++
	return nil
}

// WaitingRoom returns a copy of the named waiting room.
func (rp *ResourcePool) WaitingRoom(id string) (WaitingRoom, bool) {
	r, ok := rp.waitingRooms[id]
	if !ok {
		return WaitingRoom{}, false
	}
	return *r, true
}

// WaitingRooms returns copies of all waiting rooms in fallback order.
func (rp *ResourcePool) WaitingRooms() []WaitingRoom {
	out := make([]WaitingRoom, 0, len(rp.waitingOrder))
	for _, id := range rp.waitingOrder {
		out = append(out, *rp.waitingRooms[id])
	}
	return out
}

// StaffWaitingRoom places support staff in a waiting room.
func (rp *ResourcePool) StaffWaitingRoom(id string, now time.Time) (StaffMember, error) {
	r, ok := rp.waitingRooms[id]
	if !ok {
		return StaffMember{}, invariant("staff_waiting_room", id, ErrUnknownRoom)
	}
	if r.StaffID != "" {
		return StaffMember{}, invariant("staff_waiting_room", id, ErrStaffAlreadyAssigned)
	}
	s, err := rp.AssignSupportStaff(id)
	if err != nil {
		return StaffMember{}, err
	}
	r.StaffID = s.ID
	r.LastStaffPresence = now
	return s, nil
}

// UnstaffWaitingRoom sends the room's support staff back to the pool.
func (rp *ResourcePool) UnstaffWaitingRoom(id string, now time.Time) error {
	r, ok := rp.waitingRooms[id]
	if !ok {
		return invariant("unstaff_waiting_room", id, ErrUnknownRoom)
	}
	if r.StaffID == "" {
		return invariant("unstaff_waiting_room", id, ErrStaffNotAssigned)
	}
	if err := rp.releaseStaff(r.StaffID); err != nil {
		return err
	}
	r.StaffID = ""
	r.LastStaffPresence = now
	return nil
}

// RefreshPresence stamps now on every staffed waiting room.
func (rp *ResourcePool) RefreshPresence(now time.Time) {
	for _, r := range rp.waitingRooms {
		if r.StaffID != "" {
			r.LastStaffPresence = now
		}
	}
}

// === Consultation rooms ===

// ConsultationRoomAvailable reports whether the room is supervised and has a free place.
func (rp *ResourcePool) ConsultationRoomAvailable(id string) bool {
	r, ok := rp.consultRooms[id]
	if !ok {
		return false
	}
	return RoomRequiresSupervisingDoctor(*r) == nil && ConsultationRoomHasCapacity(*r) == nil
}

// AssignSupervisor assigns a free doctor to supervise a consultation room.
func (rp *ResourcePool) AssignSupervisor(roomID string) (StaffMember, error) {
	r, ok := rp.consultRooms[roomID]
	if !ok {
		return StaffMember{}, invariant("assign_supervisor", roomID, ErrUnknownRoom)
	}
	if r.SupervisorID != "" {
		return StaffMember{}, invariant("assign_supervisor", roomID, ErrStaffAlreadyAssigned)
	}
	doc, err := rp.AssignStaff(RoleDoctor, roomID)
	if err != nil {
		return StaffMember{}, err
	}
	r.SupervisorID = doc.ID
	return doc, nil
}

// AssignOnCallSupervisor is AssignSupervisor for a doctor called in on demand.
// The doctor returns to the pool as soon as the room is empty again.
func (rp *ResourcePool) AssignOnCallSupervisor(roomID string) (StaffMember, error) {
	doc, err := rp.AssignSupervisor(roomID)
	if err != nil {
		return StaffMember{}, err
	}
	rp.consultRooms[roomID].OnCall = true
	return doc, nil
}

// ReleaseSupervisor returns the supervising doctor of an empty room to the pool.
func (rp *ResourcePool) ReleaseSupervisor(roomID string) error {
	r, ok := rp.consultRooms[roomID]
	if !ok {
		return invariant("release_supervisor", roomID, ErrUnknownRoom)
	}
	if r.SupervisorID == "" {
		return invariant("release_supervisor", roomID, ErrStaffNotAssigned)
	}
	if r.Occupancy > 0 {
		return invariant("release_supervisor", roomID, ErrStaffAlreadyAssigned)
	}
	if err := rp.releaseStaff(r.SupervisorID); err != nil {
		return err
	}
	r.SupervisorID = ""
	r.OnCall = false
	return nil
}

// AdmitToConsultation takes one place in a supervised consultation room.
func (rp *ResourcePool) AdmitToConsultation(id string) error {
	r, ok := rp.consultRooms[id]
	if !ok {
		return invariant("admit_to_consultation", id, ErrUnknownRoom)
	}
	if r.SupervisorID == "" {
		return invariant("admit_to_consultation", id, ErrUnsupervisedRoom)
	}
	if r.Occupancy >= r.Capacity {
		return invariant("admit_to_consultation", id, ErrRoomSaturated)
	}
	r.Occupancy++
	r.Admits++
	return nil
}

// ReleaseFromConsultation frees one place in a consultation room.
// An on-call supervisor is released when the room empties.
func (rp *ResourcePool) ReleaseFromConsultation(id string) error {
	r, ok := rp.consultRooms[id]
	if !ok {
		return invariant("release_from_consultation", id, ErrUnknownRoom)
	}
	if r.Occupancy <= 0 {
		return invariant("release_from_consultation", id, ErrReleaseEmpty)
	}
	r.Occupancy--
	r.Releases++
	if r.Occupancy == 0 && r.OnCall {
		return rp.ReleaseSupervisor(id)
	}
	return nil
}

// ConsultationRooms returns copies of all consultation rooms in registration order.
func (rp *ResourcePool) ConsultationRooms() []ConsultationRoom {
	out := make([]ConsultationRoom, 0, len(rp.consultOrder))
	for _, id := range rp.consultOrder {
		out = append(out, *rp.consultRooms[id])
	}
	return out
}

// === Hospital units ===

// UnitAvailable reports whether the specialty unit has a free bed.
func (rp *ResourcePool) UnitAvailable(s Specialty) bool {
	u, ok := rp.units[s]
	return ok && UnitHasCapacity(*u) == nil
}

// HasUnit reports whether a unit of specialty s exists.
func (rp *ResourcePool) HasUnit(s Specialty) bool {
	_, ok := rp.units[s]
	return ok
}

// AdmitToUnit takes one bed in the specialty unit.
func (rp *ResourcePool) AdmitToUnit(s Specialty) error {
	u, ok := rp.units[s]
	if !ok {
		return invariant("admit_to_unit", string(s), ErrUnknownSpecialty)
	}
	return admitBed("admit_to_unit", u)
}

// ReleaseFromUnit frees one bed in the specialty unit.
func (rp *ResourcePool) ReleaseFromUnit(s Specialty) error {
	u, ok := rp.units[s]
	if !ok {
		return invariant("release_from_unit", string(s), ErrUnknownSpecialty)
	}
	return releaseBed("release_from_unit", u)
}

// Unit returns a copy of the specialty unit.
func (rp *ResourcePool) Unit(s Specialty) (HospitalUnit, bool) {
	u, ok := rp.units[s]
	if !ok {
		return HospitalUnit{}, false
	}
	return *u, true
}

// Units returns copies of all downstream units in registration order.
func (rp *ResourcePool) Units() []HospitalUnit {
	out := make([]HospitalUnit, 0, len(rp.unitOrder))
	for _, s := range rp.unitOrder {
		out = append(out, *rp.units[s])
	}
	return out
}

// === Critical care ===

// CriticalCareAvailable reports whether a critical-care bed is free.
func (rp *ResourcePool) CriticalCareAvailable() bool {
	return UnitHasCapacity(*rp.criticalCare) == nil
}

// AdmitToCriticalCare takes one critical-care bed.
func (rp *ResourcePool) AdmitToCriticalCare() error {
	return admitBed("admit_to_critical_care", rp.criticalCare)
}

// ReleaseFromCriticalCare frees one critical-care bed.
func (rp *ResourcePool) ReleaseFromCriticalCare() error {
	return releaseBed("release_from_critical_care", rp.criticalCare)
}

// CriticalCare returns a copy of the critical-care block.
func (rp *ResourcePool) CriticalCare() HospitalUnit {
	return *rp.criticalCare
}

func admitBed(op string, u *HospitalUnit) error {
	if u.Occupancy >= u.Capacity {
		return invariant(op, string(u.Specialty), ErrUnitSaturated)
	}
	u.Occupancy++
	u.Admits++
	return nil
}

func releaseBed(op string, u *HospitalUnit) error {
	if u.Occupancy <= 0 {
		return invariant(op, string(u.Specialty), ErrReleaseEmpty)
	}
	u.Occupancy--
	u.Releases++
	return nil
}
