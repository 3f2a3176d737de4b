package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ed-sim/ed-sim/sim/stay"
)

// StaffConfig is the staff roster, by role.
type StaffConfig struct {
	Doctors    int `yaml:"doctors"`
	Nurses     int `yaml:"nurses"`
	Assistants int `yaml:"assistants"`
}

// RoomConfig declares a waiting or consultation room.
type RoomConfig struct {
	ID       string `yaml:"id"`
	Capacity int    `yaml:"capacity"`
}

// UnitConfig declares a downstream hospital unit.
type UnitConfig struct {
	Specialty string `yaml:"specialty"`
	Beds      int    `yaml:"beds"`
}

// StayConfig holds the length-of-stay targets per bed category.
type StayConfig struct {
	Unit         stay.Moments `yaml:"unit"`
	CriticalCare stay.Moments `yaml:"critical_care"`
}

// Moments returns the targets keyed by sampler category.
func (c StayConfig) Moments() map[stay.Category]stay.Moments {
	return map[stay.Category]stay.Moments{
		stay.Unit:         c.Unit,
		stay.CriticalCare: c.CriticalCare,
	}
}

// ArrivalConfig parameterizes generated arrivals.
// Mix weights need not sum to 1; they are normalized.
type ArrivalConfig struct {
	Process      string             `yaml:"process"`       // "poisson" or "constant"
	RatePerHour  float64            `yaml:"rate_per_hour"` // mean arrivals per simulated hour
	SeverityMix  map[string]float64 `yaml:"severity_mix"`  // severity name -> weight
	SpecialtyMix map[string]float64 `yaml:"specialty_mix"` // specialty -> weight; "none" means no specialty
	MaxPatients  int                `yaml:"max_patients"`  // 0 = unbounded
}

// NoSpecialty is the specialty_mix key for patients without a required specialty.
const NoSpecialty = "none"

var validArrivalProcesses = map[string]bool{"poisson": true, "constant": true}

// Config is the full department configuration.
// All top-level sections are listed so KnownFields(true) strict parsing rejects typos.
type Config struct {
	StartTime         time.Time       `yaml:"start_time"`
	MinutesPerTick    int             `yaml:"minutes_per_tick"`
	Staff             StaffConfig     `yaml:"staff"`
	WaitingRooms      []RoomConfig    `yaml:"waiting_rooms"`
	WaitingRoomOrder  []string        `yaml:"waiting_room_order,omitempty"` // empty: ascending capacity
	ConsultationRooms []RoomConfig    `yaml:"consultation_rooms"`
	Units             []UnitConfig    `yaml:"units"`
	CriticalCareBeds  int             `yaml:"critical_care_beds"`
	DefaultSpecialty  string          `yaml:"default_specialty"`
	Stay              StayConfig      `yaml:"stay"`
	Scheduler         SchedulerConfig `yaml:"scheduler"`
	Workload          ArrivalConfig   `yaml:"workload"`
}

// DefaultConfig returns the reference department: three waiting rooms of
// 5, 10 and 15 places, three single-place consultation rooms, four specialty
// units and a critical-care block.
func DefaultConfig() *Config {
	m := stay.DefaultMoments()
	return &Config{
		StartTime:      time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC),
		MinutesPerTick: 10,
		Staff:          StaffConfig{Doctors: 4, Nurses: 6, Assistants: 3},
		WaitingRooms: []RoomConfig{
			{ID: "SA1", Capacity: 5},
			{ID: "SA2", Capacity: 10},
			{ID: "SA3", Capacity: 15},
		},
		ConsultationRooms: []RoomConfig{
			{ID: "C1", Capacity: 1},
			{ID: "C2", Capacity: 1},
			{ID: "C3", Capacity: 1},
		},
		Units: []UnitConfig{
			{Specialty: string(SpecialtyGeneral), Beds: 12},
			{Specialty: string(SpecialtyCardiology), Beds: 6},
			{Specialty: string(SpecialtyNeurology), Beds: 4},
			{Specialty: string(SpecialtyOrthopedics), Beds: 4},
		},
		CriticalCareBeds: 4,
		DefaultSpecialty: string(SpecialtyGeneral),
		Stay:             StayConfig{Unit: m[stay.Unit], CriticalCare: m[stay.CriticalCare]},
		Scheduler: SchedulerConfig{
			Progression: ProgressSingle,
			Compliance:  ComplianceAdvisory,
			Decisions:   DecideBySeverity,
		},
		Workload: ArrivalConfig{
			Process:     "poisson",
			RatePerHour: 6,
			SeverityMix: map[string]float64{"GRIS": 0.10, "VERT": 0.45, "JAUNE": 0.30, "ROUGE": 0.15},
			SpecialtyMix: map[string]float64{
				NoSpecialty:                  0.40,
				string(SpecialtyGeneral):     0.20,
				string(SpecialtyCardiology):  0.20,
				string(SpecialtyNeurology):   0.10,
				string(SpecialtyOrthopedics): 0.10,
			},
		},
	}
}

// LoadConfig reads a YAML department configuration and validates it.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML department configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section. It does not modify the config.
func (c *Config) Validate() error {
	if c.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if c.MinutesPerTick <= 0 {
		return fmt.Errorf("minutes_per_tick must be positive, got %d", c.MinutesPerTick)
	}
	if c.Staff.Doctors < 0 || c.Staff.Nurses < 0 || c.Staff.Assistants < 0 {
		return fmt.Errorf("staff counts must be >= 0, got %+v", c.Staff)
	}
	if len(c.WaitingRooms) == 0 {
		return fmt.Errorf("at least one waiting room is required")
	}
	if err := validateRooms("waiting_rooms", c.WaitingRooms); err != nil {
		return err
	}
	if len(c.WaitingRoomOrder) > 0 {
		if err := validateOrder(c.WaitingRoomOrder, c.WaitingRooms); err != nil {
			return err
		}
	}
	if err := validateRooms("consultation_rooms", c.ConsultationRooms); err != nil {
		return err
	}
	seenUnits := make(map[string]bool, len(c.Units))
	for i, u := range c.Units {
		if !IsValidSpecialty(u.Specialty) {
			return fmt.Errorf("units[%d]: unknown specialty %q", i, u.Specialty)
		}
		if seenUnits[u.Specialty] {
			return fmt.Errorf("units[%d]: duplicate specialty %q", i, u.Specialty)
		}
		if u.Beds <= 0 {
			return fmt.Errorf("units[%d]: beds must be positive, got %d", i, u.Beds)
		}
		seenUnits[u.Specialty] = true
	}
	if c.CriticalCareBeds < 0 {
		return fmt.Errorf("critical_care_beds must be >= 0, got %d", c.CriticalCareBeds)
	}
	if !seenUnits[c.DefaultSpecialty] {
		return fmt.Errorf("default_specialty %q has no configured unit", c.DefaultSpecialty)
	}
	for cat, m := range c.Stay.Moments() {
		if _, _, err := stay.LogNormalParams(m.MeanDays, m.StdDays); err != nil {
			return fmt.Errorf("stay.%s: %w", cat, err)
		}
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return c.Workload.validate(seenUnits)
}

func (a ArrivalConfig) validate(units map[string]bool) error {
	if !validArrivalProcesses[a.Process] {
		return fmt.Errorf("workload: unknown arrival process %q; valid: poisson, constant", a.Process)
	}
	if a.RatePerHour < 0 || math.IsNaN(a.RatePerHour) || math.IsInf(a.RatePerHour, 0) {
		return fmt.Errorf("workload: rate_per_hour must be a finite value >= 0, got %f", a.RatePerHour)
	}
	if a.MaxPatients < 0 {
		return fmt.Errorf("workload: max_patients must be >= 0, got %d", a.MaxPatients)
	}
	if err := validateMix("severity_mix", a.SeverityMix, func(k string) bool {
		_, err := ParseSeverity(k)
		return err == nil
	}); err != nil {
		return err
	}
	return validateMix("specialty_mix", a.SpecialtyMix, func(k string) bool {
		return k == NoSpecialty || units[k]
	})
}

func validateMix(name string, mix map[string]float64, valid func(string) bool) error {
	if len(mix) == 0 {
		return fmt.Errorf("workload: %s must not be empty", name)
	}
	var total float64
	for k, w := range mix {
		if !valid(k) {
			return fmt.Errorf("workload: %s: unknown key %q", name, k)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("workload: %s[%s] must be a finite value >= 0, got %f", name, k, w)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("workload: %s weights sum to zero", name)
	}
	return nil
}

func validateRooms(section string, rooms []RoomConfig) error {
	seen := make(map[string]bool, len(rooms))
	for i, r := range rooms {
		if r.ID == "" {
			return fmt.Errorf("%s[%d]: id is required", section, i)
		}
		if seen[r.ID] {
			return fmt.Errorf("%s[%d]: duplicate id %q", section, i, r.ID)
		}
		if r.Capacity <= 0 {
			return fmt.Errorf("%s[%d]: capacity must be positive, got %d", section, i, r.Capacity)
		}
		seen[r.ID] = true
	}
	return nil
}

func validateOrder(order []string, rooms []RoomConfig) error {
	if len(order) != len(rooms) {
		return fmt.Errorf("waiting_room_order lists %d rooms, want %d", len(order), len(rooms))
	}
	known := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		known[r.ID] = true
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !known[id] || seen[id] {
			return fmt.Errorf("waiting_room_order: unknown or repeated room %q", id)
		}
		seen[id] = true
	}
	return nil
}

// NewResourcePoolFromConfig builds the resource pool described by c.
// Staff ids are role-prefixed and numbered from 1 (D1, N1, A1).
// Doctors are placed in charge of consultation rooms in declaration order
// while doctors remain; further doctors stay available.
// c must already be valid.
func NewResourcePoolFromConfig(c *Config) *ResourcePool {
	pool := NewResourcePool()
	for i := 1; i <= c.Staff.Doctors; i++ {
		pool.AddStaff(fmt.Sprintf("D%d", i), RoleDoctor)
	}
	for i := 1; i <= c.Staff.Nurses; i++ {
		pool.AddStaff(fmt.Sprintf("N%d", i), RoleNurse)
	}
	for i := 1; i <= c.Staff.Assistants; i++ {
		pool.AddStaff(fmt.Sprintf("A%d", i), RoleAssistant)
	}
	for _, r := range c.WaitingRooms {
		pool.AddWaitingRoom(r.ID, r.Capacity)
	}
	if len(c.WaitingRoomOrder) > 0 {
		pool.SetWaitingOrder(c.WaitingRoomOrder)
	} else {
		pool.SortWaitingOrderByCapacity()
	}
	for _, r := range c.ConsultationRooms {
		pool.AddConsultationRoom(r.ID, r.Capacity)
		if pool.HasStaffAvailable(RoleDoctor) {
			if _, err := pool.AssignSupervisor(r.ID); err != nil {
				panic(fmt.Sprintf("NewResourcePoolFromConfig: %v", err))
			}
		}
	}
	for _, u := range c.Units {
		pool.AddUnit(Specialty(u.Specialty), u.Beds)
	}
	pool.SetCriticalCareBeds(c.CriticalCareBeds)
	return pool
}

// NewDepartmentFromConfig opens an empty department built from c.
func NewDepartmentFromConfig(c *Config) *Department {
	return NewDepartment(c.StartTime, c.MinutesPerTick, NewResourcePoolFromConfig(c))
}
