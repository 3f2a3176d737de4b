// Tracks run-wide statistics: arrivals and outcomes per severity, waits to
// consultation, time spent in the department, and saturation over time.

package sim

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	Arrivals map[Severity]int // patients registered, by severity

	// Per-tick series, from ObserveSnapshot.
	SaturationWaiting []float64
	SaturationIndex   []float64
	PeakAwaiting      int // peak count of patients awaiting transfer

	// Per-patient samples, recomputed by ObservePatients.
	WaitToConsultation map[Severity][]float64 // minutes from arrival to first consultation
	TimeInDepartment   []float64              // minutes from arrival to leaving the department
	UnitStays          []float64              // recorded stays in ticks, units and critical care
	Outcomes           map[PatientState]int   // current state of every patient
}

// NewMetrics returns empty metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Arrivals:           make(map[Severity]int),
		WaitToConsultation: make(map[Severity][]float64),
		Outcomes:           make(map[PatientState]int),
	}
}

// ObserveSnapshot appends one tick to the saturation series.
func (m *Metrics) ObserveSnapshot(s Snapshot) {
	if v, ok := s.Value("saturation_waiting"); ok {
		m.SaturationWaiting = append(m.SaturationWaiting, v)
	}
	if v, ok := s.Value("saturation_index"); ok {
		m.SaturationIndex = append(m.SaturationIndex, v)
	}
	if v, ok := s.Value("count_awaiting_transfer"); ok && int(v) > m.PeakAwaiting {
		m.PeakAwaiting = int(v)
	}
}

// leavesDepartment reports whether entering state means the patient left the
// emergency department itself.
func leavesDepartment(s PatientState) bool {
	switch s {
	case StateInUnit, StateInCriticalCare, StateDischarged, StateLeft:
		return true
	}
	return false
}

// ObservePatients recomputes per-patient samples from the department.
func (m *Metrics) ObservePatients(d *Department) {
	m.WaitToConsultation = make(map[Severity][]float64)
	m.TimeInDepartment = nil
	m.UnitStays = nil
	m.Outcomes = make(map[PatientState]int)

	for _, p := range d.Patients() {
		m.Outcomes[p.State]++
		consulted, left := false, false
		for _, tr := range p.History() {
			if !consulted && tr.To == StateInConsultation {
				consulted = true
				m.WaitToConsultation[p.Severity] = append(m.WaitToConsultation[p.Severity], tr.At.Sub(p.ArrivalTime).Minutes())
			}
			if !left && leavesDepartment(tr.To) {
				left = true
				m.TimeInDepartment = append(m.TimeInDepartment, tr.At.Sub(p.ArrivalTime).Minutes())
			}
		}
		if _, ticks, ok := p.Stay(); ok {
			m.UnitStays = append(m.UnitStays, float64(ticks))
		}
	}
}

// Distribution summarizes a sample.
type Distribution struct {
	Count int
	Mean  float64
	Std   float64
	P50   float64
	P90   float64
	Max   float64
}

// Summarize computes a Distribution. An empty sample yields the zero value.
func Summarize(xs []float64) Distribution {
	if len(xs) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	d := Distribution{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:   stat.Quantile(0.9, stat.Empirical, sorted, nil),
		Max:   sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		d.Std = stat.StdDev(sorted, nil)
	}
	return d
}

// Print writes the end-of-run report.
func (m *Metrics) Print(w io.Writer) {
	total := 0
	for _, n := range m.Arrivals {
		total += n
	}
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Arrivals             : %d\n", total)
	for _, sev := range Severities {
		fmt.Fprintf(w, "  %-6s             : %d\n", sev, m.Arrivals[sev])
	}
	fmt.Fprintln(w, "Outcomes:")
	for _, st := range PatientStates {
		if n := m.Outcomes[st]; n > 0 {
			fmt.Fprintf(w, "  %-18s : %d\n", st, n)
		}
	}
	fmt.Fprintln(w, "Wait to consultation (min):")
	for _, sev := range Severities {
		d := Summarize(m.WaitToConsultation[sev])
		if d.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-6s n=%-5d mean=%.1f std=%.1f p50=%.1f p90=%.1f max=%.1f\n",
			sev, d.Count, d.Mean, d.Std, d.P50, d.P90, d.Max)
	}
	if d := Summarize(m.TimeInDepartment); d.Count > 0 {
		fmt.Fprintf(w, "Time in department   : mean=%.1f min p90=%.1f min (n=%d)\n", d.Mean, d.P90, d.Count)
	}
	if d := Summarize(m.UnitStays); d.Count > 0 {
		fmt.Fprintf(w, "Recorded stays       : mean=%.1f ticks std=%.1f (n=%d)\n", d.Mean, d.Std, d.Count)
	}
	if d := Summarize(m.SaturationWaiting); d.Count > 0 {
		fmt.Fprintf(w, "Waiting saturation   : mean=%.2f peak=%.2f\n", d.Mean, d.Max)
	}
	if d := Summarize(m.SaturationIndex); d.Count > 0 {
		fmt.Fprintf(w, "Saturation index     : mean=%.2f peak=%.2f\n", d.Mean, d.Max)
	}
	fmt.Fprintf(w, "Peak awaiting transfer: %d\n", m.PeakAwaiting)
}
