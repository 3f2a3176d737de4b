package trace

import (
	"fmt"
	"io"
	"time"
)

// Level controls the verbosity of decision tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelTransitions captures every patient transition.
	LevelTransitions Level = "transitions"
	// LevelViolations captures transitions and every blocked attempt.
	LevelViolations Level = "violations"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:        true,
	LevelTransitions: true,
	LevelViolations:  true,
	"":               true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// DecisionLog collects decision records during a simulation.
// It is a side channel: nothing in the simulation reads it back.
type DecisionLog struct {
	Level       Level
	Transitions []TransitionRecord
	Violations  []ViolationRecord

	// order[i] is true when the i-th recorded event was a violation
	order []bool
}

// NewDecisionLog creates a DecisionLog ready for recording.
func NewDecisionLog(level Level) *DecisionLog {
	return &DecisionLog{
		Level:       level,
		Transitions: make([]TransitionRecord, 0),
		Violations:  make([]ViolationRecord, 0),
	}
}

// Enabled reports whether transitions are recorded. Safe on nil.
func (dl *DecisionLog) Enabled() bool {
	return dl != nil && dl.Level != LevelNone && dl.Level != ""
}

// RecordTransition appends a transition record.
func (dl *DecisionLog) RecordTransition(record TransitionRecord) {
	if !dl.Enabled() {
		return
	}
	dl.Transitions = append(dl.Transitions, record)
	dl.order = append(dl.order, false)
}

// RecordViolation appends a violation record. Only kept at LevelViolations.
func (dl *DecisionLog) RecordViolation(record ViolationRecord) {
	if dl == nil || dl.Level != LevelViolations {
		return
	}
	dl.Violations = append(dl.Violations, record)
	dl.order = append(dl.order, true)
}

// WriteLog writes transitions and violations interleaved in the order they
// were recorded, one line each:
//
//	2026-01-01T08:00:00Z tick=0000003 patient=p1 WAITING -> IN_CONSULTATION | assigned to consultation room C1
//	2026-01-01T08:00:00Z tick=0000003 blocked subject=p2 rule=unit_has_capacity | unit CARDIO is full
//
// Records appended to the slices directly, bypassing Record*, follow at the end.
func (dl *DecisionLog) WriteLog(w io.Writer) error {
	if dl == nil {
		return nil
	}
	ti, vi := 0, 0
	for _, isViolation := range dl.order {
		var err error
		if isViolation && vi < len(dl.Violations) {
			err = writeViolation(w, dl.Violations[vi])
			vi++
		} else if !isViolation && ti < len(dl.Transitions) {
			err = writeTransition(w, dl.Transitions[ti])
			ti++
		}
		if err != nil {
			return err
		}
	}
	for ; ti < len(dl.Transitions); ti++ {
		if err := writeTransition(w, dl.Transitions[ti]); err != nil {
			return err
		}
	}
	for ; vi < len(dl.Violations); vi++ {
		if err := writeViolation(w, dl.Violations[vi]); err != nil {
			return err
		}
	}
	return nil
}

func writeTransition(w io.Writer, r TransitionRecord) error {
	from := r.From
	if from == "" {
		from = "-"
	}
	if _, err := fmt.Fprintf(w, "%s tick=%07d patient=%s %s -> %s | %s\n",
		r.At.Format(time.RFC3339), r.Tick, r.PatientID, from, r.To, r.Reason); err != nil {
		return fmt.Errorf("writing decision log: %w", err)
	}
	return nil
}

func writeViolation(w io.Writer, v ViolationRecord) error {
	kind := "blocked"
	if v.Advisory {
		kind = "audit"
	}
	if _, err := fmt.Fprintf(w, "%s tick=%07d %s subject=%s rule=%s | %s\n",
		v.At.Format(time.RFC3339), v.Tick, kind, v.Subject, v.Rule, v.Message); err != nil {
		return fmt.Errorf("writing decision log: %w", err)
	}
	return nil
}
