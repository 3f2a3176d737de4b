package trace

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func TestDecisionLog_RecordTransition_AppendsRecord(t *testing.T) {
	// GIVEN a log configured for transitions
	dl := NewDecisionLog(LevelTransitions)

	// WHEN a transition is recorded
	dl.RecordTransition(TransitionRecord{Tick: 3, At: t0, PatientID: "p1", From: "WAITING", To: "IN_CONSULTATION", Reason: "room C1"})

	// THEN the log contains it
	require.Len(t, dl.Transitions, 1)
	assert.Equal(t, "p1", dl.Transitions[0].PatientID)
	assert.Equal(t, "IN_CONSULTATION", dl.Transitions[0].To)
}

func TestDecisionLog_LevelNone_RecordsNothing(t *testing.T) {
	dl := NewDecisionLog(LevelNone)
	dl.RecordTransition(TransitionRecord{PatientID: "p1"})
	dl.RecordViolation(ViolationRecord{Subject: "p1", Rule: "r"})
	assert.Empty(t, dl.Transitions)
	assert.Empty(t, dl.Violations)
}

func TestDecisionLog_ViolationsOnlyAtViolationsLevel(t *testing.T) {
	dl := NewDecisionLog(LevelTransitions)
	dl.RecordViolation(ViolationRecord{Subject: "p1", Rule: "unit_has_capacity"})
	assert.Empty(t, dl.Violations)

	dl = NewDecisionLog(LevelViolations)
	dl.RecordViolation(ViolationRecord{Subject: "p1", Rule: "unit_has_capacity"})
	assert.Len(t, dl.Violations, 1)
}

func TestDecisionLog_NilIsSafe(t *testing.T) {
	var dl *DecisionLog
	assert.False(t, dl.Enabled())
	dl.RecordTransition(TransitionRecord{})
	dl.RecordViolation(ViolationRecord{})
	assert.NoError(t, dl.WriteLog(&bytes.Buffer{}))
}

func TestDecisionLog_WriteLog_Format(t *testing.T) {
	// GIVEN an arrival, a transition and an audit finding
	dl := NewDecisionLog(LevelViolations)
	dl.RecordTransition(TransitionRecord{Tick: 0, At: t0, PatientID: "p1", To: "ARRIVED", Reason: "arrival"})
	dl.RecordTransition(TransitionRecord{Tick: 1, At: t0.Add(10 * time.Minute), PatientID: "p1", From: "ARRIVED", To: "LEFT", Reason: "GRIS"})
	dl.RecordViolation(ViolationRecord{Tick: 2, At: t0.Add(20 * time.Minute), Subject: "SA1", Rule: "waiting_room_compliance", Message: "unstaffed", Advisory: true})

	// WHEN written
	var buf bytes.Buffer
	require.NoError(t, dl.WriteLog(&buf))

	// THEN one line per record, in order
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2026-01-01T08:00:00Z tick=0000000 patient=p1 - -> ARRIVED | arrival", lines[0])
	assert.Equal(t, "2026-01-01T08:10:00Z tick=0000001 patient=p1 ARRIVED -> LEFT | GRIS", lines[1])
	assert.Equal(t, "2026-01-01T08:20:00Z tick=0000002 audit subject=SA1 rule=waiting_room_compliance | unstaffed", lines[2])
}

func TestDecisionLog_WriteLog_InterleavesInRecordOrder(t *testing.T) {
	// GIVEN a blocked move recorded between two transitions of the same tick
	dl := NewDecisionLog(LevelViolations)
	dl.RecordTransition(TransitionRecord{Tick: 4, At: t0, PatientID: "p1", From: "WAITING", To: "IN_CONSULTATION", Reason: "room C1"})
	dl.RecordViolation(ViolationRecord{Tick: 4, At: t0, Subject: "p2", Rule: "unit_has_capacity", Message: "full"})
	dl.RecordTransition(TransitionRecord{Tick: 5, At: t0.Add(10 * time.Minute), PatientID: "p2", From: "AWAITING_TRANSFER", To: "IN_UNIT", Reason: "bed freed"})

	// WHEN written
	var buf bytes.Buffer
	require.NoError(t, dl.WriteLog(&buf))

	// THEN the lines follow the recording order, not the record kind
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "patient=p1")
	assert.Contains(t, lines[1], "blocked subject=p2 rule=unit_has_capacity")
	assert.Contains(t, lines[2], "tick=0000005 patient=p2")
}

func TestIsValidLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"transitions", true},
		{"violations", true},
		{"", true}, // empty defaults to none
		{"decisions", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
