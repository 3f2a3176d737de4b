package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPatient_StartsArrivedWithHistory(t *testing.T) {
	p := NewPatient("p1", SeverityJaune, 4, testStart)

	assert.Equal(t, StateArrived, p.State)
	assert.Equal(t, AtTriage(), p.Location)
	assert.Nil(t, p.RequiredSpecialty)
	assert.True(t, p.IsActive())
	h := p.History()
	require.Len(t, h, 1)
	assert.Equal(t, PatientState(""), h[0].From)
	assert.Equal(t, StateArrived, h[0].To)
}

func TestPatient_TransitionTo_AppendsHistory(t *testing.T) {
	p := NewPatient("p1", SeverityVert, 0, testStart)
	later := testStart.Add(10 * time.Minute)

	p.TransitionTo(StateWaiting, InWaitingRoom("SA1"), later, "placed")

	assert.Equal(t, StateWaiting, p.State)
	assert.Equal(t, InWaitingRoom("SA1"), p.Location)
	h := p.History()
	require.Len(t, h, 2)
	assert.Equal(t, Transition{At: later, From: StateArrived, To: StateWaiting, Reason: "placed"}, h[1])
}

func TestPatient_History_IsACopy(t *testing.T) {
	p := NewPatient("p1", SeverityVert, 0, testStart)
	h := p.History()
	h[0].Reason = "tampered"
	assert.Equal(t, "arrival", p.History()[0].Reason)
}

func TestPatient_HasConsulted(t *testing.T) {
	p := NewPatient("p1", SeverityJaune, 0, testStart)
	assert.False(t, p.HasConsulted())
	p.TransitionTo(StateInConsultation, InConsultationRoom("C1"), testStart, "")
	p.TransitionTo(StateAwaitingTransfer, InTransferQueue(), testStart, "")
	assert.True(t, p.HasConsulted())
}

func TestPatient_PriorityScore_SeverityDominatesWaiting(t *testing.T) {
	now := testStart.Add(48 * time.Hour)
	oldVert := NewPatient("v", SeverityVert, 0, testStart)
	newJaune := NewPatient("j", SeverityJaune, 0, now)

	assert.Greater(t, newJaune.PriorityScore(now), oldVert.PriorityScore(now))
	assert.InDelta(t, 48*60, oldVert.WaitingTimeMinutes(now), 1e-9)
	assert.Zero(t, newJaune.WaitingTimeMinutes(testStart), "waiting time is never negative")
}

func TestPatient_RecordAdmission_Once(t *testing.T) {
	p := NewPatient("p1", SeverityRouge, 0, testStart)
	_, _, ok := p.Stay()
	assert.False(t, ok)
	assert.False(t, p.StayElapsed(100))

	require.NoError(t, p.RecordAdmission(5, 10))
	admission, ticks, ok := p.Stay()
	assert.True(t, ok)
	assert.Equal(t, int64(5), admission)
	assert.Equal(t, int64(10), ticks)
	assert.False(t, p.StayElapsed(14))
	assert.True(t, p.StayElapsed(15))

	err := p.RecordAdmission(6, 1)
	assert.ErrorIs(t, err, ErrAlreadyAdmitted)
	assert.True(t, IsInvariant(err))
}
