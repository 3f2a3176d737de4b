package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_OrderAndNames(t *testing.T) {
	assert.Less(t, SeverityGris.Rank(), SeverityVert.Rank())
	assert.Less(t, SeverityVert.Rank(), SeverityJaune.Rank())
	assert.Less(t, SeverityJaune.Rank(), SeverityRouge.Rank())

	for _, s := range Severities {
		parsed, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"ROUGE", SeverityRouge, false},
		{" jaune ", SeverityJaune, false},
		{"Vert", SeverityVert, false},
		{"gris", SeverityGris, false},
		{"BLEU", SeverityGris, true},
		{"", SeverityGris, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatientState_IsTerminal(t *testing.T) {
	for _, s := range PatientStates {
		want := s == StateDischarged || s == StateLeft
		assert.Equal(t, want, s.IsTerminal(), "state %s", s)
	}
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "waiting_room/SA1", InWaitingRoom("SA1").String())
	assert.Equal(t, "hospital_unit/cardiology", InUnit(SpecialtyCardiology).String())
	assert.Equal(t, "exit", AtExit().String())
}

func TestIsValidSpecialty(t *testing.T) {
	assert.True(t, IsValidSpecialty("general"))
	assert.True(t, IsValidSpecialty("cardiology"))
	assert.False(t, IsValidSpecialty("critical_care"), "critical care is not a transfer target")
	assert.False(t, IsValidSpecialty(""))
}
