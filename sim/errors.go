package sim

import (
	"errors"
	"fmt"
)

// Invariant violations. These mean the caller broke a guarantee the
// department model relies on; a run that hits one must stop.
var (
	ErrNoStaffAvailable     = errors.New("no staff available")
	ErrStaffAlreadyAssigned = errors.New("staff member already assigned")
	ErrStaffNotAssigned     = errors.New("staff member not assigned")
	ErrUnknownStaff         = errors.New("unknown staff member")
	ErrRoomSaturated        = errors.New("room saturated")
	ErrUnknownRoom          = errors.New("unknown room")
	ErrUnsupervisedRoom     = errors.New("room has no supervising doctor")
	ErrUnitSaturated        = errors.New("unit saturated")
	ErrUnknownSpecialty     = errors.New("unknown specialty")
	ErrReleaseEmpty         = errors.New("release on empty resource")
	ErrUnknownPatient       = errors.New("unknown patient")
	ErrDuplicatePatient     = errors.New("duplicate patient id")
	ErrClockBackward        = errors.New("clock moved backward")
	ErrAlreadyAdmitted      = errors.New("stay already recorded")
)

// InvariantError wraps one of the sentinel errors above with the operation
// and subject that triggered it.
type InvariantError struct {
	Op      string // operation name, e.g. "admit_to_room"
	Subject string // room id, specialty, patient id...
	Err     error
}

func (e *InvariantError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Subject, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

func invariant(op, subject string, err error) error {
	return &InvariantError{Op: op, Subject: subject, Err: err}
}

// IsInvariant reports whether err is (or wraps) an InvariantError.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// Violation is a business rule that is not satisfied right now.
// It is an expected outcome, not an error: the transition is retried on a later tick.
type Violation struct {
	Rule    string
	Message string
}

func (v *Violation) String() string {
	return v.Rule + ": " + v.Message
}
