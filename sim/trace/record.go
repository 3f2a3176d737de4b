// Package trace provides the decision log of a department simulation.
// This package has no dependencies on sim/; it stores pure data types.
package trace

import "time"

// TransitionRecord captures one patient state change.
type TransitionRecord struct {
	Tick      int64
	At        time.Time
	PatientID string
	From      string // empty for the arrival record
	To        string
	Reason    string
}

// ViolationRecord captures a business rule that blocked a transition attempt,
// or an advisory rule found unsatisfied during an audit.
type ViolationRecord struct {
	Tick     int64
	At       time.Time
	Subject  string // patient id or room id
	Rule     string
	Message  string
	Advisory bool // true for audit-only rules (e.g. waiting-room compliance)
}
