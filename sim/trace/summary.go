package trace

// Summary aggregates statistics from a DecisionLog.
type Summary struct {
	TotalTransitions int
	UniquePatients   int
	ByTargetState    map[string]int // target state → count of transitions into it
	ByRule           map[string]int // rule → count of violations
	AdvisoryCount    int
	BlockingCount    int
}

// Summarize computes aggregate statistics from a DecisionLog.
// Safe for nil or empty logs (returns zero-value fields).
func Summarize(dl *DecisionLog) *Summary {
	summary := &Summary{
		ByTargetState: make(map[string]int),
		ByRule:        make(map[string]int),
	}
	if dl == nil {
		return summary
	}

	patients := make(map[string]bool)
	summary.TotalTransitions = len(dl.Transitions)
	for _, r := range dl.Transitions {
		summary.ByTargetState[r.To]++
		patients[r.PatientID] = true
	}
	summary.UniquePatients = len(patients)

	for _, v := range dl.Violations {
		summary.ByRule[v.Rule]++
		if v.Advisory {
			summary.AdvisoryCount++
		} else {
			summary.BlockingCount++
		}
	}
	return summary
}
