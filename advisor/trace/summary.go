package trace

// Summary aggregates statistics from a Trace.
type Summary struct {
	TotalChecks        int
	AttemptCount       int
	SuppressedCount    int
	GateCount          int
	ResultDistribution map[string]int // gate result name → count
}

// Summarize computes aggregate statistics from a Trace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(t *Trace) *Summary {
	summary := &Summary{
		ResultDistribution: make(map[string]int),
	}
	if t == nil {
		return summary
	}

	summary.TotalChecks = len(t.Checks)
	for _, c := range t.Checks {
		if c.Attempt {
			summary.AttemptCount++
		} else {
			summary.SuppressedCount++
		}
	}

	summary.GateCount = len(t.Gates)
	for _, g := range t.Gates {
		summary.ResultDistribution[g.Result]++
	}

	return summary
}
