// Package trace provides decision-trace recording for recompilation policy analysis.
// This package has no dependencies on advisor/ or advisor/gate/; it stores pure data types.
package trace

// CheckRecord captures a single ledger backoff decision.
type CheckRecord struct {
	ApexVersion int64
	Trigger     string
	Clock       int64
	Attempt     bool
	Reason      string
}

// GateRecord captures a single profile-change gate verdict.
type GateRecord struct {
	Result            string
	NewMethodsPercent uint32
	NewClassesPercent uint32
	ForceMerge        bool
	Inputs            int
}
