package trace

// Trace collects decision records during a single advisor invocation.
type Trace struct {
	Checks []CheckRecord
	Gates  []GateRecord
}

// New creates a Trace ready for recording.
func New() *Trace {
	return &Trace{
		Checks: make([]CheckRecord, 0),
		Gates:  make([]GateRecord, 0),
	}
}

// RecordCheck appends a ledger decision record.
func (t *Trace) RecordCheck(record CheckRecord) {
	t.Checks = append(t.Checks, record)
}

// RecordGate appends a gate verdict record.
func (t *Trace) RecordGate(record GateRecord) {
	t.Gates = append(t.Gates, record)
}
