// Implements the CompilationLog, a bounded persisted ledger of compilation
// attempts with an exponential-backoff decision rule. The ledger suppresses
// repeated doomed attempts: every consecutive failure for the same
// (apex version, trigger) pair doubles the required idle time, while a
// success collapses it to a short fixed recheck interval.

package advisor

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aot-advisor/aot-advisor/advisor/trace"
)

const (
	// SecondsPerDay is the base unit of the failure backoff schedule.
	SecondsPerDay int64 = 86_400

	// HealthyRecheckInterval is the minimum wait after a successful attempt
	// before re-checking the same (apex version, trigger) pair.
	HealthyRecheckInterval int64 = SecondsPerDay / 2

	// DefaultMaxEntries bounds the retained attempt history. Four entries are
	// enough to drive the backoff schedule out to its longest useful wait.
	DefaultMaxEntries = 4

	// maxBackoffShift caps the doubling exponent so the shift cannot wrap
	// when MaxEntries is configured larger than the default.
	maxBackoffShift = 32
)

// CompilationLog is an ordered, capacity-bounded sequence of LogEntry,
// oldest first. It exclusively owns its entry slice and its storage handle;
// cross-process continuity happens only through the storage itself.
//
// Not safe for concurrent use. Concurrent invocations of the toolchain must
// serialize access to the backing file externally (see advisor/flock).
type CompilationLog struct {
	entries []LogEntry
	max     int
	clock   Clock
	storage Storage
	trace   *trace.Trace
}

// Option configures a CompilationLog.
type Option func(*CompilationLog)

// WithMaxEntries overrides the retained-history bound. Values below one are ignored.
func WithMaxEntries(n int) Option {
	return func(cl *CompilationLog) {
		if n >= 1 {
			cl.max = n
		}
	}
}

// WithClock overrides the clock used by LogNow and ShouldAttemptCompileNow.
func WithClock(clock Clock) Option {
	return func(cl *CompilationLog) {
		cl.clock = clock
	}
}

// WithTrace attaches a decision trace that records every backoff verdict.
func WithTrace(t *trace.Trace) Option {
	return func(cl *CompilationLog) {
		cl.trace = t
	}
}

// NewCompilationLog creates a ledger. A nil storage yields a purely in-memory
// ledger, useful for decision-only evaluation without persistence. With
// storage attached, the retained sequence is hydrated from it; a truncated or
// malformed tail keeps the valid prefix and is logged, never surfaced.
func NewCompilationLog(storage Storage, opts ...Option) (*CompilationLog, error) {
	cl := &CompilationLog{
		max:     DefaultMaxEntries,
		clock:   SystemClock{},
		storage: storage,
	}
	for _, opt := range opts {
		opt(cl)
	}
	if storage != nil {
		if err := cl.hydrate(); err != nil {
			return nil, err
		}
	}
	return cl, nil
}

// hydrate loads the retained sequence from storage, keeping the most recent
// max entries when the store holds more than fit.
func (cl *CompilationLog) hydrate() error {
	data, err := cl.storage.Read()
	if err != nil {
		return fmt.Errorf("hydrating compilation log: %w", err)
	}
	entries, clean := ParseEntries(data)
	if !clean {
		logrus.Warnf("compilation log has a truncated or malformed tail; keeping %d decoded entries", len(entries))
	}
	if len(entries) > cl.max {
		entries = entries[len(entries)-cl.max:]
	}
	cl.entries = entries
	return nil
}

// Log appends an attempt record, evicting the oldest entry at capacity, and
// synchronously rewrites the whole backing store before returning. A fresh
// ledger constructed from the same storage immediately afterwards observes
// the updated sequence.
func (cl *CompilationLog) Log(apexVersion int64, trigger Trigger, when int64, exitCode ExitCode) error {
	for len(cl.entries) >= cl.max {
		copy(cl.entries, cl.entries[1:])
		cl.entries = cl.entries[:len(cl.entries)-1]
	}
	cl.entries = append(cl.entries, LogEntry{
		ApexVersion: apexVersion,
		Trigger:     trigger,
		When:        when,
		ExitCode:    exitCode,
	})
	if cl.storage == nil {
		return nil
	}
	if err := cl.storage.Overwrite(FormatEntries(cl.entries)); err != nil {
		return fmt.Errorf("persisting compilation log: %w", err)
	}
	return nil
}

// LogNow records an attempt timestamped with the ledger's clock.
func (cl *CompilationLog) LogNow(apexVersion int64, trigger Trigger, exitCode ExitCode) error {
	return cl.Log(apexVersion, trigger, cl.clock.Now(), exitCode)
}

// ShouldAttemptCompile reports whether a recompilation attempt for the given
// (apex version, trigger) pair is advisable at time now.
//
// The sentinel TriggerUnknown never advises an attempt. With no matching
// history the attempt proceeds. After a success the pair waits out
// HealthyRecheckInterval; after k consecutive failures it waits 2^(k-1) days
// from the most recent failure. A version or trigger change discards all
// prior backoff state for the combination.
func (cl *CompilationLog) ShouldAttemptCompile(apexVersion int64, trigger Trigger, now int64) bool {
	attempt, reason := cl.decide(apexVersion, trigger, now)
	logrus.Debugf("should-attempt-compile apex_version=%d trigger=%s now=%d: %t (%s)",
		apexVersion, trigger, now, attempt, reason)
	if cl.trace != nil {
		cl.trace.RecordCheck(trace.CheckRecord{
			ApexVersion: apexVersion,
			Trigger:     trigger.String(),
			Clock:       now,
			Attempt:     attempt,
			Reason:      reason,
		})
	}
	return attempt
}

// ShouldAttemptCompileNow evaluates ShouldAttemptCompile at the ledger clock's
// current time.
func (cl *CompilationLog) ShouldAttemptCompileNow(apexVersion int64, trigger Trigger) bool {
	return cl.ShouldAttemptCompile(apexVersion, trigger, cl.clock.Now())
}

func (cl *CompilationLog) decide(apexVersion int64, trigger Trigger, now int64) (attempt bool, reason string) {
	if trigger == TriggerUnknown {
		return false, "no actionable trigger"
	}

	last := -1
	for i := len(cl.entries) - 1; i >= 0; i-- {
		if cl.entries[i].ApexVersion == apexVersion && cl.entries[i].Trigger == trigger {
			last = i
			break
		}
	}
	if last < 0 {
		return true, "no matching history"
	}

	m := cl.entries[last]
	if m.ExitCode.Succeeded() {
		if now-m.When >= HealthyRecheckInterval {
			return true, "healthy recheck interval elapsed"
		}
		return false, "within healthy recheck interval"
	}

	// Length of the maximal trailing run of failures for this pair.
	streak := 0
	for i := last; i >= 0; i-- {
		e := cl.entries[i]
		if e.ApexVersion != apexVersion || e.Trigger != trigger || e.ExitCode.Succeeded() {
			break
		}
		streak++
	}

	shift := streak - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	required := SecondsPerDay << shift
	if now-m.When >= required {
		return true, fmt.Sprintf("backoff of %d consecutive failures elapsed", streak)
	}
	return false, fmt.Sprintf("backing off after %d consecutive failures", streak)
}

// NumberOfEntries returns the retained entry count, at most MaxEntries.
func (cl *CompilationLog) NumberOfEntries() int {
	return len(cl.entries)
}

// Peek returns the entry at position i counting from oldest (0). The second
// return value is false when i is out of range.
func (cl *CompilationLog) Peek(i int) (LogEntry, bool) {
	if i < 0 || i >= len(cl.entries) {
		return LogEntry{}, false
	}
	return cl.entries[i], true
}

// MaxEntries returns the configured retention bound.
func (cl *CompilationLog) MaxEntries() int {
	return cl.max
}
