// Package advisor decides whether an on-device AOT recompilation attempt
// should run right now.
//
// # Reading Guide
//
// Start with these files to understand the decision core:
//   - entry.go: LogEntry, Trigger and ExitCode types, and the persisted text codec
//   - ledger.go: CompilationLog, the bounded attempt ledger with backoff math
//   - storage.go: the byte-storage abstraction backing the ledger
//
// # Architecture
//
// The advisor package holds the attempt ledger; the profile-change policy and
// its collaborators live in sub-packages:
//   - advisor/gate/: profile-change gate (merge orchestration + significance test)
//   - advisor/profiles/: profile snapshot codec, merge, and change percentages
//   - advisor/flock/: cross-process advisory file locking
//   - advisor/trace/: decision trace recording
//
// Both policies are invoked as short-lived, single-shot decision points. The
// ledger depends only on a Clock and a Storage handle; the gate depends on a
// locker and a profile store. Neither depends on the other; the external
// caller combines the two verdicts into its go/no-go decision.
package advisor
