// Implements the compilation attempt record and its persisted text codec.
// Records are written as four whitespace-separated signed integers per line;
// the layout is a compatibility contract with existing on-device logs.

package advisor

import (
	"fmt"
	"strconv"
	"strings"
)

// Trigger is the reason code explaining why a recompilation might be needed.
// Values are part of the persisted format and must not be renumbered.
type Trigger int32

const (
	// TriggerUnknown means no actionable reason; the ledger never advises an
	// attempt for it.
	TriggerUnknown Trigger = 0
	// TriggerApexVersionMismatch fires when the installed runtime module
	// version differs from the one the current artifacts were built against.
	TriggerApexVersionMismatch Trigger = 1
	// TriggerDexFilesChanged fires when input dex files changed on disk.
	TriggerDexFilesChanged Trigger = 2
	// TriggerMissingArtifacts fires when expected compilation outputs are absent.
	TriggerMissingArtifacts Trigger = 3
)

// triggerNames maps CLI-facing names to trigger codes.
var triggerNames = map[string]Trigger{
	"unknown":               TriggerUnknown,
	"apex-version-mismatch": TriggerApexVersionMismatch,
	"dex-files-changed":     TriggerDexFilesChanged,
	"missing-artifacts":     TriggerMissingArtifacts,
}

// TriggerFromName resolves a trigger by its CLI name.
// Valid names: "unknown", "apex-version-mismatch", "dex-files-changed", "missing-artifacts".
func TriggerFromName(name string) (Trigger, error) {
	if t, ok := triggerNames[name]; ok {
		return t, nil
	}
	return TriggerUnknown, fmt.Errorf("unknown trigger %q; valid triggers: [unknown, apex-version-mismatch, dex-files-changed, missing-artifacts]", name)
}

func (t Trigger) String() string {
	for name, code := range triggerNames {
		if code == t {
			return name
		}
	}
	return fmt.Sprintf("trigger(%d)", int32(t))
}

// ExitCode is the outcome code of a compilation attempt. The numeric values
// double as the process exit statuses of the odrefresh-style driver.
type ExitCode int32

const (
	ExitOkay                ExitCode = 0
	ExitCompilationRequired ExitCode = 1
	ExitCompilationSuccess  ExitCode = 2
	ExitCompilationFailed   ExitCode = 3
	ExitCleanupFailed       ExitCode = 4
)

// Succeeded reports whether the attempt completed successfully.
// Every non-success code counts as a failure for backoff purposes.
func (c ExitCode) Succeeded() bool {
	return c == ExitCompilationSuccess
}

// LogEntry is one recorded compilation attempt. Entries are immutable once
// created; the ledger only appends and evicts them.
type LogEntry struct {
	ApexVersion int64    // installed runtime module version active at attempt time
	Trigger     Trigger  // reason the attempt was made
	When        int64    // seconds since epoch
	ExitCode    ExitCode // attempt outcome
}

// tokensPerEntry is the number of integer tokens one persisted record consumes.
const tokensPerEntry = 4

// FormatEntries serializes entries oldest-first in the persisted text layout:
// "apex_version trigger when exit_code\n" per record.
func FormatEntries(entries []LogEntry) []byte {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%d %d %d %d\n", e.ApexVersion, int32(e.Trigger), e.When, int32(e.ExitCode))
	}
	return []byte(sb.String())
}

// ParseEntries decodes persisted records from data, consuming four integer
// tokens per record. It returns the decoded prefix and whether the input was
// consumed cleanly. A short or malformed tail stops decoding without
// discarding records already decoded; a truncated file is recoverable, not
// corrupt as a whole.
func ParseEntries(data []byte) (entries []LogEntry, clean bool) {
	tokens := strings.Fields(string(data))
	for i := 0; i+tokensPerEntry <= len(tokens); i += tokensPerEntry {
		apexVersion, err := strconv.ParseInt(tokens[i], 10, 64)
		if err != nil {
			return entries, false
		}
		trigger, err := strconv.ParseInt(tokens[i+1], 10, 32)
		if err != nil {
			return entries, false
		}
		when, err := strconv.ParseInt(tokens[i+2], 10, 64)
		if err != nil {
			return entries, false
		}
		exitCode, err := strconv.ParseInt(tokens[i+3], 10, 32)
		if err != nil {
			return entries, false
		}
		entries = append(entries, LogEntry{
			ApexVersion: apexVersion,
			Trigger:     Trigger(trigger),
			When:        when,
			ExitCode:    ExitCode(exitCode),
		})
	}
	return entries, len(tokens)%tokensPerEntry == 0
}
