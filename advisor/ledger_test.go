package advisor

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aot-advisor/aot-advisor/advisor/internal/testutil"
)

// fixedClock returns a constant time, for deterministic LogNow/Now decisions.
type fixedClock int64

func (c fixedClock) Now() int64 { return int64(c) }

// failingStorage rejects every overwrite, for write-error surfacing tests.
type failingStorage struct{}

func (failingStorage) Read() ([]byte, error)  { return nil, nil }
func (failingStorage) Overwrite([]byte) error { return errors.New("disk full") }

const startTime int64 = 1_700_000_000

func mustLedger(t *testing.T, storage Storage, opts ...Option) *CompilationLog {
	t.Helper()
	cl, err := NewCompilationLog(storage, opts...)
	require.NoError(t, err)
	return cl
}

func TestShouldAttemptCompile_ScopeIsolation(t *testing.T) {
	cl := mustLedger(t, nil)

	assert.True(t, cl.ShouldAttemptCompile(1, TriggerMissingArtifacts, 0))

	require.NoError(t, cl.Log(1, TriggerApexVersionMismatch, startTime, ExitCompilationSuccess))

	// A different version or trigger has no matching history.
	assert.True(t, cl.ShouldAttemptCompile(2, TriggerApexVersionMismatch, startTime))
	assert.True(t, cl.ShouldAttemptCompile(1, TriggerDexFilesChanged, startTime))
	// The logged pair is inside its healthy recheck interval.
	assert.False(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime))
	// The sentinel trigger never advises an attempt.
	assert.False(t, cl.ShouldAttemptCompile(1, TriggerUnknown, startTime))
}

func TestShouldAttemptCompile_BackoffDoubling(t *testing.T) {
	// GIVEN consecutive failures logged at the same timestamp, the required
	// wait doubles with each: k=1→1 day, k=2→2, k=3→4, k=4→8.
	cl := mustLedger(t, nil)

	assert.True(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime))

	waits := []int64{1, 2, 4, 8}
	for _, days := range waits {
		require.NoError(t, cl.Log(1, TriggerApexVersionMismatch, startTime, ExitCompilationFailed))
		assert.False(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime+(days-1)*SecondsPerDay),
			"one day short of a %d-day backoff", days)
		assert.False(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime+days*SecondsPerDay-1),
			"one second short of a %d-day backoff", days)
		assert.True(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime+days*SecondsPerDay),
			"%d-day backoff elapsed", days)
	}
}

func TestShouldAttemptCompile_SuccessHealthyInterval(t *testing.T) {
	cl := mustLedger(t, nil)

	require.NoError(t, cl.Log(1, TriggerApexVersionMismatch, startTime, ExitCompilationSuccess))
	assert.False(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime))
	assert.False(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime+SecondsPerDay/4))
	assert.True(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime+SecondsPerDay/2))

	// A failure after the success re-engages doubling from its own timestamp.
	require.NoError(t, cl.Log(1, TriggerApexVersionMismatch, startTime, ExitCompilationFailed))
	assert.False(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime+SecondsPerDay/2))
	assert.True(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime+SecondsPerDay))
}

func TestLog_BoundedRetentionAndPeek(t *testing.T) {
	cl := mustLedger(t, nil)

	entries := []LogEntry{
		{0, 1, 2, 3},
		{1, 2, 3, 4},
		{2, 3, 4, 5},
		{3, 4, 5, 6},
		{4, 5, 6, 7},
		{5, 6, 7, 8},
		{6, 7, 8, 9},
	}

	for i, e := range entries {
		require.NoError(t, cl.Log(e.ApexVersion, e.Trigger, e.When, e.ExitCode))
		if i < DefaultMaxEntries {
			assert.Equal(t, i+1, cl.NumberOfEntries())
		} else {
			assert.Equal(t, DefaultMaxEntries, cl.NumberOfEntries())
		}

		// The retained window is strictly the most recent entries in order.
		for j := 0; j < cl.NumberOfEntries(); j++ {
			got, ok := cl.Peek(j)
			require.True(t, ok)
			assert.Equal(t, entries[i+1-cl.NumberOfEntries()+j], got)
		}
	}

	_, ok := cl.Peek(cl.NumberOfEntries())
	assert.False(t, ok)
	_, ok = cl.Peek(-1)
	assert.False(t, ok)
}

func TestLog_PersistenceFidelity(t *testing.T) {
	// GIVEN a ledger reconstructed from the same path after every Log call
	path := filepath.Join(t.TempDir(), "compilation-log.txt")

	entries := []LogEntry{
		{0, 1, 2, 3},
		{1, 2, 3, 4},
		{2, 3, 4, 5},
		{3, 4, 5, 6},
		{4, 5, 6, 7},
		{5, 6, 7, 8},
		{6, 7, 8, 9},
	}

	for i, e := range entries {
		{
			cl := mustLedger(t, NewFileStorage(path))
			require.NoError(t, cl.Log(e.ApexVersion, e.Trigger, e.When, e.ExitCode))
		}

		// THEN a fresh construction observes the updated retained window.
		cl := mustLedger(t, NewFileStorage(path))
		if i < DefaultMaxEntries {
			require.Equal(t, i+1, cl.NumberOfEntries())
		} else {
			require.Equal(t, DefaultMaxEntries, cl.NumberOfEntries())
		}
		for j := 0; j < cl.NumberOfEntries(); j++ {
			got, ok := cl.Peek(j)
			require.True(t, ok)
			assert.Equal(t, entries[i+1-cl.NumberOfEntries()+j], got)
		}
	}
}

func TestBackoffBasedOnPersistedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compilation-log.txt")

	{
		cl := mustLedger(t, NewFileStorage(path))
		assert.True(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime))
	}

	for _, days := range []int64{1, 2, 4, 8} {
		{
			cl := mustLedger(t, NewFileStorage(path))
			require.NoError(t, cl.Log(1, TriggerApexVersionMismatch, startTime, ExitCompilationFailed))
		}
		cl := mustLedger(t, NewFileStorage(path))
		assert.False(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime+(days-1)*SecondsPerDay))
		assert.True(t, cl.ShouldAttemptCompile(1, TriggerApexVersionMismatch, startTime+days*SecondsPerDay))
	}
}

func TestNewCompilationLog_TruncatedTailKeepsPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compilation-log.txt")
	storage := NewFileStorage(path)
	require.NoError(t, storage.Overwrite([]byte("1 2 3 4\n5 6\n")))

	cl := mustLedger(t, storage)

	require.Equal(t, 1, cl.NumberOfEntries())
	got, ok := cl.Peek(0)
	require.True(t, ok)
	assert.Equal(t, LogEntry{ApexVersion: 1, Trigger: 2, When: 3, ExitCode: 4}, got)
}

func TestNewCompilationLog_OversizedStoreKeepsMostRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compilation-log.txt")
	storage := NewFileStorage(path)
	oversized := []LogEntry{
		{0, 1, 2, 3},
		{1, 2, 3, 4},
		{2, 3, 4, 5},
		{3, 4, 5, 6},
		{4, 5, 6, 7},
		{5, 6, 7, 8},
	}
	require.NoError(t, storage.Overwrite(FormatEntries(oversized)))

	cl := mustLedger(t, storage)

	require.Equal(t, DefaultMaxEntries, cl.NumberOfEntries())
	for j := 0; j < DefaultMaxEntries; j++ {
		got, ok := cl.Peek(j)
		require.True(t, ok)
		assert.Equal(t, oversized[len(oversized)-DefaultMaxEntries+j], got)
	}
}

func TestLog_WriteFailureSurfaced(t *testing.T) {
	cl := mustLedger(t, failingStorage{})

	err := cl.Log(1, TriggerApexVersionMismatch, startTime, ExitCompilationFailed)

	assert.ErrorContains(t, err, "disk full")
}

func TestLogNow_UsesInjectedClock(t *testing.T) {
	cl := mustLedger(t, nil, WithClock(fixedClock(startTime)))

	require.NoError(t, cl.LogNow(1, TriggerApexVersionMismatch, ExitCompilationFailed))

	got, ok := cl.Peek(0)
	require.True(t, ok)
	assert.Equal(t, startTime, got.When)
	assert.False(t, cl.ShouldAttemptCompileNow(1, TriggerApexVersionMismatch))
}

func TestWithMaxEntries_OverridesRetention(t *testing.T) {
	cl := mustLedger(t, nil, WithMaxEntries(2))

	for i := int64(0); i < 5; i++ {
		require.NoError(t, cl.Log(i, TriggerDexFilesChanged, startTime+i, ExitCompilationFailed))
	}

	require.Equal(t, 2, cl.NumberOfEntries())
	got, ok := cl.Peek(0)
	require.True(t, ok)
	assert.Equal(t, int64(3), got.ApexVersion)
}

func TestShouldAttemptCompile_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadBackoffDataset(t)
	require.NotEmpty(t, dataset.Cases)

	for _, c := range dataset.Cases {
		t.Run(c.Name, func(t *testing.T) {
			cl := mustLedger(t, nil, WithMaxEntries(len(c.Entries)+1))
			for _, e := range c.Entries {
				require.NoError(t, cl.Log(e.ApexVersion, Trigger(e.Trigger), e.When, ExitCode(e.ExitCode)))
			}
			for _, q := range c.Queries {
				got := cl.ShouldAttemptCompile(q.ApexVersion, Trigger(q.Trigger), q.Now)
				assert.Equal(t, q.Want, got,
					"apex_version=%d trigger=%d now=%d", q.ApexVersion, q.Trigger, q.Now)
			}
		})
	}
}
