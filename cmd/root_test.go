package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aot-advisor/aot-advisor/advisor"
	"github.com/aot-advisor/aot-advisor/advisor/gate"
	"github.com/aot-advisor/aot-advisor/advisor/profiles"
)

func TestOpenLedger_PersistsAcrossInvocations(t *testing.T) {
	ledgerPath = filepath.Join(t.TempDir(), "ledger.txt")
	configPath = ""
	defer func() { ledgerPath = "" }()

	cl, _, err := openLedger()
	require.NoError(t, err)
	require.NoError(t, cl.Log(7, advisor.TriggerDexFilesChanged, 1000, advisor.ExitCompilationFailed))

	// A second invocation of the CLI sees the recorded attempt.
	cl2, tr, err := openLedger()
	require.NoError(t, err)
	assert.Equal(t, 1, cl2.NumberOfEntries())
	assert.False(t, cl2.ShouldAttemptCompile(7, advisor.TriggerDexFilesChanged, 1000))
	assert.Len(t, tr.Checks, 1)
}

func TestRunProfiles_CompileVerdict(t *testing.T) {
	dir := t.TempDir()
	base := profiles.NewData()
	for _, m := range []string{"a()", "b()", "c()", "d()", "e()"} {
		base.Methods[m] = 1
	}
	withNew := base.Clone()
	withNew.Methods["new()"] = 1

	input := writeSnapshotFile(t, filepath.Join(dir, "input.prof"), withNew)
	reference := writeSnapshotFile(t, filepath.Join(dir, "ref.prof"), base)

	profilesReference = reference
	configPath = ""
	defer func() { profilesReference = "" }()

	result := runProfiles([]string{input})

	// One new method in five: 20%, at the inclusive default threshold.
	assert.Equal(t, gate.ResultCompile, result)
	assert.Equal(t, 1, result.ExitCode())
}

func writeSnapshotFile(t *testing.T, path string, d *profiles.Data) string {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, profiles.Format(f, d))
	require.NoError(t, f.Close())
	return path
}
