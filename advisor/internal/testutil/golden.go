// Package testutil provides shared test infrastructure for the advisor.
// It consolidates the golden backoff dataset types and loader used by the
// advisor package tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// BackoffDataset represents the structure of testdata/backoff_golden.json.
type BackoffDataset struct {
	Cases []BackoffCase `json:"cases"`
}

// BackoffCase is one ledger scenario: a sequence of logged attempts and the
// expected verdicts for a set of queries against the resulting ledger.
type BackoffCase struct {
	Name    string         `json:"name"`
	Entries []GoldenEntry  `json:"entries"`
	Queries []BackoffQuery `json:"queries"`
}

// GoldenEntry is one logged attempt in a golden scenario.
type GoldenEntry struct {
	ApexVersion int64 `json:"apex_version"`
	Trigger     int32 `json:"trigger"`
	When        int64 `json:"when"`
	ExitCode    int32 `json:"exit_code"`
}

// BackoffQuery is one ShouldAttemptCompile probe with its expected verdict.
type BackoffQuery struct {
	ApexVersion int64 `json:"apex_version"`
	Trigger     int32 `json:"trigger"`
	Now         int64 `json:"now"`
	Want        bool  `json:"want"`
}

// LoadBackoffDataset loads the golden backoff dataset from the testdata
// directory. The path is resolved relative to this source file:
// advisor/internal/testutil/ → advisor/testdata/.
func LoadBackoffDataset(t *testing.T) *BackoffDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "backoff_golden.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read backoff golden dataset: %v", err)
	}

	var dataset BackoffDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse backoff golden dataset: %v", err)
	}

	return &dataset
}
