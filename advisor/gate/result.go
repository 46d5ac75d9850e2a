package gate

// Result is the outcome of a profile-processing run. The numeric values are
// consumed as process exit statuses by the external install daemon and must
// never be renumbered.
type Result int

const (
	ResultSuccess                Result = 0 // generic success for non-decision runs
	ResultCompile                Result = 1 // significant change merged into the baseline
	ResultSkipCompilation        Result = 2 // change below thresholds, baseline untouched
	ResultErrorBadProfiles       Result = 3 // structurally invalid profile content
	ResultErrorIO                Result = 4 // failed to read or write profile bytes
	ResultErrorCannotLock        Result = 5 // could not acquire an advisory lock
	ResultErrorDifferentVersions Result = 6 // mixed snapshot versions without boot-image merge
)

var resultNames = map[Result]string{
	ResultSuccess:                "success",
	ResultCompile:                "compile",
	ResultSkipCompilation:        "skip-compilation",
	ResultErrorBadProfiles:       "error-bad-profiles",
	ResultErrorIO:                "error-io",
	ResultErrorCannotLock:        "error-cannot-lock",
	ResultErrorDifferentVersions: "error-different-versions",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return "result(?)"
}

// ExitCode returns the process exit status for r.
func (r Result) ExitCode() int {
	return int(r)
}
