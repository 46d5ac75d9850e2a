package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aot-advisor/aot-advisor/advisor"
	"github.com/aot-advisor/aot-advisor/advisor/trace"
)

var (
	checkApexVersion int64  // Installed runtime module version
	checkTrigger     string // Trigger name for the check
	checkWhen        int64  // Decision time override (unix seconds, 0 = now)
)

// checkCmd evaluates the ledger's backoff rule for one (version, trigger) pair.
// Exit status is ExitCompilationRequired (1) when an attempt is advised and
// ExitOkay (0) when the attempt should be suppressed.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the attempt ledger whether a recompilation should run",
	Run: func(cmd *cobra.Command, args []string) {
		trig, err := advisor.TriggerFromName(checkTrigger)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		cl, tr, err := openLedger()
		if err != nil {
			logrus.Fatalf("Failed to open ledger: %v", err)
		}

		var attempt bool
		if checkWhen != 0 {
			attempt = cl.ShouldAttemptCompile(checkApexVersion, trig, checkWhen)
		} else {
			attempt = cl.ShouldAttemptCompileNow(checkApexVersion, trig)
		}

		summary := trace.Summarize(tr)
		logrus.Debugf("check summary: %d checks, %d attempts advised, %d suppressed",
			summary.TotalChecks, summary.AttemptCount, summary.SuppressedCount)

		if attempt {
			logrus.Infof("Compilation attempt advised for apex_version=%d trigger=%s", checkApexVersion, trig)
			os.Exit(int(advisor.ExitCompilationRequired))
		}
		logrus.Infof("Compilation attempt suppressed for apex_version=%d trigger=%s", checkApexVersion, trig)
		os.Exit(int(advisor.ExitOkay))
	},
}

// openLedger builds the ledger from the --ledger flag and config defaults,
// with a decision trace attached.
func openLedger() (*advisor.CompilationLog, *trace.Trace, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	var storage advisor.Storage
	if ledgerPath != "" {
		storage = advisor.NewFileStorage(ledgerPath)
	}
	tr := trace.New()
	cl, err := advisor.NewCompilationLog(storage,
		advisor.WithMaxEntries(cfg.Ledger.MaxEntries),
		advisor.WithTrace(tr),
	)
	if err != nil {
		return nil, nil, err
	}
	return cl, tr, nil
}

func init() {
	checkCmd.Flags().StringVar(&ledgerPath, "ledger", "", "Path of the compilation-attempt ledger (empty = in-memory)")
	checkCmd.Flags().Int64Var(&checkApexVersion, "apex-version", 0, "Installed runtime module version")
	checkCmd.Flags().StringVar(&checkTrigger, "trigger", "unknown", "Trigger name (unknown, apex-version-mismatch, dex-files-changed, missing-artifacts)")
	checkCmd.Flags().Int64Var(&checkWhen, "when", 0, "Decision time as unix seconds (0 = current time)")

	rootCmd.AddCommand(checkCmd)
}
