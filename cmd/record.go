package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aot-advisor/aot-advisor/advisor"
)

var (
	recordApexVersion int64  // Installed runtime module version at attempt time
	recordTrigger     string // Trigger name of the attempt
	recordExitCode    int32  // Attempt outcome code
	recordWhen        int64  // Attempt timestamp override (unix seconds, 0 = now)
)

// recordCmd appends one compilation-attempt outcome to the ledger.
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a compilation attempt outcome in the ledger",
	Run: func(cmd *cobra.Command, args []string) {
		trig, err := advisor.TriggerFromName(recordTrigger)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		cl, _, err := openLedger()
		if err != nil {
			logrus.Fatalf("Failed to open ledger: %v", err)
		}

		code := advisor.ExitCode(recordExitCode)
		if recordWhen != 0 {
			err = cl.Log(recordApexVersion, trig, recordWhen, code)
		} else {
			err = cl.LogNow(recordApexVersion, trig, code)
		}
		if err != nil {
			logrus.Fatalf("Failed to record attempt: %v", err)
		}
		logrus.Infof("Recorded attempt apex_version=%d trigger=%s exit_code=%d (%d entries retained)",
			recordApexVersion, trig, recordExitCode, cl.NumberOfEntries())
	},
}

func init() {
	recordCmd.Flags().StringVar(&ledgerPath, "ledger", "", "Path of the compilation-attempt ledger (empty = in-memory)")
	recordCmd.Flags().Int64Var(&recordApexVersion, "apex-version", 0, "Installed runtime module version")
	recordCmd.Flags().StringVar(&recordTrigger, "trigger", "unknown", "Trigger name (unknown, apex-version-mismatch, dex-files-changed, missing-artifacts)")
	recordCmd.Flags().Int32Var(&recordExitCode, "exit-code", int32(advisor.ExitCompilationFailed), "Attempt exit code (0=okay, 1=compilation-required, 2=success, 3=failed, 4=cleanup-failed)")
	recordCmd.Flags().Int64Var(&recordWhen, "when", 0, "Attempt time as unix seconds (0 = current time)")

	rootCmd.AddCommand(recordCmd)
}
