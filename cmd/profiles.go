package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aot-advisor/aot-advisor/advisor/gate"
	"github.com/aot-advisor/aot-advisor/advisor/trace"
)

var (
	profilesReference     string // Reference baseline profile path
	profilesForceMerge    bool   // Merge and write back without a significance test
	profilesBootImage     bool   // Tolerate snapshot version mismatches
	profilesMinNewMethods uint32 // Inclusive new-methods significance threshold
	profilesMinNewClasses uint32 // Inclusive new-classes significance threshold
	profilesLockTimeout   time.Duration
)

// profilesCmd merges the given profile snapshots into the reference baseline
// and exits with the gate's pinned result code; the install daemon consumes
// the exit status directly.
var profilesCmd = &cobra.Command{
	Use:   "profiles <input>...",
	Short: "Merge profile snapshots into the baseline and report change significance",
	Args:  cobra.MinimumNArgs(1),
}

// runProfiles performs the gate invocation and returns its verdict. Split out
// from Run so tests can exercise it without the process exit.
func runProfiles(inputs []string) gate.Result {
	cfg, err := loadConfig(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	opts := cfg.GateOptions()
	if flagChanged(profilesCmd, "force-merge") {
		opts.ForceMerge = profilesForceMerge
	}
	if flagChanged(profilesCmd, "boot-image-merge") {
		opts.BootImageMerge = profilesBootImage
	}
	if flagChanged(profilesCmd, "min-new-methods-percent") {
		opts.MinNewMethodsPercent = profilesMinNewMethods
	}
	if flagChanged(profilesCmd, "min-new-classes-percent") {
		opts.MinNewClassesPercent = profilesMinNewClasses
	}
	timeout := cfg.LockTimeout()
	if flagChanged(profilesCmd, "lock-timeout") {
		timeout = profilesLockTimeout
	}
	if profilesReference == "" {
		logrus.Fatalf("--reference is required")
	}

	g := gate.NewSystem(timeout)
	result := g.ProcessProfiles(inputs, profilesReference, nil, opts)

	tr := trace.New()
	tr.RecordGate(trace.GateRecord{
		Result:     result.String(),
		ForceMerge: opts.ForceMerge,
		Inputs:     len(inputs),
	})
	summary := trace.Summarize(tr)
	logrus.Debugf("profile gate summary: %v", summary.ResultDistribution)

	logrus.Infof("Profile gate verdict: %s (exit %d)", result, result.ExitCode())
	return result
}

// flagChanged reports whether the user set the named flag explicitly.
func flagChanged(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name)
}

func init() {
	// Assigned here rather than in the composite literal to avoid an
	// initialization cycle (runProfiles refers back to profilesCmd).
	profilesCmd.Run = func(cmd *cobra.Command, args []string) {
		os.Exit(runProfiles(args).ExitCode())
	}
	profilesCmd.Flags().StringVar(&profilesReference, "reference", "", "Reference baseline profile path")
	profilesCmd.Flags().BoolVar(&profilesForceMerge, "force-merge", false, "Write the merged result back without a significance test")
	profilesCmd.Flags().BoolVar(&profilesBootImage, "boot-image-merge", false, "Tolerate snapshot version mismatches (boot image merge)")
	profilesCmd.Flags().Uint32Var(&profilesMinNewMethods, "min-new-methods-percent", 20, "Inclusive significance threshold on new method records")
	profilesCmd.Flags().Uint32Var(&profilesMinNewClasses, "min-new-classes-percent", 20, "Inclusive significance threshold on new class records")
	profilesCmd.Flags().DurationVar(&profilesLockTimeout, "lock-timeout", 0, "Advisory lock timeout (0 = block indefinitely)")

	rootCmd.AddCommand(profilesCmd)
}
