package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rbmjitter",
		Short: "Line-of-sight jitter from wind-load rigid-body motion",
		Long: `rbmjitter turns the rigid-body motion of the primary and secondary
mirrors, recorded by a wind-loading simulation, into line-of-sight jitter.

It stacks the configured channels of a pickled record, applies the linear
transfer matrix from an npz archive, converts radians to milliarcseconds and
prints the per-axis standard deviation after the warm-up segment.

Run without a subcommand to analyze the configured inputs.

Each completed analysis is recorded in <root>/.rbmjitter/runs.db (see
"rbmjitter history"). Pass --no-history, set RBMJITTER_HISTORY=false or run
"rbmjitter config set history.enabled false" to leave the project untouched.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, "")
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory (holds .rbmjitter/)")
	addAnalysisFlags(rootCmd)

	rootCmd.AddCommand(
		newRunCmd(),
		newInspectCmd(),
		newExportCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
