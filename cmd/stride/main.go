package main

import (
	"os"

	"github.com/spf13/cobra"

	"stride/internal/gclog"
	"stride/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "stride",
	Short: "Stride managed-memory runtime workbench",
	Long:  `Stride hosts the managed runtime core and the tooling to exercise it: stress workloads, cycle inspection, and heap snapshots`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(stressCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to stride.toml (default: walk up from the working directory)")
	rootCmd.PersistentFlags().Int("log-verbosity", 0, "gc log verbosity (0=notice, 1=info, 2=debug)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		verbosity, err := cmd.Root().PersistentFlags().GetInt("log-verbosity")
		if err != nil {
			verbosity = 0
		}
		gclog.Init(verbosity)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
