package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Drive compression benchmark sweeps over an external codec",
	Long: `Sweep orchestrates large parameter sweeps of an external image
compression benchmark. It enumerates the grid of transforms, input
images, and quantization scales, runs the codec binary once per
combination in a bounded worker pool, parses the reported metrics, and
assembles sorted CSV tables with optional summary statistics.

Failed or timed-out invocations are recorded in the table's error
column; one row per task is always emitted.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(execCmd)
}
