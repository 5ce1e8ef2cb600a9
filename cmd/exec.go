package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quantbench/sweep/internal/codec"
	"github.com/quantbench/sweep/internal/grid"
	"github.com/quantbench/sweep/internal/parser"
	"github.com/quantbench/sweep/internal/sched"
)

var (
	execBinary     string
	execTransform  string
	execImage      string
	execScale      float64
	execChunkSize  int
	execSavePrefix string
	execSchema     int
	execTimeoutStr string
)

var execCmd = &cobra.Command{
	Use:   "exec --binary <codec> --transform <name> --image <path> [flags]",
	Short: "Run the codec once and print the parsed record as JSON",
	Long: `Exec performs a single codec invocation for one transform, image, and
quantization scale, parses the stdout metrics under the configured
schema, and prints the resulting record as JSON.

Useful for probing which schema a codec build emits before launching a
full sweep. Failures are reported in the record's error field; the exec
command itself still exits zero.`,
	Example: `  sweep exec --binary ./simple_pipeline --transform DCT --image Datasets/Kodak/1.png --scale 2.0 --schema 9
  sweep exec --binary ./simple_pipeline --transform SP --image img.png --chunk-size 512 --schema 5`,
	RunE: execOnce,
}

func execOnce(cmd *cobra.Command, args []string) error {
	timeout, err := parseDurationFlag(execTimeoutStr, "timeout")
	if err != nil {
		return err
	}
	schema := parser.Schema(execSchema)
	if !schema.Valid() {
		return fmt.Errorf("schema must be 5, 6, or 9, got %d", execSchema)
	}

	task := grid.Task{
		Transform: execTransform,
		// Dataset name is the image's parent directory, as in sweeps.
		Dataset:    filepath.Base(filepath.Dir(execImage)),
		ImagePath:  execImage,
		SavePrefix: execSavePrefix,
		ChunkSize:  execChunkSize,
	}
	if execChunkSize == 0 {
		task.Scale = execScale
		task.HasScale = true
	}

	run := sched.NewRunner(&codec.Invoker{Binary: execBinary, Timeout: timeout}, schema)
	record := run(context.Background(), task)
	return outputJSON(&record)
}

func init() {
	execCmd.Flags().StringVar(&execBinary, "binary", "", "Path to the codec executable (required)")
	execCmd.Flags().StringVar(&execTransform, "transform", "", "Transform name (required)")
	execCmd.Flags().StringVar(&execImage, "image", "", "Input image path (required)")
	execCmd.Flags().Float64Var(&execScale, "scale", 1.0, "Quantization scale")
	execCmd.Flags().IntVar(&execChunkSize, "chunk-size", 0, "Use the chunked argv contract with this chunk size")
	execCmd.Flags().StringVar(&execSavePrefix, "save-prefix", "", "Save-path prefix passed to the codec")
	execCmd.Flags().IntVar(&execSchema, "schema", 9, "Stdout tuple schema the codec emits (5, 6, or 9)")
	execCmd.Flags().StringVar(&execTimeoutStr, "timeout", "300s", "Wall-clock budget for the invocation")

	_ = execCmd.MarkFlagRequired("binary")
	_ = execCmd.MarkFlagRequired("transform")
	_ = execCmd.MarkFlagRequired("image")
}
