package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quantbench/sweep/internal/catalog"
	"github.com/quantbench/sweep/internal/codec"
	"github.com/quantbench/sweep/internal/config"
	"github.com/quantbench/sweep/internal/grid"
	"github.com/quantbench/sweep/internal/parser"
	"github.com/quantbench/sweep/internal/report"
	"github.com/quantbench/sweep/internal/sched"
	"github.com/quantbench/sweep/internal/upload"
	"github.com/quantbench/sweep/internal/webhook"
)

var (
	runConfigPath string
	runVerbose    bool

	runCfgFlags config.Config

	runUploadFlags  UploadFlags
	runWebhookFlags WebhookFlags
)

// progressInterval controls how often the completed count is echoed.
const progressInterval = 10

var runCmd = &cobra.Command{
	Use:   "run [flags]",
	Short: "Run the full benchmark sweep and write CSV result tables",
	Long: `Run enumerates transforms × images × quantization scales, invokes the
codec binary once per combination in parallel, and writes sorted CSV
tables to the output directory. Configuration comes from a YAML file
(--config) and/or flags; flags win.

The final run summary is printed to stdout as JSON and can optionally be
delivered to a webhook; the CSV artifacts can be uploaded to object
storage.`,
	Example: `  sweep run --config sweep.yaml
  sweep run --binary ./simple_pipeline --datasets Datasets --transforms DCT,HAAR --scales 1,2,4 --schema 9
  sweep run --config sweep.yaml --upload-provider minio --upload-config-kv endpoint=localhost:9000`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	schema := parser.Schema(cfg.Schema)

	webhookCfg, err := buildWebhookConfig(runWebhookFlags)
	if err != nil {
		return err
	}
	provider, err := buildUploadProvider(runUploadFlags)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Binary); err != nil {
		return fmt.Errorf("codec binary %s not found: %w", cfg.Binary, err)
	}

	entries, err := catalog.Scan(cfg.DatasetsDir, catalog.Options{
		SamplePerDataset: cfg.Sample,
		Seed:             cfg.Seed,
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no images found under %s", cfg.DatasetsDir)
	}

	tasks := grid.Generate(entries, cfg.Transforms, cfg.Scales, grid.Options{
		PerTransformScales: cfg.PerTransformScales,
		SavePrefix:         cfg.SavePrefix,
		ChunkSize:          cfg.ChunkSize,
	})

	fmt.Fprintf(os.Stderr, "Found %d images across %d datasets; %d tasks total\n",
		len(entries), countDatasets(entries), len(tasks))

	pool := &sched.Pool{
		Workers: cfg.Workers,
		Run: sched.NewRunner(&codec.Invoker{
			Binary:  cfg.Binary,
			Timeout: cfg.TimeoutDuration(),
		}, schema),
		OnProgress: func(completed, total int) {
			if completed%progressInterval == 0 || completed == total {
				fmt.Fprintf(os.Stderr, "Progress: %d/%d tasks completed\n", completed, total)
			}
		},
	}

	start := time.Now()
	records := pool.Execute(context.Background(), tasks)
	elapsed := time.Since(start)

	artifacts, err := writeArtifacts(&cfg, schema, records)
	if err != nil {
		return err
	}
	for _, artifact := range artifacts {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", artifact)
	}

	success, failed := report.Tally(records)
	summary := &report.RunSummary{
		RunID:      uuid.NewString(),
		Binary:     cfg.Binary,
		Schema:     cfg.Schema,
		Transforms: cfg.Transforms,
		Images:     len(entries),
		Total:      len(records),
		Success:    success,
		Failed:     failed,
		DurationMS: elapsed.Milliseconds(),
		Artifacts:  artifacts,
	}

	if provider != nil {
		if err := uploadArtifacts(provider, summary.RunID, artifacts); err != nil {
			return err
		}
	}

	if webhookCfg != nil {
		sendSummary(webhookCfg, summary)
	}

	return outputJSON(summary)
}

// resolveConfig loads the YAML config (or defaults) and layers changed
// flags on top, then validates the merged result.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.Load(runConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("binary") {
		cfg.Binary = runCfgFlags.Binary
	}
	if flags.Changed("datasets") {
		cfg.DatasetsDir = runCfgFlags.DatasetsDir
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = runCfgFlags.OutputDir
	}
	if flags.Changed("schema") {
		cfg.Schema = runCfgFlags.Schema
	}
	if flags.Changed("transforms") {
		cfg.Transforms = runCfgFlags.Transforms
	}
	if flags.Changed("scales") {
		cfg.Scales = runCfgFlags.Scales
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = runCfgFlags.ChunkSize
	}
	if flags.Changed("save-prefix") {
		cfg.SavePrefix = runCfgFlags.SavePrefix
	}
	if flags.Changed("timeout") {
		cfg.Timeout = runCfgFlags.Timeout
	}
	if flags.Changed("workers") {
		cfg.Workers = runCfgFlags.Workers
	}
	if flags.Changed("sample") {
		cfg.Sample = runCfgFlags.Sample
	}
	if flags.Changed("seed") {
		cfg.Seed = runCfgFlags.Seed
	}
	if flags.Changed("split-by-transform") {
		cfg.SplitByTransform = runCfgFlags.SplitByTransform
	}
	if flags.Changed("summary") {
		cfg.Summary = runCfgFlags.Summary
	}

	config.Normalize(&cfg)
	if err := config.Validate(&cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// writeArtifacts sorts the records and writes either one combined table
// or one table per transform, returning the file paths written.
func writeArtifacts(cfg *config.Config, schema parser.Schema, records []report.Record) ([]string, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", cfg.OutputDir, err)
	}

	includeScale := cfg.ChunkSize == 0
	if !cfg.SplitByTransform {
		layout := report.Layout{IncludeTransform: true, IncludeScale: includeScale, Schema: schema}
		out := filepath.Join(cfg.OutputDir, "results.csv")
		if err := writeTable(out, layout, records, cfg.Summary); err != nil {
			return nil, err
		}
		return []string{out}, nil
	}

	// Per-transform files drop the transform column; the file name
	// carries it instead.
	layout := report.Layout{IncludeTransform: false, IncludeScale: includeScale, Schema: schema}
	var artifacts []string
	for _, transform := range cfg.Transforms {
		out := filepath.Join(cfg.OutputDir, transform+"_results.csv")
		if err := writeTable(out, layout, report.FilterTransform(records, transform), cfg.Summary); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, out)
	}
	return artifacts, nil
}

func writeTable(path string, layout report.Layout, records []report.Record, withSummary bool) error {
	report.Sort(records)

	var summary []report.SummaryRow
	if withSummary {
		summary = report.Summarize(records, report.MetricColumns(layout.Schema))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := report.WriteCSV(f, layout, records, summary); err != nil {
		return err
	}
	return f.Close()
}

func uploadArtifacts(provider upload.Provider, runID string, artifacts []string) error {
	ctx := context.Background()
	for _, artifact := range artifacts {
		remote := path.Join(runID, filepath.Base(artifact))
		if err := upload.File(ctx, provider, artifact, remote); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Uploaded %s -> %s\n", artifact, remote)
	}
	return nil
}

// sendSummary delivers the summary to the webhook; delivery failure is
// recorded on the summary, never fatal to the run.
func sendSummary(cfg *webhook.Config, summary *report.RunSummary) {
	client := webhook.NewClient(*cfg, runVerbose)
	if runVerbose {
		fmt.Fprintf(os.Stderr, "[WEBHOOK] Sending to %s\n", cfg.URL)
	}

	payload := *summary
	payload.WebhookSent = false
	payload.WebhookError = ""

	if err := client.Send(context.Background(), &payload); err != nil {
		fmt.Fprintf(os.Stderr, "[WEBHOOK] Error: %v\n", err)
		summary.WebhookError = err.Error()
		return
	}
	summary.WebhookSent = true
}

func countDatasets(entries []catalog.Entry) int {
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Dataset] = true
	}
	return len(seen)
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to YAML sweep configuration")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Verbose progress output")

	runCmd.Flags().StringVar(&runCfgFlags.Binary, "binary", "", "Path to the codec executable")
	runCmd.Flags().StringVar(&runCfgFlags.DatasetsDir, "datasets", "", "Dataset root directory")
	runCmd.Flags().StringVar(&runCfgFlags.OutputDir, "output-dir", "results", "Directory for CSV artifacts")
	runCmd.Flags().IntVar(&runCfgFlags.Schema, "schema", 9, "Stdout tuple schema the codec emits (5, 6, or 9)")
	runCmd.Flags().StringSliceVar(&runCfgFlags.Transforms, "transforms", nil, "Transforms to sweep (e.g. DCT,DFT,HAAR,SP)")
	runCmd.Flags().Float64SliceVar(&runCfgFlags.Scales, "scales", nil, "Quantization scales to sweep")
	runCmd.Flags().IntVar(&runCfgFlags.ChunkSize, "chunk-size", 0, "Use the chunked argv contract with this chunk size")
	runCmd.Flags().StringVar(&runCfgFlags.SavePrefix, "save-prefix", "", "Save-path prefix passed to the codec for image artifacts")
	runCmd.Flags().StringVar(&runCfgFlags.Timeout, "timeout", "300s", "Per-invocation wall-clock budget")
	runCmd.Flags().IntVar(&runCfgFlags.Workers, "workers", 0, "Worker pool size (0 = available CPUs)")
	runCmd.Flags().IntVar(&runCfgFlags.Sample, "sample", 0, "Images sampled per dataset (0 = all)")
	runCmd.Flags().Int64Var(&runCfgFlags.Seed, "seed", 0, "Seed for deterministic sampling")
	runCmd.Flags().BoolVar(&runCfgFlags.SplitByTransform, "split-by-transform", false, "Write one CSV per transform")
	runCmd.Flags().BoolVar(&runCfgFlags.Summary, "summary", false, "Append summary statistics rows to each table")

	// Upload flags
	runCmd.Flags().StringVar(&runUploadFlags.Provider, "upload-provider", "", "Upload provider for artifacts (e.g. minio)")
	runCmd.Flags().StringVar(&runUploadFlags.Config, "upload-config", "", "Upload configuration as JSON string")
	runCmd.Flags().StringArrayVar(&runUploadFlags.ConfigKV, "upload-config-kv", nil, "Upload config key=value pairs (repeatable)")
	runCmd.Flags().StringVar(&runUploadFlags.ConfigFile, "upload-config-file", "", "Path to JSON upload configuration file")

	// Webhook flags
	runCmd.Flags().StringVar(&runWebhookFlags.URL, "webhook-url", "", "Webhook URL for the run summary")
	runCmd.Flags().StringVar(&runWebhookFlags.AuthType, "webhook-auth-type", "none", "Authentication type: none, bearer, api-key")
	runCmd.Flags().StringVar(&runWebhookFlags.AuthToken, "webhook-auth-token", "", "Authentication token")
	runCmd.Flags().IntVar(&runWebhookFlags.Retries, "webhook-retries", 3, "Maximum webhook retry attempts")
	runCmd.Flags().StringVar(&runWebhookFlags.RetryDelay, "webhook-retry-delay", "1s", "Initial delay between webhook retries")
	runCmd.Flags().StringVar(&runWebhookFlags.Timeout, "webhook-timeout", "30s", "Total webhook timeout including retries")
}
