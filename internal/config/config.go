// Package config loads and validates the sweep configuration. A sweep is
// described by a YAML file; command-line flags may override individual
// fields after loading.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantbench/sweep/internal/parser"
)

// Config describes one sweep run.
type Config struct {
	// Binary is the path to the compiled codec executable.
	Binary string `yaml:"binary"`

	// DatasetsDir is the dataset root; its immediate subdirectories are
	// the datasets.
	DatasetsDir string `yaml:"datasets_dir"`

	// OutputDir receives the CSV artifacts; created on demand.
	OutputDir string `yaml:"output_dir"`

	// Schema is the stdout tuple arity the codec build emits: 5, 6, or 9.
	Schema int `yaml:"schema"`

	Transforms []string  `yaml:"transforms"`
	Scales     []float64 `yaml:"scales"`

	// PerTransformScales overrides Scales per transform; scale semantics
	// are not comparable across transforms.
	PerTransformScales map[string][]float64 `yaml:"per_transform_scales"`

	// ChunkSize switches to the chunked invocation contract when positive.
	ChunkSize int `yaml:"chunk_size"`

	// SavePrefix, when set, makes the codec write reconstructed images.
	SavePrefix string `yaml:"save_prefix"`

	// Timeout is the per-invocation wall-clock budget, e.g. "300s".
	Timeout string `yaml:"timeout"`

	// Workers is the pool size; 0 means available CPU parallelism.
	Workers int `yaml:"workers"`

	// Sample keeps at most this many images per dataset (0 = all),
	// selected deterministically from Seed.
	Sample int   `yaml:"sample"`
	Seed   int64 `yaml:"seed"`

	// SplitByTransform writes one <TRANSFORM>_results.csv per transform
	// instead of a single combined table.
	SplitByTransform bool `yaml:"split_by_transform"`

	// Summary appends per-column statistics rows to each table.
	Summary bool `yaml:"summary"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		OutputDir: "results",
		Schema:    int(parser.Schema9),
		Timeout:   "300s",
	}
}

// Load reads, parses, normalizes, and validates a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize fills defaults for fields the file left empty.
func Normalize(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "results"
	}
	if cfg.Schema == 0 {
		cfg.Schema = int(parser.Schema9)
	}
	if cfg.Timeout == "" {
		cfg.Timeout = "300s"
	}
}

// Validate rejects configurations that cannot describe a runnable sweep.
func Validate(cfg *Config) error {
	if cfg.Binary == "" {
		return fmt.Errorf("config: binary is required")
	}
	if cfg.DatasetsDir == "" {
		return fmt.Errorf("config: datasets_dir is required")
	}
	if !parser.Schema(cfg.Schema).Valid() {
		return fmt.Errorf("config: schema must be 5, 6, or 9, got %d", cfg.Schema)
	}
	if len(cfg.Transforms) == 0 {
		return fmt.Errorf("config: at least one transform is required")
	}
	if cfg.ChunkSize < 0 {
		return fmt.Errorf("config: chunk_size must not be negative")
	}
	if cfg.ChunkSize == 0 && len(cfg.Scales) == 0 && len(cfg.PerTransformScales) == 0 {
		return fmt.Errorf("config: scales (or per_transform_scales, or chunk_size) is required")
	}
	for transform, scales := range cfg.PerTransformScales {
		if len(scales) == 0 {
			return fmt.Errorf("config: per_transform_scales for %s is empty", transform)
		}
	}
	if cfg.Sample < 0 {
		return fmt.Errorf("config: sample must not be negative")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative")
	}
	if _, err := time.ParseDuration(cfg.Timeout); err != nil {
		return fmt.Errorf("config: invalid timeout %q: %w", cfg.Timeout, err)
	}
	return nil
}

// TimeoutDuration returns the parsed per-invocation budget. Validate
// guarantees the string parses.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}
