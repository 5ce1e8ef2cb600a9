package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantbench/sweep/internal/options"
	"github.com/quantbench/sweep/internal/upload"
	"github.com/quantbench/sweep/internal/webhook"
)

// UploadFlags holds the artifact-upload flag values shared by commands.
type UploadFlags struct {
	Provider   string
	Config     string
	ConfigKV   []string
	ConfigFile string
}

// WebhookFlags holds the webhook flag values shared by commands.
type WebhookFlags struct {
	URL        string
	AuthType   string
	AuthToken  string
	Timeout    string
	Retries    int
	RetryDelay string
}

// uploadEnvPrefix names the environment variables consulted for upload
// options, e.g. SWEEP_UPLOAD_CONFIG_ENDPOINT.
const uploadEnvPrefix = "SWEEP_UPLOAD_CONFIG"

// buildUploadProvider assembles the option map from env, file, JSON, and
// key=value sources and returns a configured provider, or nil when no
// provider was requested.
func buildUploadProvider(flags UploadFlags) (upload.Provider, error) {
	if flags.Provider == "" {
		return nil, nil
	}

	opts, err := options.Build(uploadEnvPrefix, flags.Config, flags.ConfigKV, flags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload options: %w", err)
	}

	provider, err := upload.New(flags.Provider)
	if err != nil {
		return nil, err
	}
	if err := provider.Configure(opts); err != nil {
		return nil, fmt.Errorf("failed to configure upload provider: %w", err)
	}
	return provider, nil
}

// buildWebhookConfig parses the webhook flags; a nil result means no
// webhook was configured.
func buildWebhookConfig(flags WebhookFlags) (*webhook.Config, error) {
	if flags.URL == "" {
		return nil, nil
	}

	timeout, err := parseDurationFlag(flags.Timeout, "webhook-timeout")
	if err != nil {
		return nil, err
	}
	retryDelay, err := parseDurationFlag(flags.RetryDelay, "webhook-retry-delay")
	if err != nil {
		return nil, err
	}

	return &webhook.Config{
		URL:        flags.URL,
		AuthType:   flags.AuthType,
		AuthToken:  flags.AuthToken,
		Timeout:    timeout,
		Retries:    flags.Retries,
		RetryDelay: retryDelay,
	}, nil
}

func parseDurationFlag(value, name string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", name, err)
	}
	return d, nil
}

// outputJSON prints v as a single JSON line on stdout.
func outputJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
