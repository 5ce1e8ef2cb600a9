// Package upload pushes finished result tables to remote object storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Provider is a configured destination for result artifacts.
type Provider interface {
	// Upload streams content to the remote path.
	Upload(ctx context.Context, reader io.Reader, remotePath string) error

	// Configure sets up the provider from an option map.
	Configure(opts map[string]any) error

	// Name returns the provider name.
	Name() string
}

// Factory creates an unconfigured provider instance.
type Factory func() Provider

var registry = map[string]Factory{}

// Register makes a provider available by name.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New returns an unconfigured provider by name.
func New(name string) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("upload: unknown provider %q", name)
	}
	return factory(), nil
}

// File uploads one local file to the remote path.
func File(ctx context.Context, p Provider, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("upload: open %s: %w", localPath, err)
	}
	defer f.Close()

	if err := p.Upload(ctx, f, remotePath); err != nil {
		return fmt.Errorf("upload: %s -> %s: %w", localPath, remotePath, err)
	}
	return nil
}
