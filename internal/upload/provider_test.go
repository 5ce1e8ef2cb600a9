package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type fakeProvider struct {
	configured map[string]any
	uploads    map[string]string
	failWith   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Configure(opts map[string]any) error {
	f.configured = opts
	return nil
}

func (f *fakeProvider) Upload(ctx context.Context, reader io.Reader, remotePath string) error {
	if f.failWith != nil {
		return f.failWith
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if f.uploads == nil {
		f.uploads = map[string]string{}
	}
	f.uploads[remotePath] = string(data)
	return nil
}

func TestRegistry(t *testing.T) {
	fake := &fakeProvider{}
	Register("fake", func() Provider { return fake })

	p, err := New("fake")
	if err != nil {
		t.Fatalf("New(fake) error = %v", err)
	}
	if p.Name() != "fake" {
		t.Errorf("Name() = %q", p.Name())
	}

	if _, err := New("nonexistent"); err == nil {
		t.Error("New(nonexistent) expected error")
	}
}

func TestMinioRegistered(t *testing.T) {
	p, err := New("minio")
	if err != nil {
		t.Fatalf("New(minio) error = %v", err)
	}
	if p.Name() != "minio" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "results.csv")
	content := "dataset,image_path\nkodak,kodim01.png\n"
	if err := os.WriteFile(local, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeProvider{}
	if err := File(context.Background(), fake, local, "run-1/results.csv"); err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if got := fake.uploads["run-1/results.csv"]; got != content {
		t.Errorf("uploaded content = %q, want %q", got, content)
	}
}

func TestFileMissingLocal(t *testing.T) {
	fake := &fakeProvider{}
	err := File(context.Background(), fake, filepath.Join(t.TempDir(), "nope.csv"), "x")
	if err == nil {
		t.Fatal("File() expected error for missing local file")
	}
}

func TestMinioConfigureMissingOptions(t *testing.T) {
	p, err := New("minio")
	if err != nil {
		t.Fatal(err)
	}
	err = p.Configure(map[string]any{"endpoint": "localhost:9000"})
	if err == nil {
		t.Fatal("Configure() expected error for missing required options")
	}
}
