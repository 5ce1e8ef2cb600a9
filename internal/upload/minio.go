package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioProvider uploads result tables to a MinIO/S3 bucket.
type MinioProvider struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioProvider() *MinioProvider { return &MinioProvider{} }

func (m *MinioProvider) Name() string { return "minio" }

// Configure builds the client from the option map. Required keys:
// endpoint, access_key, secret_key, bucket. Optional: secure (default
// true), region, prefix.
func (m *MinioProvider) Configure(opts map[string]any) error {
	var missing []string
	required := func(key string) string {
		v := stringOpt(opts, key, "")
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	endpoint := required("endpoint")
	accessKey := required("access_key")
	secretKey := required("secret_key")
	bucket := required("bucket")
	if len(missing) > 0 {
		return fmt.Errorf("minio: missing required option(s) %v", missing)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: boolOpt(opts, "secure", true),
		Region: stringOpt(opts, "region", "us-east-1"),
	})
	if err != nil {
		return fmt.Errorf("minio: create client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return fmt.Errorf("minio: check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio: bucket %s does not exist", bucket)
	}

	m.client = client
	m.bucket = bucket
	m.prefix = stringOpt(opts, "prefix", "")
	return nil
}

// Upload streams one result table into the bucket as text/csv.
func (m *MinioProvider) Upload(ctx context.Context, reader io.Reader, remotePath string) error {
	if m.client == nil {
		return fmt.Errorf("minio: provider not configured")
	}

	objectName := remotePath
	if m.prefix != "" {
		objectName = path.Join(m.prefix, remotePath)
	}

	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, -1, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return fmt.Errorf("minio: put %s: %w", objectName, err)
	}
	return nil
}

func stringOpt(opts map[string]any, key, fallback string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func boolOpt(opts map[string]any, key string, fallback bool) bool {
	switch v := opts[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func init() {
	Register("minio", func() Provider { return NewMinioProvider() })
}
