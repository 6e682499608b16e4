package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// GCSProvider uploads artifacts to a Google Cloud Storage bucket.
// Authentication uses Application Default Credentials.
type GCSProvider struct {
	client *storage.Client
	bucket string
}

// NewGCSProvider creates the client and verifies the bucket is reachable,
// so misconfiguration fails at startup instead of after a full crawl.
func NewGCSProvider(ctx context.Context, bucket string) (*GCSProvider, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("bucket %q attrs: %w", bucket, err)
	}
	return &GCSProvider{client: client, bucket: bucket}, nil
}

// Upload writes the file under destFolder in the bucket, keyed by its base
// name, and returns the gs:// URI.
func (g *GCSProvider) Upload(ctx context.Context, localPath, destFolder string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read artifact %s: %w", localPath, err)
	}

	object := path.Join(destFolder, filepath.Base(localPath))
	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", object, err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, object), nil
}

// Close releases the underlying client.
func (g *GCSProvider) Close() error {
	return g.client.Close()
}
