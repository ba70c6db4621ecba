// Package gcs stores key files in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Config names the destination bucket.
type Config struct {
	Bucket string
}

// WriterFactory opens a writer for bucket/path. The returned writer must
// commit the object on Close.
type WriterFactory func(ctx context.Context, bucket, path, contentType string) io.WriteCloser

// ClientWriters adapts a storage client into a WriterFactory.
func ClientWriters(client *storage.Client) WriterFactory {
	return func(ctx context.Context, bucket, path, contentType string) io.WriteCloser {
		w := client.Bucket(bucket).Object(path).NewWriter(ctx)
		w.ContentType = contentType
		w.CacheControl = "no-cache"
		return w
	}
}

// BlobStore writes objects to the configured bucket.
type BlobStore struct {
	open   WriterFactory
	bucket string
}

// New creates a GCS-backed blob store from a storage client.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	return NewWithWriters(ClientWriters(client), cfg)
}

// NewWithWriters creates a blob store over an arbitrary writer factory.
func NewWithWriters(open WriterFactory, cfg Config) (*BlobStore, error) {
	if open == nil {
		return nil, fmt.Errorf("writer factory is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{open: open, bucket: cfg.Bucket}, nil
}

// PutObject uploads r and returns a gs:// URI.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	writer := s.open(ctx, s.bucket, path, contentType)
	if _, err := io.Copy(writer, r); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, path), nil
}
