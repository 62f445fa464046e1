package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/recoverytrack/apiserver/config"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// SignedURL returns a time-limited download link for key.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// NewFromConfig connects to the configured backend and ensures its bucket.
// It returns nil, nil when object storage is disabled.
func NewFromConfig(ctx context.Context, cfg config.Config) (*Storage, error) {
	var backend ObjectStorage
	switch cfg.ObjectStorage.Backend {
	case config.ObjectStorageMinio:
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		backend = client
	case config.ObjectStorageGCS:
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("gcs: %w", err)
		}
		backend = client
	case config.ObjectStorageNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported object storage backend %q", cfg.ObjectStorage.Backend)
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend), nil
}

// Upload stores data under key.
func (s *Storage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

// Get opens a reader for an object in the configured bucket.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// SignedURL returns a download link for key valid for ttl.
func (s *Storage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return s.backend.SignedURL(ctx, key, ttl)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
