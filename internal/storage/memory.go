package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// MemoryObjectStorage keeps objects in a map.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryObjectStorage(bucket string) *MemoryObjectStorage {
	return &MemoryObjectStorage{bucket: bucket, objects: make(map[string]memoryObject)}
}

func (m *MemoryObjectStorage) EnsureBucket(context.Context) error { return nil }

func (m *MemoryObjectStorage) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	return nil
}

func (m *MemoryObjectStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// SignedURL returns a memory:// reference; it is not fetchable over HTTP.
func (m *MemoryObjectStorage) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "memory://" + m.bucket + "/" + key, nil
}

func (m *MemoryObjectStorage) Bucket() string {
	return m.bucket
}

// ContentType reports the stored content type of key.
func (m *MemoryObjectStorage) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}
