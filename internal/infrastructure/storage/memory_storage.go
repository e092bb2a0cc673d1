package storage

import (
	"context"
	"sync"
	"time"
)

// Object is a stored blob with its content type
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryObjectStorage keeps objects in memory. It backs snapshot exports in
// tests and local runs without an S3 endpoint.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]Object
}

// NewMemoryObjectStorage creates an empty in-memory bucket
func NewMemoryObjectStorage(bucket string) *MemoryObjectStorage {
	return &MemoryObjectStorage{bucket: bucket, objects: make(map[string]Object)}
}

// Upload stores a copy of data under key
func (m *MemoryObjectStorage) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

// GenerateDownloadURL returns a memory:// link for key
func (m *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = DefaultPresignExpiration
	}
	return "memory://" + m.bucket + "/" + key, time.Now().Add(expiresIn), nil
}

// Bucket returns the bucket name
func (m *MemoryObjectStorage) Bucket() string {
	return m.bucket
}

// Get returns the object stored under key
func (m *MemoryObjectStorage) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}
