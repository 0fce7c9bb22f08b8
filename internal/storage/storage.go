package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the object operations shared by backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// PhotoStore stores profile photos in an object-storage backend.
type PhotoStore struct {
	backend ObjectStorage
}

// NewPhotoStore wraps the provided backend.
func NewPhotoStore(backend ObjectStorage) *PhotoStore {
	return &PhotoStore{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *PhotoStore) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads a photo under the given key.
func (s *PhotoStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for a stored photo.
func (s *PhotoStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes a stored photo.
func (s *PhotoStore) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *PhotoStore) Bucket() string {
	return s.backend.Bucket()
}
