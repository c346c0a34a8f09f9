package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"interviewapi/internal/config"
)

// Package storage contains file/object storage abstractions used for uploads and GPU outputs.
// Backends stream content; callers never load whole objects into memory.

// Backend names as stored in FileMetadata.StorageType.
const (
	BackendLocal = "local"
	BackendMinIO = "minio"
)

// ErrNotFound is returned when a key does not exist in the backend.
var ErrNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object storage client interface.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Backend reports the backend name (BackendLocal or BackendMinIO).
	Backend() string
}

// New builds the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case BackendLocal, "":
		return NewLocal(cfg.LocalPath)
	case BackendMinIO:
		return NewMinIO(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
