// Package storage provides the object stores output tables are written to.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Driver identifies a concrete storage backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests, dry runs)
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // User metadata (small, flat key-value)
}

// Info describes a stored object.
type Info struct {
	Key          string            `yaml:"key"`
	Size         int64             `yaml:"size_bytes"`
	ContentType  string            `yaml:"content_type,omitempty"`
	ETag         string            `yaml:"etag,omitempty"`
	Metadata     map[string]string `yaml:"metadata,omitempty"`
	LastModified time.Time         `yaml:"last_modified"`
}

// Store is a minimal S3-like abstraction. Put overwrites existing keys so
// every run regenerates its outputs from scratch.
type Store interface {
	// Put stores r at key, replacing any previous object.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get retrieves the object contents and metadata.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// List returns objects whose key has the provided prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Driver returns the configured backend driver.
	Driver() Driver
}

// Config selects and configures a storage driver
type Config struct {
	Driver Driver
	// Root directory for the filesystem driver
	Root string
	S3   S3Config
}

// Open constructs the store selected by cfg.Driver
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return NewFileStore(cfg.Root)
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
