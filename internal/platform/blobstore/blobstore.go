// Package blobstore stores rendered report documents behind a small
// driver-selectable interface. Three drivers are provided: an in-memory store
// for tests and dev, a filesystem store with JSON metadata sidecars, and an
// S3-compatible store for production archives.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Driver identifies a blob store backend.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverFS     Driver = "fs"
	DriverS3     Driver = "s3"
)

var (
	// ErrNotFound is returned when no blob exists under the requested key.
	ErrNotFound = errors.New("blob not found")
	// ErrExists is returned by Put when the key is already taken. Archive
	// keys are immutable once written.
	ErrExists = errors.New("blob already exists")
)

// PutOptions carries optional attributes stored alongside the blob.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the archive backend contract. Put is create-only: writing to an
// existing key fails with ErrExists.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Config selects and parameterizes a driver.
type Config struct {
	Driver      string
	FSRoot      string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// FromConfig constructs the configured Store.
func FromConfig(ctx context.Context, cfg Config) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverFS:
		return NewFSStore(cfg.FSRoot)
	case DriverS3:
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blobstore driver %q", cfg.Driver)
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
