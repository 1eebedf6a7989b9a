// Package filestore abstracts the object storage backend holding the schema
// snapshot archive.
//
// A snapshot introspected from a live warehouse is serialized and archived so
// that later sessions can validate queries without a warehouse connection.
// Callers depend only on this package; the provider packages (minio, and
// any future S3-compatible backend) stay behind the Store interface.
//
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	obj, err := store.Get(ctx, cfg.Bucket, cfg.SnapshotKey)
package filestore

import (
	"context"
	"io"
)

// Store is the contract every archive backend implements.
type Store interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases held resources.
	Close() error

	// Get opens a streaming handle to bucket/key. The caller owns the
	// returned Object and must Close it after reading.
	Get(ctx context.Context, bucket, key string) (Object, error)

	// Put writes size bytes from body to bucket/key, replacing any
	// previous object at that key.
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error

	// Stat returns metadata for bucket/key without downloading the
	// content. Used to report snapshot age before a full load.
	Stat(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}
