// Package minio backs the snapshot archive with a MinIO (or any
// S3-compatible) server.
package minio

import (
	"context"
	"io"

	"github.com/aysualkaya/assistant/internal/errs"
	"github.com/aysualkaya/assistant/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Driver implements filestore.Store on top of the MinIO SDK.
// Safe for concurrent use.
type Driver struct {
	client *miniogo.Client
}

// New connects using cfg and pings the server before returning.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{client: client}
	if err := d.Ping(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Ping lists buckets to verify both reachability and credentials.
func (d *Driver) Ping(ctx context.Context) error {
	if _, err := d.client.ListBuckets(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close is a no-op — the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// Get opens a streaming handle to bucket/key. The stat round-trip after the
// open surfaces NoSuchKey eagerly; the SDK otherwise defers it to first read.
func (d *Driver) Get(ctx context.Context, bucket, key string) (filestore.Object, error) {
	obj, err := d.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get object")
	}

	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, mapError(err, "failed to stat object after get")
	}

	return &object{ReadCloser: obj, info: objectInfo(key, stat)}, nil
}

// Put writes size bytes from body to bucket/key, replacing any previous
// object at that key.
func (d *Driver) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	_, err := d.client.PutObject(ctx, bucket, key, body, size, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return mapError(err, "failed to put object")
	}
	return nil
}

// Stat returns metadata for bucket/key without downloading the content.
func (d *Driver) Stat(ctx context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	stat, err := d.client.StatObject(ctx, bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to stat object")
	}
	return objectInfo(key, stat), nil
}

func objectInfo(key string, stat miniogo.ObjectInfo) *filestore.ObjectInfo {
	return &filestore.ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		LastModified: stat.LastModified,
	}
}

// object pairs the SDK's streaming reader with the stat taken at open time.
type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}

var _ filestore.Store = (*Driver)(nil)
