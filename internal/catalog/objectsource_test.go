package catalog

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysualkaya/assistant/internal/errs"
	"github.com/aysualkaya/assistant/internal/filestore"
)

// memStore keeps objects in a map, keyed by bucket/key.
type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

func (m *memStore) Get(_ context.Context, bucket, key string) (filestore.Object, error) {
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such object")
	}
	return &memObject{
		ReadCloser: io.NopCloser(bytes.NewReader(data)),
		info:       &filestore.ObjectInfo{Key: key, Size: int64(len(data))},
	}, nil
}

func (m *memStore) Put(_ context.Context, bucket, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *memStore) Stat(_ context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such object")
	}
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

type memObject struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *memObject) Info() *filestore.ObjectInfo { return o.info }

func TestObjectSourceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	snap := contosoSnapshot()
	snap.TakenAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, SaveSnapshot(ctx, store, "assistant", "snapshots/latest.json", snap))

	src := NewObjectSource(store, "assistant", "snapshots/latest.json")
	loaded, err := src.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, snap.TakenAt, loaded.TakenAt)
	require.Len(t, loaded.Tables, 3)
	assert.Equal(t, "FactSales", loaded.Tables[0].Name)
	assert.Equal(t, "SalesAmount", loaded.Tables[0].Columns[3].Name)
}

func TestObjectSourceMissingObject(t *testing.T) {
	src := NewObjectSource(newMemStore(), "assistant", "snapshots/latest.json")

	_, err := src.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestObjectSourceMalformedSnapshot(t *testing.T) {
	store := newMemStore()
	store.objects["assistant/snapshots/latest.json"] = []byte("not json at all")

	src := NewObjectSource(store, "assistant", "snapshots/latest.json")
	_, err := src.Snapshot(context.Background())

	require.Error(t, err)
	assert.True(t, errs.IsSchemaLoad(err))
}

func TestSaveSnapshotStampsTakenAt(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	snap := contosoSnapshot()
	require.True(t, snap.TakenAt.IsZero())
	require.NoError(t, SaveSnapshot(ctx, store, "assistant", "snapshots/latest.json", snap))

	assert.False(t, snap.TakenAt.IsZero())
}
