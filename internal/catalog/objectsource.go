package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/aysualkaya/assistant/internal/errs"
	"github.com/aysualkaya/assistant/internal/filestore"
)

// ObjectSource loads schema snapshots from object storage, so sessions can
// validate against an archived catalog without a live warehouse connection.
type ObjectSource struct {
	store  filestore.Store
	bucket string
	key    string
}

// NewObjectSource creates a Source reading the snapshot at bucket/key.
func NewObjectSource(store filestore.Store, bucket, key string) *ObjectSource {
	return &ObjectSource{store: store, bucket: bucket, key: key}
}

// Snapshot downloads and decodes the archived snapshot.
func (s *ObjectSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	obj, err := s.store.Get(ctx, s.bucket, s.key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	var snap Snapshot
	if err := json.NewDecoder(obj).Decode(&snap); err != nil {
		return nil, errs.Wrap(errs.ErrKindSchemaLoad, "malformed snapshot object", err)
	}
	return &snap, nil
}

// SaveSnapshot serializes snap and writes it to bucket/key, replacing any
// previous archive. TakenAt is stamped when unset.
func SaveSnapshot(ctx context.Context, store filestore.Store, bucket, key string, snap *Snapshot) error {
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "cannot serialize snapshot", err)
	}
	return store.Put(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), "application/json")
}
