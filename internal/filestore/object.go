package filestore

import (
	"io"
	"time"
)

// ObjectInfo describes one archived object.
type ObjectInfo struct {
	// Key is the object path within its bucket,
	// e.g. "snapshots/contoso.json".
	Key string

	// Size in bytes, -1 when the backend does not report it.
	Size int64

	// ContentType is the MIME type the object was stored with.
	ContentType string

	// LastModified is when the object was last written. For a snapshot
	// this is effectively the introspection time of the archived catalog.
	LastModified time.Time
}

// Object is a streaming handle to an object's content. Callers must Close
// it after reading.
type Object interface {
	io.ReadCloser

	Info() *ObjectInfo
}
