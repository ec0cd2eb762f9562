// Package storage defines the FileStore interface that dataset artifacts are
// written to and read back from. A location is either a local directory or
// an S3 URL of the form s3://bucket/prefix; Open picks the backend.
package storage

import (
	"context"
	"io"
)

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file for reading.
	// The caller must close the returned ReadCloser when done.
	// If the file does not exist, an error wrapping os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing, replacing any previous
	// content. The file is only stored once Close returns nil; Abort
	// discards everything written and leaves any previous content in place.
	Write(ctx context.Context, path string) (Writer, error)

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Location returns the store root as given to Open.
	Location() string
}

// Writer is a pending file returned by FileStore.Write. Exactly one of
// Close or Abort should be called; later calls return os.ErrClosed.
type Writer interface {
	io.WriteCloser
	Abort() error
}
