// Package vfs provides a byte-oriented virtual file system used by the
// disk tier of the cache. Paths are forward-slash separated and relative;
// backends are interchangeable (rooted local directory, S3 bucket).
package vfs

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when the path does not exist.
var ErrNotFound = errors.New("vfs: not found")

type FileSystem interface {
	// Write stores data at path, replacing any previous content.
	Write(ctx context.Context, path string, data []byte) error

	// Read returns the content at path, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete removes the content at path. Deleting an absent path is not an error.
	Delete(ctx context.Context, path string) error

	// List returns all paths starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
