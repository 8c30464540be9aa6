package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored rendition.
type ObjectInfo struct {
	Key string
	// Size is the size of the bytes served for the key. For aliases this is
	// the size of the target.
	Size  int64
	Alias bool
}

// Backend is a blob store addressed by slash separated keys. Writes are
// published atomically: a reader sees either nothing or the complete object.
type Backend interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Alias makes key serve the bytes of target without duplicating the
	// upload pipeline.
	Alias(ctx context.Context, key, target string) error
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Remove deletes key. A missing key is not an error.
	Remove(ctx context.Context, key string) error
	// RemoveDirIfEmpty prunes dir and its rendition sub-directories when they
	// hold nothing.
	RemoveDirIfEmpty(ctx context.Context, dir string) error
	Ping(ctx context.Context) error
}
