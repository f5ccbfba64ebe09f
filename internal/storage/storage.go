// Package storage keeps uploaded files (leave attachments, worker photos) on the
// local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"hrbackend/internal/config"
)

var ErrNotFound = errors.New("stored object not found")

// Store saves and serves opaque objects by key.
type Store interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "local":
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}

// Key joins path segments into an object key. The last segment is treated as a
// client-supplied file name and stripped of directories; names that would
// resolve to a directory become "file".
func Key(segments ...string) string {
	if len(segments) == 0 {
		return ""
	}
	last := len(segments) - 1
	name := path.Base(strings.ReplaceAll(segments[last], "\\", "/"))
	switch name {
	case ".", "..", "/":
		name = "file"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '?', '#', '%':
			return '_'
		}
		return r
	}, name)
	parts := append(append([]string{}, segments[:last]...), name)
	return strings.TrimPrefix(path.Join(parts...), "/")
}
